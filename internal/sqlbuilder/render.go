package sqlbuilder

import (
	"strconv"
	"strings"
)

// The renderer owns all formatting: uppercase keywords, one clause per
// line, AND-continuation lines for multi-predicate WHERE clauses, and a
// two-space indent for the series-limit subquery. Values are already
// literal-bound by compilation, so the output is directly executable and
// stable enough to diff across runs.

func renderStatement(stmt *SelectStatement, indent int) string {
	pad := strings.Repeat(" ", indent)
	var b strings.Builder

	items := make([]string, len(stmt.Select))
	for i, it := range stmt.Select {
		items[i] = it.Expr
		if it.Alias != "" && it.Alias != it.Expr {
			items[i] += " AS " + it.Alias
		}
	}
	b.WriteString(pad + "SELECT " + strings.Join(items, ", "))

	b.WriteString("\n" + pad + "FROM " + stmt.From)

	if stmt.Join != nil {
		b.WriteString("\n" + pad + "JOIN (\n")
		b.WriteString(renderStatement(stmt.Join.Sub, indent+2))
		b.WriteString("\n" + pad + ") AS " + stmt.Join.Alias)
		b.WriteString("\n" + pad + "  ON " + strings.Join(stmt.Join.On, " AND "))
	}

	writeConjunction(&b, pad, "WHERE", stmt.Where)

	if len(stmt.GroupBy) > 0 {
		b.WriteString("\n" + pad + "GROUP BY " + strings.Join(stmt.GroupBy, ", "))
	}

	writeConjunction(&b, pad, "HAVING", stmt.Having)

	if len(stmt.OrderBy) > 0 {
		parts := make([]string, len(stmt.OrderBy))
		for i, ob := range stmt.OrderBy {
			parts[i] = ob.Expr + " ASC"
			if ob.Desc {
				parts[i] = ob.Expr + " DESC"
			}
		}
		b.WriteString("\n" + pad + "ORDER BY " + strings.Join(parts, ", "))
	}

	if stmt.Limit > 0 {
		b.WriteString("\n" + pad + "LIMIT " + strconv.Itoa(stmt.Limit))
	}

	return b.String()
}

func writeConjunction(b *strings.Builder, pad, keyword string, preds []string) {
	if len(preds) == 0 {
		return
	}
	b.WriteString("\n" + pad + keyword + " " + preds[0])
	for _, p := range preds[1:] {
		b.WriteString("\n" + pad + "  AND " + p)
	}
}
