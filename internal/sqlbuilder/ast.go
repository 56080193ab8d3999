package sqlbuilder

// The statement tree is deliberately small: expressions are resolved to
// opaque SQL fragments during compilation, so nodes only track structure
// (clause membership, aliasing, the series-limit join). The tree is built
// once per request and never mutated afterwards.

// SelectItem is one projected expression with an optional alias.
type SelectItem struct {
	Expr  string
	Alias string
}

// OrderItem is one ORDER BY entry.
type OrderItem struct {
	Expr string
	Desc bool
}

// JoinClause joins the outer statement to the series-limit subquery on
// equality of every group-by column. Alias is already dialect-quoted.
type JoinClause struct {
	Sub   *SelectStatement
	Alias string
	On    []string
}

// SelectStatement is a single SELECT with optional series-limit join.
type SelectStatement struct {
	Select  []SelectItem
	From    string
	Join    *JoinClause
	Where   []string // conjunction
	GroupBy []string
	Having  []string // conjunction
	OrderBy []OrderItem
	Limit   int // 0 = no limit
}

// CompiledQuery is the immutable output of compilation, bound to the
// dialect it was compiled for.
type CompiledQuery struct {
	stmt    *SelectStatement
	dialect Dialect
}

// Dialect returns the dialect the query was compiled for.
func (q *CompiledQuery) Dialect() Dialect { return q.dialect }

// SQL renders the statement tree to its canonical formatted string.
// Rendering is deterministic: identical compiled queries produce
// byte-identical SQL.
func (q *CompiledQuery) SQL() string {
	return renderStatement(q.stmt, 0)
}
