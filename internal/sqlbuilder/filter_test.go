package sqlbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bq-demo/internal/domain"
)

func TestCompileFilters_Membership(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name   string
		filter domain.Filter
		want   string
	}{
		{
			name:   "in with pre-quoted values",
			filter: domain.Filter{Column: "country", Op: domain.OpIn, Values: []string{"'US'", "'FR'"}},
			want:   "`country` IN ('US', 'FR')",
		},
		{
			name:   "not in",
			filter: domain.Filter{Column: "country", Op: domain.OpNotIn, Values: []string{`"XX"`}},
			want:   "`country` NOT IN ('XX')",
		},
		{
			name:   "numeric in coerces operands",
			filter: domain.Filter{Column: "units", Op: domain.OpIn, Values: []string{"1", "2.5"}},
			want:   "`units` IN (1, 2.5)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preds, err := compileFilters(BigQuery{}, snap, []domain.Filter{tt.filter}, false)
			require.NoError(t, err)
			require.Len(t, preds, 1)
			assert.Equal(t, tt.want, preds[0])
		})
	}
}

func TestCompileFilters_Scalars(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name   string
		filter domain.Filter
		want   string
	}{
		{
			name:   "string equality",
			filter: domain.Filter{Column: "country", Op: domain.OpEq, Value: "US"},
			want:   "`country` = 'US'",
		},
		{
			name:   "numeric comparison",
			filter: domain.Filter{Column: "revenue", Op: domain.OpGte, Value: "100.5"},
			want:   "`revenue` >= 100.5",
		},
		{
			name:   "not equal",
			filter: domain.Filter{Column: "units", Op: domain.OpNeq, Value: "0"},
			want:   "`units` != 0",
		},
		{
			name:   "temporal comparison renders a timestamp literal",
			filter: domain.Filter{Column: "ts", Op: domain.OpLt, Value: "2024-06-01"},
			want:   "`ts` < TIMESTAMP '2024-06-01 00:00:00'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preds, err := compileFilters(BigQuery{}, snap, []domain.Filter{tt.filter}, false)
			require.NoError(t, err)
			require.Len(t, preds, 1)
			assert.Equal(t, tt.want, preds[0])
		})
	}
}

func TestCompileFilters_Like(t *testing.T) {
	preds, err := compileFilters(BigQuery{}, testSnapshot(), []domain.Filter{
		{Column: "country", Op: domain.OpLike, Value: "U%"},
	}, false)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "`country` LIKE 'U%'", preds[0])
}

func TestCompileFilters_UnknownColumnSkipped(t *testing.T) {
	preds, err := compileFilters(BigQuery{}, testSnapshot(), []domain.Filter{
		{Column: "ghost", Op: domain.OpEq, Value: "x"},
		{Column: "country", Op: domain.OpEq, Value: "US"},
	}, false)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "`country` = 'US'", preds[0])
}

func TestCompileFilters_UnknownColumnStrict(t *testing.T) {
	_, err := compileFilters(BigQuery{}, testSnapshot(), []domain.Filter{
		{Column: "ghost", Op: domain.OpEq, Value: "x"},
	}, true)
	var ufe *domain.UnknownFieldError
	require.ErrorAs(t, err, &ufe)
}

func TestCompileFilters_UncoercibleMembershipValue(t *testing.T) {
	t.Run("lenient drops the value", func(t *testing.T) {
		preds, err := compileFilters(BigQuery{}, testSnapshot(), []domain.Filter{
			{Column: "units", Op: domain.OpIn, Values: []string{"1", "abc"}},
		}, false)
		require.NoError(t, err)
		require.Len(t, preds, 1)
		assert.Equal(t, "`units` IN (1)", preds[0])
	})

	t.Run("all values dropped skips the predicate", func(t *testing.T) {
		preds, err := compileFilters(BigQuery{}, testSnapshot(), []domain.Filter{
			{Column: "units", Op: domain.OpIn, Values: []string{"abc"}},
		}, false)
		require.NoError(t, err)
		assert.Empty(t, preds)
	})

	t.Run("strict fails the query", func(t *testing.T) {
		_, err := compileFilters(BigQuery{}, testSnapshot(), []domain.Filter{
			{Column: "units", Op: domain.OpIn, Values: []string{"abc"}},
		}, true)
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
	})
}

func TestCompileFilters_UnsupportedOperator(t *testing.T) {
	_, err := compileFilters(BigQuery{}, testSnapshot(), []domain.Filter{
		{Column: "country", Op: "regex", Value: "^U"},
	}, false)
	var uoe *domain.UnsupportedOperatorError
	require.ErrorAs(t, err, &uoe)
}

func TestCompileFilters_ExpressionColumn(t *testing.T) {
	preds, err := compileFilters(BigQuery{}, testSnapshot(), []domain.Filter{
		{Column: "margin", Op: domain.OpGt, Value: "0"},
	}, false)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "revenue - cost > 0", preds[0])
}

func TestScalarLiteral_Fallbacks(t *testing.T) {
	numeric := domain.Column{Name: "n", IsNumeric: true}
	assert.Equal(t, "'abc'", scalarLiteral(BigQuery{}, numeric, "abc"))

	temporal := domain.Column{Name: "ts", IsTemporal: true}
	assert.Equal(t, "'not a time'", scalarLiteral(BigQuery{}, temporal, "not a time"))
}

func TestCoerceNumber(t *testing.T) {
	n, err := coerceNumber("42")
	require.NoError(t, err)
	assert.Equal(t, "42", n)

	n, err = coerceNumber(" 3.50 ")
	require.NoError(t, err)
	assert.Equal(t, "3.5", n)

	_, err = coerceNumber("abc")
	require.Error(t, err)
}
