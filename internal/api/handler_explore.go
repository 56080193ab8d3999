package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bq-demo/internal/domain"
)

type filterBody struct {
	Column string   `json:"column"`
	Op     string   `json:"op"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

type orderByBody struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// queryBody is the wire form of a query request. Timestamps are RFC 3339.
type queryBody struct {
	GroupBy []string `json:"group_by,omitempty"`
	Metrics []string `json:"metrics,omitempty"`
	Columns []string `json:"columns,omitempty"`

	Granularity  string `json:"granularity,omitempty"`
	Grain        string `json:"grain,omitempty"`
	IsTimeseries bool   `json:"is_timeseries,omitempty"`

	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
	InnerFrom *time.Time `json:"inner_from,omitempty"`
	InnerTo   *time.Time `json:"inner_to,omitempty"`

	Filters []filterBody `json:"filters,omitempty"`

	ExtraWhere  string `json:"extra_where,omitempty"`
	ExtraHaving string `json:"extra_having,omitempty"`

	OrderBy  []orderByBody `json:"order_by,omitempty"`
	RowLimit int           `json:"row_limit,omitempty"`

	SeriesLimit       int    `json:"series_limit,omitempty"`
	SeriesLimitMetric string `json:"series_limit_metric,omitempty"`
}

func (b *queryBody) toRequest() domain.QueryRequest {
	req := domain.QueryRequest{
		GroupBy:           b.GroupBy,
		Metrics:           b.Metrics,
		Columns:           b.Columns,
		Granularity:       b.Granularity,
		Grain:             b.Grain,
		IsTimeseries:      b.IsTimeseries,
		ExtraWhere:        b.ExtraWhere,
		ExtraHaving:       b.ExtraHaving,
		RowLimit:          b.RowLimit,
		SeriesLimit:       b.SeriesLimit,
		SeriesLimitMetric: b.SeriesLimitMetric,
	}
	if b.From != nil {
		req.From = *b.From
	}
	if b.To != nil {
		req.To = *b.To
	}
	if b.InnerFrom != nil {
		req.InnerFrom = *b.InnerFrom
	}
	if b.InnerTo != nil {
		req.InnerTo = *b.InnerTo
	}
	for _, f := range b.Filters {
		req.Filters = append(req.Filters, domain.Filter{
			Column: f.Column,
			Op:     f.Op,
			Value:  f.Value,
			Values: f.Values,
		})
	}
	for _, o := range b.OrderBy {
		req.OrderBy = append(req.OrderBy, domain.OrderBy{
			Column:    o.Column,
			Ascending: o.Ascending,
		})
	}
	return req
}

type explainResponse struct {
	SQL     string `json:"sql"`
	Dialect string `json:"dialect"`
}

func (h *Handler) explainQuery(w http.ResponseWriter, r *http.Request) {
	var body queryBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	result, err := h.explore.Explain(r.Context(), chi.URLParam(r, "datasetID"), body.toRequest())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, explainResponse{SQL: result.SQL, Dialect: result.Dialect})
}

type queryResponse struct {
	SQL        string   `json:"sql"`
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	RowCount   int      `json:"row_count"`
	DurationMS int64    `json:"duration_ms"`
}

func (h *Handler) runQuery(w http.ResponseWriter, r *http.Request) {
	var body queryBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	result, err := h.explore.Run(r.Context(), chi.URLParam(r, "datasetID"), body.toRequest())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{
		SQL:        result.SQL,
		Columns:    result.Columns,
		Rows:       result.Rows,
		RowCount:   result.RowCount,
		DurationMS: result.Duration.Milliseconds(),
	})
}
