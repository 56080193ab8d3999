package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bq-demo/internal/domain"
)

type datasetResponse struct {
	ID                  string     `json:"id"`
	ProjectID           string     `json:"project_id"`
	DatasetName         string     `json:"dataset_name"`
	TableName           string     `json:"table_name"`
	Description         string     `json:"description,omitempty"`
	MainTemporalColumn  string     `json:"main_temporal_column,omitempty"`
	RowLimit            int        `json:"row_limit"`
	MetadataRefreshedAt *time.Time `json:"metadata_refreshed_at,omitempty"`
	CreatedBy           string     `json:"created_by,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func toDatasetResponse(d *domain.Dataset) datasetResponse {
	return datasetResponse{
		ID:                  d.ID,
		ProjectID:           d.ProjectID,
		DatasetName:         d.DatasetName,
		TableName:           d.TableName,
		Description:         d.Description,
		MainTemporalColumn:  d.MainTemporalColumn,
		RowLimit:            d.RowLimit,
		MetadataRefreshedAt: d.MetadataRefreshedAt,
		CreatedBy:           d.CreatedBy,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

type columnResponse struct {
	ID            string    `json:"id"`
	DatasetID     string    `json:"dataset_id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Expression    string    `json:"expression,omitempty"`
	IsNumeric     bool      `json:"is_numeric"`
	Groupable     bool      `json:"groupable"`
	Filterable    bool      `json:"filterable"`
	IsTemporal    bool      `json:"is_temporal"`
	Sum           bool      `json:"sum"`
	Avg           bool      `json:"avg"`
	Min           bool      `json:"min"`
	Max           bool      `json:"max"`
	CountDistinct bool      `json:"count_distinct"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toColumnResponse(c *domain.Column) columnResponse {
	return columnResponse{
		ID:            c.ID,
		DatasetID:     c.DatasetID,
		Name:          c.Name,
		Type:          c.Type,
		Expression:    c.Expression,
		IsNumeric:     c.IsNumeric,
		Groupable:     c.Groupable,
		Filterable:    c.Filterable,
		IsTemporal:    c.IsTemporal,
		Sum:           c.Sum,
		Avg:           c.Avg,
		Min:           c.Min,
		Max:           c.Max,
		CountDistinct: c.CountDistinct,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type metricResponse struct {
	ID         string    `json:"id"`
	DatasetID  string    `json:"dataset_id"`
	Name       string    `json:"name"`
	MetricType string    `json:"metric_type"`
	Expression string    `json:"expression"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toMetricResponse(m *domain.Metric) metricResponse {
	return metricResponse{
		ID:         m.ID,
		DatasetID:  m.DatasetID,
		Name:       m.Name,
		MetricType: m.MetricType,
		Expression: m.Expression,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// --- datasets ---

type createDatasetBody struct {
	ProjectID          string `json:"project_id"`
	DatasetName        string `json:"dataset_name"`
	TableName          string `json:"table_name"`
	Description        string `json:"description"`
	MainTemporalColumn string `json:"main_temporal_column"`
	RowLimit           int    `json:"row_limit"`
}

func (h *Handler) createDataset(w http.ResponseWriter, r *http.Request) {
	var body createDatasetBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	ds, err := h.metadata.CreateDataset(r.Context(), principal(r), domain.CreateDatasetRequest{
		ProjectID:          body.ProjectID,
		DatasetName:        body.DatasetName,
		TableName:          body.TableName,
		Description:        body.Description,
		MainTemporalColumn: body.MainTemporalColumn,
		RowLimit:           body.RowLimit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDatasetResponse(ds))
}

func (h *Handler) listDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.metadata.ListDatasets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]datasetResponse, 0, len(datasets))
	for i := range datasets {
		out = append(out, toDatasetResponse(&datasets[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.metadata.GetDataset(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDatasetResponse(ds))
}

type updateDatasetBody struct {
	Description        *string `json:"description"`
	MainTemporalColumn *string `json:"main_temporal_column"`
	RowLimit           *int    `json:"row_limit"`
}

func (h *Handler) updateDataset(w http.ResponseWriter, r *http.Request) {
	var body updateDatasetBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	ds, err := h.metadata.UpdateDataset(r.Context(), chi.URLParam(r, "datasetID"), domain.UpdateDatasetRequest{
		Description:        body.Description,
		MainTemporalColumn: body.MainTemporalColumn,
		RowLimit:           body.RowLimit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDatasetResponse(ds))
}

func (h *Handler) deleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.metadata.DeleteDataset(r.Context(), chi.URLParam(r, "datasetID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) refreshDataset(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "datasetID")
	if err := h.metadata.Refresh(r.Context(), datasetID); err != nil {
		writeError(w, err)
		return
	}
	columns, err := h.metadata.ListColumns(r.Context(), datasetID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]columnResponse, 0, len(columns))
	for i := range columns {
		out = append(out, toColumnResponse(&columns[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// --- columns ---

type createColumnBody struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Expression    string `json:"expression"`
	IsNumeric     bool   `json:"is_numeric"`
	Groupable     bool   `json:"groupable"`
	Filterable    bool   `json:"filterable"`
	IsTemporal    bool   `json:"is_temporal"`
	Sum           bool   `json:"sum"`
	Avg           bool   `json:"avg"`
	Min           bool   `json:"min"`
	Max           bool   `json:"max"`
	CountDistinct bool   `json:"count_distinct"`
}

func (h *Handler) createColumn(w http.ResponseWriter, r *http.Request) {
	var body createColumnBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	col, err := h.metadata.CreateColumn(r.Context(), domain.CreateColumnRequest{
		DatasetID:     chi.URLParam(r, "datasetID"),
		Name:          body.Name,
		Type:          body.Type,
		Expression:    body.Expression,
		IsNumeric:     body.IsNumeric,
		Groupable:     body.Groupable,
		Filterable:    body.Filterable,
		IsTemporal:    body.IsTemporal,
		Sum:           body.Sum,
		Avg:           body.Avg,
		Min:           body.Min,
		Max:           body.Max,
		CountDistinct: body.CountDistinct,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toColumnResponse(col))
}

func (h *Handler) listColumns(w http.ResponseWriter, r *http.Request) {
	columns, err := h.metadata.ListColumns(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]columnResponse, 0, len(columns))
	for i := range columns {
		out = append(out, toColumnResponse(&columns[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type updateColumnBody struct {
	Type          *string `json:"type"`
	Expression    *string `json:"expression"`
	IsNumeric     *bool   `json:"is_numeric"`
	Groupable     *bool   `json:"groupable"`
	Filterable    *bool   `json:"filterable"`
	IsTemporal    *bool   `json:"is_temporal"`
	Sum           *bool   `json:"sum"`
	Avg           *bool   `json:"avg"`
	Min           *bool   `json:"min"`
	Max           *bool   `json:"max"`
	CountDistinct *bool   `json:"count_distinct"`
}

func (h *Handler) updateColumn(w http.ResponseWriter, r *http.Request) {
	var body updateColumnBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	col, err := h.metadata.UpdateColumn(r.Context(), chi.URLParam(r, "columnID"), domain.UpdateColumnRequest{
		Type:          body.Type,
		Expression:    body.Expression,
		IsNumeric:     body.IsNumeric,
		Groupable:     body.Groupable,
		Filterable:    body.Filterable,
		IsTemporal:    body.IsTemporal,
		Sum:           body.Sum,
		Avg:           body.Avg,
		Min:           body.Min,
		Max:           body.Max,
		CountDistinct: body.CountDistinct,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toColumnResponse(col))
}

func (h *Handler) deleteColumn(w http.ResponseWriter, r *http.Request) {
	if err := h.metadata.DeleteColumn(r.Context(), chi.URLParam(r, "columnID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- metrics ---

type createMetricBody struct {
	Name       string `json:"name"`
	MetricType string `json:"metric_type"`
	Expression string `json:"expression"`
}

func (h *Handler) createMetric(w http.ResponseWriter, r *http.Request) {
	var body createMetricBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	m, err := h.metadata.CreateMetric(r.Context(), domain.CreateMetricRequest{
		DatasetID:  chi.URLParam(r, "datasetID"),
		Name:       body.Name,
		MetricType: body.MetricType,
		Expression: body.Expression,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMetricResponse(m))
}

func (h *Handler) listMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.metadata.ListMetrics(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]metricResponse, 0, len(metrics))
	for i := range metrics {
		out = append(out, toMetricResponse(&metrics[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type updateMetricBody struct {
	MetricType *string `json:"metric_type"`
	Expression *string `json:"expression"`
}

func (h *Handler) updateMetric(w http.ResponseWriter, r *http.Request) {
	var body updateMetricBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	m, err := h.metadata.UpdateMetric(r.Context(), chi.URLParam(r, "metricID"), domain.UpdateMetricRequest{
		MetricType: body.MetricType,
		Expression: body.Expression,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMetricResponse(m))
}

func (h *Handler) deleteMetric(w http.ResponseWriter, r *http.Request) {
	if err := h.metadata.DeleteMetric(r.Context(), chi.URLParam(r, "metricID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) generateMetrics(w http.ResponseWriter, r *http.Request) {
	created, err := h.metadata.GenerateMetrics(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]metricResponse, 0, len(created))
	for i := range created {
		out = append(out, toMetricResponse(&created[i]))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) generateColumnMetrics(w http.ResponseWriter, r *http.Request) {
	created, err := h.metadata.GenerateMetricsForColumn(
		r.Context(), chi.URLParam(r, "datasetID"), chi.URLParam(r, "columnName"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]metricResponse, 0, len(created))
	for i := range created {
		out = append(out, toMetricResponse(&created[i]))
	}
	writeJSON(w, http.StatusCreated, out)
}

// principal identifies the caller for audit columns. There is no auth
// layer in front of this API yet, so it falls back to a header or a
// placeholder.
func principal(r *http.Request) string {
	if p := r.Header.Get("X-Principal"); p != "" {
		return p
	}
	return "anonymous"
}
