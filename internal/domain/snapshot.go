package domain

// Snapshot is an immutable view of one dataset's metadata, taken once per
// compile call. The compiler resolves every referenced name against it,
// so concurrent metastore writes cannot be observed mid-compilation.
type Snapshot struct {
	dataset Dataset
	columns map[string]Column
	metrics map[string]Metric
}

// NewSnapshot builds a Snapshot from a dataset and its columns and
// metrics. The implicit COUNT(*) metric is always present, even when no
// metric of that name is stored.
func NewSnapshot(dataset Dataset, columns []Column, metrics []Metric) *Snapshot {
	s := &Snapshot{
		dataset: dataset,
		columns: make(map[string]Column, len(columns)),
		metrics: make(map[string]Metric, len(metrics)+1),
	}
	for _, c := range columns {
		s.columns[c.Name] = c
	}
	s.metrics[CountMetricName] = CountMetric(dataset.ID)
	for _, m := range metrics {
		s.metrics[m.Name] = m
	}
	return s
}

// Dataset returns the dataset this snapshot describes.
func (s *Snapshot) Dataset() Dataset { return s.dataset }

// Column resolves a column by name.
func (s *Snapshot) Column(name string) (Column, bool) {
	c, ok := s.columns[name]
	return c, ok
}

// Metric resolves a metric by name.
func (s *Snapshot) Metric(name string) (Metric, bool) {
	m, ok := s.metrics[name]
	return m, ok
}

// TemporalColumn resolves a column by name and requires it to be
// temporal. An empty name falls back to the dataset's main temporal
// column.
func (s *Snapshot) TemporalColumn(name string) (Column, bool) {
	if name == "" {
		name = s.dataset.MainTemporalColumn
	}
	c, ok := s.columns[name]
	if !ok || !c.IsTemporal {
		return Column{}, false
	}
	return c, true
}

// Columns returns all columns in undefined order.
func (s *Snapshot) Columns() []Column {
	out := make([]Column, 0, len(s.columns))
	for _, c := range s.columns {
		out = append(out, c)
	}
	return out
}
