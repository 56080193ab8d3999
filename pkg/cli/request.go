package cli

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"bq-demo/internal/domain"
)

// queryFile is the YAML form of a query request, as accepted by the
// compile command. Timestamps accept RFC 3339 or "2006-01-02 15:04:05"
// or a bare date, all interpreted as UTC.
type queryFile struct {
	GroupBy []string `yaml:"group_by"`
	Metrics []string `yaml:"metrics"`
	Columns []string `yaml:"columns"`

	Granularity  string `yaml:"granularity"`
	Grain        string `yaml:"grain"`
	IsTimeseries bool   `yaml:"is_timeseries"`

	From      string `yaml:"from"`
	To        string `yaml:"to"`
	InnerFrom string `yaml:"inner_from"`
	InnerTo   string `yaml:"inner_to"`

	Filters []struct {
		Column string   `yaml:"column"`
		Op     string   `yaml:"op"`
		Value  string   `yaml:"value"`
		Values []string `yaml:"values"`
	} `yaml:"filters"`

	ExtraWhere  string `yaml:"extra_where"`
	ExtraHaving string `yaml:"extra_having"`

	OrderBy []struct {
		Column    string `yaml:"column"`
		Ascending bool   `yaml:"ascending"`
	} `yaml:"order_by"`
	RowLimit int `yaml:"row_limit"`

	SeriesLimit       int    `yaml:"series_limit"`
	SeriesLimitMetric string `yaml:"series_limit_metric"`
}

// loadQueryFile reads and parses a YAML query request file.
func loadQueryFile(path string) (domain.QueryRequest, error) {
	var req domain.QueryRequest

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read request file: %w", err)
	}

	var qf queryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&qf); err != nil {
		return req, fmt.Errorf("parse %s: %w", path, err)
	}

	req = domain.QueryRequest{
		GroupBy:           qf.GroupBy,
		Metrics:           qf.Metrics,
		Columns:           qf.Columns,
		Granularity:       qf.Granularity,
		Grain:             qf.Grain,
		IsTimeseries:      qf.IsTimeseries,
		ExtraWhere:        qf.ExtraWhere,
		ExtraHaving:       qf.ExtraHaving,
		RowLimit:          qf.RowLimit,
		SeriesLimit:       qf.SeriesLimit,
		SeriesLimitMetric: qf.SeriesLimitMetric,
	}

	for _, tf := range []struct {
		raw  string
		into *time.Time
	}{
		{qf.From, &req.From},
		{qf.To, &req.To},
		{qf.InnerFrom, &req.InnerFrom},
		{qf.InnerTo, &req.InnerTo},
	} {
		if tf.raw == "" {
			continue
		}
		ts, err := parseTimestamp(tf.raw)
		if err != nil {
			return req, err
		}
		*tf.into = ts
	}

	for _, f := range qf.Filters {
		req.Filters = append(req.Filters, domain.Filter{
			Column: f.Column,
			Op:     f.Op,
			Value:  f.Value,
			Values: f.Values,
		})
	}
	for _, o := range qf.OrderBy {
		req.OrderBy = append(req.OrderBy, domain.OrderBy{
			Column:    o.Column,
			Ascending: o.Ascending,
		})
	}

	return req, nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q: use RFC 3339, %q, or a date", s, "2006-01-02 15:04:05")
}
