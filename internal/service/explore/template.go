package explore

import (
	"strings"
	"text/template"

	"bq-demo/internal/domain"
)

// templateContext is what extra where/having fragments can reference,
// e.g. "ts >= {{.FromTS}}" or "rows < {{.RowLimit}}".
type templateContext struct {
	From     string
	To       string
	RowLimit int
}

const timestampLayout = "2006-01-02 15:04:05"

func newTemplateContext(req domain.QueryRequest) templateContext {
	tc := templateContext{RowLimit: req.RowLimit}
	if !req.From.IsZero() {
		tc.From = req.From.UTC().Format(timestampLayout)
	}
	if !req.To.IsZero() {
		tc.To = req.To.UTC().Format(timestampLayout)
	}
	return tc
}

// renderFragments expands template placeholders inside the request's
// extra where/having fragments. Fragments without placeholders pass
// through unchanged.
func renderFragments(req domain.QueryRequest) (domain.QueryRequest, error) {
	tc := newTemplateContext(req)

	var err error
	if req.ExtraWhere, err = renderFragment("extra_where", req.ExtraWhere, tc); err != nil {
		return req, err
	}
	if req.ExtraHaving, err = renderFragment("extra_having", req.ExtraHaving, tc); err != nil {
		return req, err
	}
	return req, nil
}

func renderFragment(name, fragment string, tc templateContext) (string, error) {
	if fragment == "" || !strings.Contains(fragment, "{{") {
		return fragment, nil
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(fragment)
	if err != nil {
		return "", domain.ErrValidation("invalid %s template: %v", name, err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, tc); err != nil {
		return "", domain.ErrValidation("render %s template: %v", name, err)
	}
	return sb.String(), nil
}
