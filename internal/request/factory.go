package request

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"text/template"
)

// Factory builds the GET request for a results file.
// Caching is always disabled so the newest published file is read.
type Factory struct {
	headerTemplate *template.Template
}

// NewFactory parses headerTemplate, a list of "Key: Value" lines.
// The template sees the request location as {{.Path}}.
func NewFactory(headerTemplate string) (*Factory, error) {
	tmpl, err := template.New("header").Parse(headerTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse header template: %w", err)
	}
	return &Factory{headerTemplate: tmpl}, nil
}

func (f *Factory) Build(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var headers bytes.Buffer
	if err := f.headerTemplate.Execute(&headers, map[string]string{"Path": url}); err != nil {
		return nil, err
	}

	for _, line := range strings.Split(headers.String(), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		req.Header.Set(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}

	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")
	return req, nil
}
