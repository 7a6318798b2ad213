package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"NewsRanker/internal/domain"
	"NewsRanker/internal/ports"
)

// JSONWriter stores each report as <dir>/<date>_<vertical>.json.
type JSONWriter struct {
	dir string
}

var _ ports.ReportWriter = (*JSONWriter)(nil)

// NewJSONWriter writes reports under dir.
func NewJSONWriter(dir string) *JSONWriter {
	return &JSONWriter{dir: dir}
}

// Path is where the report of vertical for date is written.
func (w *JSONWriter) Path(date, vertical string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s.json", date, vertical))
}

// Write replaces any earlier report for the same date and vertical.
func (w *JSONWriter) Write(ctx context.Context, r domain.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	payload, err := json.MarshalIndent(Build(r), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	payload = append(payload, '\n')

	dest := w.Path(r.ReportDate, r.Vertical)
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, ".report-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp report: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("replace report: %w", err)
	}
	return dest, nil
}
