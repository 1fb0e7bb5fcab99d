package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// LoadPDF extracts the plain text of a PDF policy document in the loader's
// data directory and returns it as a single source row keyed by filename.
func (l *Loader) LoadPDF(filename string) (Row, error) {
	path := filepath.Join(l.dir, filename)

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", filename, err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text %s: %w", filename, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return nil, fmt.Errorf("read pdf text %s: %w", filename, err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return nil, fmt.Errorf("no text extracted from %s", filename)
	}

	id := strings.TrimSuffix(filename, filepath.Ext(filename))
	l.log.Info().Str("file", filename).Int("bytes", len(text)).Msg("extracted pdf document")

	return Row{
		"id":    id,
		"title": filename,
		"text":  text,
		"type":  "Document",
	}, nil
}

// LoadPDFs extracts every PDF in the data directory. A file that fails to
// parse is logged and skipped so one bad document does not abort the batch.
func (l *Loader) LoadPDFs() ([]Row, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("scan pdf documents: %w", err)
	}

	rows := make([]Row, 0, len(matches))
	for _, path := range matches {
		row, err := l.LoadPDF(filepath.Base(path))
		if err != nil {
			l.log.Warn().Str("file", filepath.Base(path)).Err(err).Msg("skipping unreadable pdf")
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
