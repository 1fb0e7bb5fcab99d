// Package ingest turns raw policy sources (CSV rows, JSON files, PDFs,
// Postgres tables, scraped pages) into normalized retrieval records.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/policynav/policy-navigator/navigator/contract"
	logx "github.com/policynav/policy-navigator/pkg/logger"
)

// Row is one heterogeneous source row: field name → value.
type Row map[string]any

// Mapping configures how source rows become retrieval records.
type Mapping struct {
	TextField      string
	IDField        string
	MetadataFields []string
}

// DefaultMapping matches the layout of the bundled policy datasets.
func DefaultMapping() Mapping {
	return Mapping{
		TextField:      "text",
		IDField:        "id",
		MetadataFields: []string{"category", "agency", "date", "type"},
	}
}

// NormalizeResult is the outcome of normalizing a row sequence. The counts
// always satisfy len(Records) + Skipped == input row count.
type NormalizeResult struct {
	Records []contract.RetrievalRecord
	Skipped int
}

// Normalize converts rows into retrieval records. Rows without a text field
// are skipped and counted, never fatal. Rows without an id get a synthesized
// "doc_<index>" id. Metadata fields are copied only when present with a
// non-nil value, stringified.
func Normalize(rows []Row, m Mapping) NormalizeResult {
	if m.TextField == "" {
		m.TextField = DefaultMapping().TextField
	}
	if m.IDField == "" {
		m.IDField = DefaultMapping().IDField
	}
	if m.MetadataFields == nil {
		m.MetadataFields = DefaultMapping().MetadataFields
	}

	out := NormalizeResult{}
	for i, row := range rows {
		text, ok := row[m.TextField]
		if !ok || text == nil {
			out.Skipped++
			continue
		}

		id := "doc_" + strconv.Itoa(i)
		if v, ok := row[m.IDField]; ok && v != nil {
			id = stringify(v)
		}

		attributes := map[string]string{}
		for _, name := range m.MetadataFields {
			if v, ok := row[name]; ok && v != nil {
				attributes[name] = stringify(v)
			}
		}

		out.Records = append(out.Records, contract.RetrievalRecord{
			ID:         id,
			Text:       stringify(text),
			Attributes: attributes,
		})
	}
	return out
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Loader reads policy datasets out of a data directory.
type Loader struct {
	dir string
	log zerolog.Logger
}

func NewLoader(dir string) *Loader {
	return &Loader{
		dir: dir,
		log: logx.Component("ingest.loader"),
	}
}

// LoadCSV reads a CSV file with a header row and returns one Row per data
// line.
func (l *Loader) LoadCSV(filename string) ([]Row, error) {
	path := filepath.Join(l.dir, filename)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", filename, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", filename, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := Row{}
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}

	l.log.Info().Str("file", filename).Int("rows", len(rows)).Msg("loaded csv dataset")
	return rows, nil
}

// LoadJSON reads a JSON array of objects.
func (l *Loader) LoadJSON(filename string) ([]Row, error) {
	path := filepath.Join(l.dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open json %s: %w", filename, err)
	}

	var rows []Row
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode json %s: %w", filename, err)
	}

	l.log.Info().Str("file", filename).Int("rows", len(rows)).Msg("loaded json dataset")
	return rows, nil
}
