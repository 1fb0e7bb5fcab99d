package contract

// Document is a policy document as produced by any ingestion source
// (tabular loader, web scraper, PDF extractor, Postgres table).
type Document struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
	Agency   string `json:"agency,omitempty"`
	Agencies string `json:"agencies,omitempty"`
	Date     string `json:"date,omitempty"`
	Type     string `json:"type,omitempty"`
	URL      string `json:"url,omitempty"`
}

// RetrievalRecord is the normalized (id, text, attributes) tuple handed to
// the hosted index for semantic indexing. Records are never mutated after
// creation; duplicate-id conflicts are resolved by the platform's
// last-write-wins upsert, not locally.
type RetrievalRecord struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes"`
}

// Case is a single case-law search hit.
type Case struct {
	CaseName  string   `json:"case_name"`
	Court     string   `json:"court"`
	DateFiled string   `json:"date_filed"`
	Snippet   string   `json:"snippet,omitempty"`
	URL       string   `json:"url,omitempty"`
	Citations []string `json:"citation,omitempty"`
	Status    string   `json:"status,omitempty"`
}

// CaseLawResult carries case-law hits for one query. Fallback marks a
// substitute sample set returned when the authenticated search could not be
// made; it is labeled so a caller never mistakes it for live data.
type CaseLawResult struct {
	Query    string `json:"query"`
	Cases    []Case `json:"cases"`
	Fallback bool   `json:"fallback"`
}
