package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/policynav/policy-navigator/navigator/contract"
)

var samplePolicies = []contract.Document{
	{
		ID:       "policy_1",
		Title:    "Clean Air Act Amendments",
		Text:     "The Clean Air Act requires the EPA to regulate air pollution emissions. Facilities must monitor and report emissions quarterly. Non-compliance may result in fines up to $50,000 per violation.",
		Category: "Environmental", Agency: "EPA", Date: "2020-01-15", Type: "Regulation",
	},
	{
		ID:       "policy_2",
		Title:    "Occupational Safety Standards",
		Text:     "OSHA requires employers to provide a safe workplace. This includes proper training, protective equipment, and hazard communication. Annual safety audits are mandatory.",
		Category: "Workplace Safety", Agency: "OSHA", Date: "2019-06-20", Type: "Standard",
	},
	{
		ID:       "policy_3",
		Title:    "Data Privacy Regulation",
		Text:     "Organizations must protect personal data and notify individuals of breaches within 72 hours. Data retention policies must be documented and enforced.",
		Category: "Data Privacy", Agency: "FTC", Date: "2021-03-10", Type: "Law",
	},
	{
		ID:       "policy_4",
		Title:    "Environmental Protection Guidelines",
		Text:     "The EPA establishes guidelines for environmental impact assessments. Projects affecting wetlands require federal permits and ongoing monitoring.",
		Category: "Environmental", Agency: "EPA", Date: "2018-11-05", Type: "Guideline",
	},
	{
		ID:       "policy_5",
		Title:    "Healthcare Compliance Requirements",
		Text:     "Healthcare providers must comply with HIPAA regulations for patient data protection. Regular staff training and security audits are required.",
		Category: "Healthcare", Agency: "HHS", Date: "2020-08-30", Type: "Rule",
	},
	{
		ID:       "policy_6",
		Title:    "Financial Reporting Standards",
		Text:     "Public companies must file quarterly and annual reports following GAAP standards. Independent audits are required annually.",
		Category: "Financial", Agency: "SEC", Date: "2019-12-15", Type: "Standard",
	},
	{
		ID:       "policy_7",
		Title:    "Food Safety Regulations",
		Text:     "Food manufacturers must follow FDA guidelines for safety and labeling. Regular inspections ensure compliance with sanitation standards.",
		Category: "Food Safety", Agency: "FDA", Date: "2021-05-20", Type: "Regulation",
	},
	{
		ID:       "policy_8",
		Title:    "Transportation Safety Rules",
		Text:     "Commercial vehicles must meet DOT safety requirements including regular inspections, driver qualifications, and hours of service limits.",
		Category: "Transportation", Agency: "DOT", Date: "2020-02-28", Type: "Rule",
	},
	{
		ID:       "policy_9",
		Title:    "Energy Efficiency Standards",
		Text:     "The Energy Star program sets efficiency standards for appliances and buildings. Compliance can qualify for tax incentives.",
		Category: "Energy", Agency: "DOE", Date: "2019-09-10", Type: "Standard",
	},
	{
		ID:       "policy_10",
		Title:    "Consumer Protection Laws",
		Text:     "Consumer protection laws prohibit unfair or deceptive practices. Companies must provide clear terms and honor warranties.",
		Category: "Consumer Protection", Agency: "FTC", Date: "2021-07-15", Type: "Law",
	},
}

// SampleRows returns the bundled demo dataset as source rows.
func SampleRows() []Row {
	return DocumentRows(samplePolicies)
}

// WriteSampleCSV writes the demo dataset to the loader's data directory so
// it can be reloaded through LoadCSV. Returns the rows it wrote.
func (l *Loader) WriteSampleCSV(filename string) ([]Row, error) {
	path := filepath.Join(l.dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create sample dataset %s: %w", filename, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "title", "text", "category", "agency", "date", "type"}); err != nil {
		return nil, fmt.Errorf("write sample header: %w", err)
	}
	for _, p := range samplePolicies {
		if err := w.Write([]string{p.ID, p.Title, p.Text, p.Category, p.Agency, p.Date, p.Type}); err != nil {
			return nil, fmt.Errorf("write sample row %s: %w", p.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush sample dataset: %w", err)
	}

	l.log.Info().Str("file", filename).Int("policies", len(samplePolicies)).Msg("sample dataset created")
	return SampleRows(), nil
}

// DocumentRows converts documents into source rows for Normalize. Empty
// fields are left out so the normalizer's presence checks apply.
func DocumentRows(docs []contract.Document) []Row {
	rows := make([]Row, 0, len(docs))
	for _, d := range docs {
		row := Row{"text": d.Text}
		set := func(key, value string) {
			if value != "" {
				row[key] = value
			}
		}
		set("id", d.ID)
		set("title", d.Title)
		set("category", d.Category)
		set("agency", d.Agency)
		set("agencies", d.Agencies)
		set("date", d.Date)
		set("type", d.Type)
		set("url", d.URL)
		rows = append(rows, row)
	}
	return rows
}

// RecordsFromDocuments builds retrieval records straight from scraped
// documents, substituting "Unknown" for missing provenance the way the
// index expects.
func RecordsFromDocuments(docs []contract.Document) []contract.RetrievalRecord {
	records := make([]contract.RetrievalRecord, 0, len(docs))
	for _, d := range docs {
		id := d.ID
		if id == "" {
			id = d.Title
			if len(id) > 50 {
				id = id[:50]
			}
			id = strings.ReplaceAll(id, " ", "_")
		}
		text := d.Text
		if text == "" {
			text = d.Title
		}
		category := d.Category
		if category == "" {
			category = "Unknown"
		}
		agency := d.Agency
		if agency == "" {
			agency = "Unknown"
		}
		docType := d.Type
		if docType == "" {
			docType = "Document"
		}
		attributes := map[string]string{
			"category": category,
			"agency":   agency,
			"type":     docType,
		}
		if d.Date != "" {
			attributes["date"] = d.Date
		}
		records = append(records, contract.RetrievalRecord{
			ID:         id,
			Text:       text,
			Attributes: attributes,
		})
	}
	return records
}
