// Package leadio reads and writes lead lists as JSON, YAML, CSV and XLSX.
package leadio

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-intel/internal/model"
)

// Format is a lead file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks a Format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", eris.Errorf("leadio: unsupported file type %q", filepath.Ext(path))
}

// ReadFile reads the leads in path, choosing the format by extension.
func ReadFile(path string) ([]model.LabeledLead, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "leadio: open %s", path)
	}
	defer fh.Close() //nolint:errcheck
	return Read(fh, f)
}

// Read decodes leads in format f from r.
func Read(r io.Reader, f Format) ([]model.LabeledLead, error) {
	switch f {
	case FormatJSON:
		var leads []model.LabeledLead
		if err := json.NewDecoder(r).Decode(&leads); err != nil {
			return nil, eris.Wrap(err, "leadio: decode json")
		}
		return leads, nil
	case FormatYAML:
		var leads []model.LabeledLead
		if err := yaml.NewDecoder(r).Decode(&leads); err != nil && err != io.EOF {
			return nil, eris.Wrap(err, "leadio: decode yaml")
		}
		return leads, nil
	case FormatCSV:
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1 // allow variable fields
		reader.TrimLeadingSpace = true
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, eris.Wrap(err, "leadio: read csv")
		}
		return FromRows(rows)
	case FormatXLSX:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "leadio: read xlsx")
		}
		return readXLSX(data)
	}
	return nil, eris.Errorf("leadio: unsupported format %q", f)
}

func readXLSX(data []byte) ([]model.LabeledLead, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "leadio: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("leadio: xlsx has no sheets")
	}
	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return FromRows(rows)
}

// Columns in a tabular lead file. Header names are matched case-insensitively
// with spaces and hyphens treated as underscores.
const (
	ColCompanyName   = "company_name"
	ColKeyPerson     = "key_person"
	ColAbout         = "about"
	ColNotes         = "notes"
	ColSeniority     = "seniority"
	ColDepartment    = "department"
	ColCompanySize   = "company_size"
	ColIndustry      = "industry"
	ColActivityLevel = "activity_level"
	ColIntentScore   = "intent_score"
	ColLabel         = "label"
)

// FromRows converts a header row plus data rows into leads. Unknown columns
// are ignored, blank cells leave the attribute absent and blank rows are
// skipped.
func FromRows(rows [][]string) ([]model.LabeledLead, error) {
	if len(rows) == 0 {
		return []model.LabeledLead{}, nil
	}
	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[headerKey(h)] = i
	}
	if _, ok := cols[ColCompanyName]; !ok {
		return nil, eris.Errorf("leadio: missing %s column", ColCompanyName)
	}

	leads := make([]model.LabeledLead, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		cell := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if blankRow(row) {
			continue
		}

		var l model.LabeledLead
		l.CompanyName = cell(ColCompanyName)
		l.KeyPerson = cell(ColKeyPerson)
		l.About = optString(cell(ColAbout))
		l.Notes = optString(cell(ColNotes))
		l.Seniority = optString(cell(ColSeniority))
		l.Department = optString(cell(ColDepartment))
		l.Industry = optString(cell(ColIndustry))

		var err error
		if l.CompanySize, err = optFloat(cell(ColCompanySize)); err != nil {
			return nil, eris.Wrapf(err, "leadio: row %d %s", line, ColCompanySize)
		}
		if l.ActivityLevel, err = optFloat(cell(ColActivityLevel)); err != nil {
			return nil, eris.Wrapf(err, "leadio: row %d %s", line, ColActivityLevel)
		}
		if l.IntentScore, err = optFloat(cell(ColIntentScore)); err != nil {
			return nil, eris.Wrapf(err, "leadio: row %d %s", line, ColIntentScore)
		}
		if l.Label, err = parseLabel(cell(ColLabel)); err != nil {
			return nil, eris.Wrapf(err, "leadio: row %d %s", line, ColLabel)
		}
		leads = append(leads, l)
	}
	return leads, nil
}

// Leads strips the labels.
func Leads(labeled []model.LabeledLead) []model.Lead {
	out := make([]model.Lead, len(labeled))
	for i, l := range labeled {
		out[i] = l.Lead
	}
	return out
}

// Labels returns the labels in lead order.
func Labels(labeled []model.LabeledLead) []bool {
	out := make([]bool, len(labeled))
	for i, l := range labeled {
		out[i] = l.Label
	}
	return out
}

func headerKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil, eris.Errorf("invalid number %q", s)
	}
	return &f, nil
}

func parseLabel(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y":
		return true, nil
	case "", "0", "false", "no", "n":
		return false, nil
	}
	return false, eris.Errorf("invalid label %q", s)
}
