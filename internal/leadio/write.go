package leadio

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-intel/internal/model"
	"github.com/sells-group/lead-intel/internal/scorer"
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "leadio: encode json")
	}
	return nil
}

var leadHeader = []string{
	ColCompanyName, ColKeyPerson, ColAbout, ColNotes, ColSeniority, ColDepartment,
	ColCompanySize, ColIndustry, ColActivityLevel, ColIntentScore,
}

// WriteLeadsCSV writes leads with a header row. Absent attributes are blank.
func WriteLeadsCSV(w io.Writer, leads []model.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(leadHeader); err != nil {
		return eris.Wrap(err, "leadio: write csv header")
	}
	for _, l := range leads {
		if err := cw.Write(leadRecord(l)); err != nil {
			return eris.Wrap(err, "leadio: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "leadio: flush csv")
}

// WriteRankedCSV writes ranked leads, best first, prefixed by rank and score.
func WriteRankedCSV(w io.Writer, ranked []scorer.Ranked) error {
	cw := csv.NewWriter(w)
	header := append([]string{"rank", "score", "scored", "error"}, leadHeader...)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "leadio: write csv header")
	}
	for i, r := range ranked {
		score := ""
		if r.Scored {
			score = strconv.FormatFloat(r.Score, 'f', 6, 64)
		}
		rec := append([]string{strconv.Itoa(i + 1), score, strconv.FormatBool(r.Scored), r.Error}, leadRecord(r.Lead)...)
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "leadio: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "leadio: flush csv")
}

func leadRecord(l model.Lead) []string {
	return []string{
		l.CompanyName, l.KeyPerson, str(l.About), str(l.Notes), str(l.Seniority), str(l.Department),
		num(l.CompanySize), str(l.Industry), num(l.ActivityLevel), num(l.IntentScore),
	}
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func num(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
