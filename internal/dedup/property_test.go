package dedup

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/sells-group/lead-intel/internal/model"
)

var (
	propNames   = []string{"Acme Inc", "ACME, Inc.", "Globex Corp", "Globex Corporation", "Initech", "Umbrella LLC"}
	propPeople  = []string{"", "Jane Doe", "J. Doe", "Hank Scorpio"}
	propAbouts  = []string{"", "rocket engines", "rocket engines and anvils", "paper reports"}
	propLeadMax = len(propNames) * len(propPeople) * len(propAbouts)
)

func propLead(i int) model.Lead {
	l := model.Lead{
		CompanyName: propNames[i%len(propNames)],
		KeyPerson:   propPeople[(i/len(propNames))%len(propPeople)],
	}
	if about := propAbouts[i/(len(propNames)*len(propPeople))]; about != "" {
		l.About = model.String(about)
	}
	return l
}

func sameLeads(a, b []model.Lead) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].CompanyName != b[i].CompanyName || a[i].KeyPerson != b[i].KeyPerson || a[i].About != b[i].About {
			return false
		}
	}
	return true
}

// TestDedupeProperties checks idempotence and order preservation.
// Property: Dedupe(Dedupe(x)) == Dedupe(x) for any lead list x.
func TestDedupeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	for _, w := range []Weighting{Renormalize, Fixed} {
		d := New(WithWeighting(w))

		properties.Property(string(w)+": dedupe is idempotent", prop.ForAll(
			func(idx []int, threshold float64) bool {
				leads := make([]model.Lead, len(idx))
				for i, n := range idx {
					leads[i] = propLead(n)
				}
				once := d.DedupeAt(leads, threshold)
				return sameLeads(once, d.DedupeAt(once, threshold))
			},
			gen.SliceOf(gen.IntRange(0, propLeadMax-1)),
			gen.Float64Range(1, 100),
		))

		properties.Property(string(w)+": output is a subsequence of input", prop.ForAll(
			func(idx []int) bool {
				leads := make([]model.Lead, len(idx))
				for i, n := range idx {
					leads[i] = propLead(n)
				}
				out := d.Dedupe(leads)
				j := 0
				for i := 0; i < len(leads) && j < len(out); i++ {
					if leads[i].CompanyName == out[j].CompanyName && leads[i].KeyPerson == out[j].KeyPerson && leads[i].About == out[j].About {
						j++
					}
				}
				return j == len(out) && (len(leads) == 0 || len(out) > 0)
			},
			gen.SliceOf(gen.IntRange(0, propLeadMax-1)),
		))
	}

	properties.TestingRun(t)
}
