package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/lead-intel/internal/bundle"
	"github.com/sells-group/lead-intel/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, name string, data []byte) error {
	return m.Called(ctx, name, data).Error(0)
}

func (m *mockStore) Close() error { return nil }

// fixedSemantic returns a constant similarity for any non-empty pair.
type fixedSemantic float64

func (f fixedSemantic) Similarity(a, b string) float64 { return float64(f) }

func TestParseWeighting(t *testing.T) {
	w, err := ParseWeighting("")
	require.NoError(t, err)
	assert.Equal(t, Renormalize, w)

	w, err = ParseWeighting("fixed")
	require.NoError(t, err)
	assert.Equal(t, Fixed, w)

	_, err = ParseWeighting("average")
	assert.Error(t, err)
}

func TestIsDuplicate_SelfIdentity(t *testing.T) {
	leads := []model.Lead{
		{CompanyName: "Acme Inc", KeyPerson: "Jane Doe", About: model.String("Industrial anvils and rockets")},
		{CompanyName: "Globex Corporation", KeyPerson: "Hank Scorpio"},
		{CompanyName: "Initech", Notes: model.String("TPS reports")},
		{CompanyName: "Umbrella"},
		{CompanyName: "Blank About", KeyPerson: "Jane Doe", About: model.String("   ")},
		{CompanyName: "Dash Person", KeyPerson: "-"},
		{CompanyName: "Dotted About", About: model.String("...")},
		{CompanyName: "Blank About Notes", About: model.String("  "), Notes: model.String("...")},
		{CompanyName: "--", KeyPerson: "?"},
		{CompanyName: ""},
	}
	d := New()
	for _, l := range leads {
		t.Run("lead "+l.CompanyName, func(t *testing.T) {
			assert.Equal(t, 100.0, d.Score(l, l).Combined)
			assert.True(t, d.IsDuplicateAt(l, l, 100))
		})
	}
}

func TestScore_PunctuationOnlyFieldsCarryNoEvidence(t *testing.T) {
	d := New()
	a := model.Lead{CompanyName: "Acme Inc", KeyPerson: "-", About: model.String("...")}
	b := model.Lead{CompanyName: "ACME, Inc.", About: model.String("   ")}
	assert.Equal(t, 100.0, d.Score(a, b).Combined)

	// Leads with nothing comparable match only when identical.
	assert.Equal(t, 0.0, d.Score(model.Lead{CompanyName: "--"}, model.Lead{CompanyName: "??"}).Combined)
}

func TestDedupe_CollapsesIdenticalBlankFieldLeads(t *testing.T) {
	l := model.Lead{CompanyName: "Acme Inc", KeyPerson: "Jane Doe", About: model.String("   ")}
	assert.Len(t, New().Dedupe([]model.Lead{l, l, l}), 1)
}

func TestIsDuplicate_AcmeMerge(t *testing.T) {
	a := model.Lead{CompanyName: "Acme Inc", KeyPerson: "Jane Doe"}
	b := model.Lead{CompanyName: "ACME, Inc.", KeyPerson: "J. Doe"}

	d := New()
	bd := d.Score(a, b)
	assert.Equal(t, 100, bd.Name)
	assert.Equal(t, 77, bd.KeyPerson)
	assert.Equal(t, 0.0, bd.Text)
	assert.InDelta(t, 91.375, bd.Combined, 1e-9)
	assert.True(t, d.IsDuplicate(a, b))

	fixed := New(WithWeighting(Fixed))
	assert.InDelta(t, 73.1, fixed.Score(a, b).Combined, 1e-9)
	assert.False(t, fixed.IsDuplicate(a, b))
}

func TestIsDuplicate_BoundaryIsInclusive(t *testing.T) {
	// Same company, key person on one side only, no text: 50*100/100 = 50.
	a := model.Lead{CompanyName: "Acme Inc", KeyPerson: "Jane Doe"}
	b := model.Lead{CompanyName: "Acme Inc"}

	d := New(WithWeighting(Fixed))
	require.Equal(t, 50.0, d.Score(a, b).Combined)
	assert.True(t, d.IsDuplicateAt(a, b, 50))
	assert.False(t, d.IsDuplicateAt(a, b, 50.0001))

	// A one-sided key person still counts as 0 when renormalizing:
	// 50*100 / (50+30) = 62.5.
	assert.Equal(t, 62.5, New().Score(a, b).Combined)
}

func TestScore_TextFallsBackToNotes(t *testing.T) {
	d := New(WithSemantic(fixedSemantic(1)), WithWeighting(Fixed))

	withAbout := model.Lead{CompanyName: "Acme", About: model.String("rockets")}
	withNotes := model.Lead{CompanyName: "Acme", Notes: model.String("rockets")}
	bare := model.Lead{CompanyName: "Acme"}

	// about and notes both provide the text.
	assert.Equal(t, 100.0, d.Score(withAbout, withNotes).Text)
	// One side without any text scores 0 on that component.
	assert.Equal(t, 0.0, d.Score(withAbout, bare).Text)
	assert.Equal(t, 0.0, d.Score(bare, withNotes).Text)
	assert.Equal(t, 50.0, d.Score(withAbout, bare).Combined)
	assert.Equal(t, 70.0, d.Score(withAbout, withNotes).Combined)
}

func TestScore_AboutTakesPrecedenceOverNotes(t *testing.T) {
	d := New()
	a := model.Lead{CompanyName: "Acme", About: model.String("rocket engines"), Notes: model.String("bakery bread")}
	b := model.Lead{CompanyName: "Acme", Notes: model.String("rocket engines")}
	c := model.Lead{CompanyName: "Acme", Notes: model.String("bakery bread")}

	assert.Equal(t, 100.0, d.Score(a, b).Text)
	assert.Equal(t, 0.0, d.Score(a, c).Text)

	// An empty about falls back to notes.
	a.About = model.String("")
	assert.Equal(t, 100.0, d.Score(a, c).Text)
}

func TestScore_Weights(t *testing.T) {
	d := New(WithSemantic(fixedSemantic(0.5)), WithWeights(Weights{Name: 1, KeyPerson: 0, Text: 1}))
	a := model.Lead{CompanyName: "Acme", About: model.String("x")}
	b := model.Lead{CompanyName: "Acme", About: model.String("y")}
	assert.Equal(t, 75.0, d.Score(a, b).Combined)
}

func TestDedupe_FirstSeenWins(t *testing.T) {
	leads := []model.Lead{
		{CompanyName: "Acme Inc", KeyPerson: "Jane Doe"},
		{CompanyName: "Globex Corporation", KeyPerson: "Hank Scorpio"},
		{CompanyName: "ACME, Inc.", KeyPerson: "J. Doe"},
		{CompanyName: "Initech", KeyPerson: "Bill Lumbergh"},
		{CompanyName: "acme inc", KeyPerson: "Jane Doe"},
	}

	got := New().Dedupe(leads)
	require.Len(t, got, 3)
	assert.Equal(t, "Acme Inc", got[0].CompanyName)
	assert.Equal(t, "Globex Corporation", got[1].CompanyName)
	assert.Equal(t, "Initech", got[2].CompanyName)

	// Without text the fixed weighting tops out at 80, below the default
	// threshold, so nothing merges.
	assert.Len(t, New(WithWeighting(Fixed)).Dedupe(leads), 5)
}

func TestDedupe_EmptyAndThreshold(t *testing.T) {
	d := New()
	assert.Empty(t, d.Dedupe(nil))
	assert.NotNil(t, d.Dedupe(nil))

	leads := []model.Lead{{CompanyName: "Globex Corporation"}, {CompanyName: "Globex Corp"}}
	assert.Len(t, d.DedupeAt(leads, 85), 2)
	assert.Len(t, d.DedupeAt(leads, 76), 1)
}

func TestRetrain(t *testing.T) {
	st, err := bundle.NewFileStore(t.TempDir())
	require.NoError(t, err)

	d := New(WithStore(st))
	require.NoError(t, d.Retrain(context.Background(), 70))
	assert.Equal(t, 70.0, d.Threshold())

	loaded := New(WithStore(st))
	assert.Equal(t, DefaultThreshold, loaded.Threshold())
	loaded.Load(context.Background())
	assert.Equal(t, 70.0, loaded.Threshold())
}

func TestRetrain_Validation(t *testing.T) {
	d := New()
	for _, v := range []float64{0, -1, 100.5} {
		assert.Error(t, d.Retrain(context.Background(), v))
	}
	assert.Equal(t, DefaultThreshold, d.Threshold())

	require.NoError(t, d.Retrain(context.Background(), 100))
	assert.Equal(t, 100.0, d.Threshold())
}

func TestRetrain_PersistFailureKeepsThreshold(t *testing.T) {
	st := &mockStore{}
	st.On("Save", mock.Anything, BundleName, mock.Anything).Return(errors.New("read-only"))

	d := New(WithStore(st))
	err := d.Retrain(context.Background(), 60)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist bundle")
	assert.Equal(t, DefaultThreshold, d.Threshold())
	st.AssertExpectations(t)
}

func TestLoad_Fallbacks(t *testing.T) {
	outOfRange, _, err := bundle.Encode(BundleName, Bundle{Threshold: 250})
	require.NoError(t, err)
	wrongName, _, err := bundle.Encode("scoring", Bundle{Threshold: 50})
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"not found", nil, bundle.ErrNotFound},
		{"store error", nil, errors.New("timeout")},
		{"corrupt", []byte("garbage"), nil},
		{"out of range", outOfRange, nil},
		{"wrong bundle", wrongName, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &mockStore{}
			if tt.data != nil {
				st.On("Load", mock.Anything, BundleName).Return(tt.data, nil)
			} else {
				st.On("Load", mock.Anything, BundleName).Return(nil, tt.err)
			}
			d := New(WithStore(st))
			d.Load(context.Background())
			assert.Equal(t, DefaultThreshold, d.Threshold())
		})
	}
}

func TestWithDefaultThreshold(t *testing.T) {
	assert.Equal(t, 90.0, New(WithDefaultThreshold(90)).Threshold())
	assert.Equal(t, DefaultThreshold, New(WithDefaultThreshold(0)).Threshold())
}
