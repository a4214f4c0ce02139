package cases

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medisim/pkg/progression"
)

type fakeGenerator struct {
	raw   []byte
	err   error
	calls atomic.Int32
}

func (f *fakeGenerator) GenerateCases(_ context.Context, _ Difficulty, _ int) ([]byte, error) {
	f.calls.Add(1)
	return f.raw, f.err
}

func validGenerated(d Difficulty, diagnosis string) map[string]interface{} {
	return map[string]interface{}{
		"title":             "Fever and cough",
		"difficulty":        d,
		"specialty":         "Pulmonology",
		"publicDescription": "A 45-year-old with three days of fever.",
		"patientProfile": map[string]interface{}{
			"name":           "Paul Girard",
			"age":            45,
			"gender":         "Male",
			"occupation":     "Teacher",
			"chiefComplaint": "Fever and productive cough",
			"vitals": map[string]string{
				"heartRate":        "104 bpm",
				"bloodPressure":    "128/80 mmHg",
				"temperature":      "39.1°C",
				"respiratoryRate":  "22 /min",
				"oxygenSaturation": "93%",
			},
		},
		"hiddenScenario":   "You have had a productive cough with rusty sputum for three days and chills.",
		"correctDiagnosis": diagnosis,
	}
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestStaticCatalogIsValid(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Static() {
		assert.NoError(t, Validate(c), c.ID)
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}
	for _, d := range []Difficulty{Beginner, Intermediate, Advanced} {
		assert.NotEmpty(t, StaticFor(d), d)
	}
}

func TestDifficultyForRank(t *testing.T) {
	assert.Equal(t, Beginner, DifficultyForRank(progression.RankFor(0)))
	assert.Equal(t, Beginner, DifficultyForRank(progression.RankFor(500)))
	assert.Equal(t, Intermediate, DifficultyForRank(progression.RankFor(1500)))
	assert.Equal(t, Intermediate, DifficultyForRank(progression.RankFor(3500)))
	assert.Equal(t, Advanced, DifficultyForRank(progression.RankFor(7000)))
	assert.Equal(t, Advanced, DifficultyForRank(progression.RankFor(50000)))
}

func TestPublicCaseHidesGroundTruth(t *testing.T) {
	c := Static()[0]
	raw, err := json.Marshal(c.Public())
	require.NoError(t, err)

	body := string(raw)
	assert.NotContains(t, body, "hiddenScenario")
	assert.NotContains(t, body, "correctDiagnosis")
	assert.NotContains(t, body, c.CorrectDiagnosis)
	assert.Contains(t, body, c.PatientProfile.Name)
}

func TestValidate(t *testing.T) {
	base := Static()[1]

	tests := []struct {
		name   string
		mutate func(c *ClinicalCase)
	}{
		{"empty title", func(c *ClinicalCase) { c.Title = " " }},
		{"unknown difficulty", func(c *ClinicalCase) { c.Difficulty = "Expert" }},
		{"zero age", func(c *ClinicalCase) { c.PatientProfile.Age = 0 }},
		{"old age", func(c *ClinicalCase) { c.PatientProfile.Age = 121 }},
		{"missing vital", func(c *ClinicalCase) { c.PatientProfile.Vitals.Temperature = "" }},
		{"short scenario", func(c *ClinicalCase) { c.HiddenScenario = "Headache." }},
		{"empty diagnosis", func(c *ClinicalCase) { c.CorrectDiagnosis = "" }},
		{"alternative", func(c *ClinicalCase) { c.CorrectDiagnosis = "Meningitis or encephalitis" }},
		{"slash", func(c *ClinicalCase) { c.CorrectDiagnosis = "Meningitis/encephalitis" }},
		{"question", func(c *ClinicalCase) { c.CorrectDiagnosis = "Meningitis?" }},
		{"too long", func(c *ClinicalCase) { c.CorrectDiagnosis = strings.Repeat("a", 81) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Error(t, Validate(c))
		})
	}

	assert.NoError(t, Validate(base))
}

func TestDecodeGenerated(t *testing.T) {
	raw := mustJSON(t, []interface{}{
		validGenerated(Intermediate, "Community-acquired pneumonia"),
		validGenerated(Intermediate, "Pneumonia or bronchitis"),
		validGenerated(Beginner, "Influenza"),
	})

	list, dropped, err := DecodeGenerated(raw, Intermediate)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, dropped, 2)
	assert.True(t, strings.HasPrefix(list[0].ID, "gen-"))
	assert.Equal(t, "Community-acquired pneumonia", list[0].CorrectDiagnosis)
}

func TestDecodeGeneratedRejectsUnknownFields(t *testing.T) {
	item := validGenerated(Beginner, "Influenza")
	item["severity"] = "high"

	_, _, err := DecodeGenerated(mustJSON(t, []interface{}{item}), Beginner)
	assert.Error(t, err)
}

func TestDecodeGeneratedNoValidEntries(t *testing.T) {
	raw := mustJSON(t, []interface{}{validGenerated(Beginner, "Flu; cold")})

	_, _, err := DecodeGenerated(raw, Beginner)
	assert.ErrorIs(t, err, ErrNoValidCases)
}

func TestForRankUsesGenerator(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gen := &fakeGenerator{raw: mustJSON(t, []interface{}{validGenerated(Beginner, "Influenza")})}
	cache := NewCache(8, time.Minute, nil, logger)
	repo := NewRepository(gen, cache, Options{Generate: true, Count: 1}, logger, nil)

	list, err := repo.ForRank(context.Background(), progression.RankFor(0))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Influenza", list[0].CorrectDiagnosis)

	again, err := repo.ForRank(context.Background(), progression.RankFor(0))
	require.NoError(t, err)
	assert.Equal(t, list[0].ID, again[0].ID)
	assert.EqualValues(t, 1, gen.calls.Load(), "second call should hit the cache")
}

func TestForRankFallsBackToStatic(t *testing.T) {
	logger, hook := test.NewNullLogger()
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	repo := NewRepository(gen, nil, Options{Generate: true}, logger, nil)

	list, err := repo.ForRank(context.Background(), progression.RankFor(12000))
	require.NoError(t, err)
	assert.Equal(t, StaticFor(Advanced), list)
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "serving static catalog")
}

func TestForRankWithoutGeneration(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gen := &fakeGenerator{}
	repo := NewRepository(gen, nil, Options{Generate: false}, logger, nil)

	list, err := repo.ForRank(context.Background(), progression.RankFor(1500))
	require.NoError(t, err)
	assert.Equal(t, StaticFor(Intermediate), list)
	assert.Zero(t, gen.calls.Load())
}
