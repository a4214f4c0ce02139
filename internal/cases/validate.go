package cases

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrNoValidCases = errors.New("generation returned no valid case")

const (
	maxDiagnosisLen   = 80
	minScenarioLength = 40
)

// ambiguity markers that make a label unusable for later scoring
var ambiguous = []string{" or ", "/", ";", "?", "\n", " vs ", " versus "}

// Validate checks the shape invariants every case must satisfy, whether it
// comes from the catalog or from the generator.
func Validate(c ClinicalCase) error {
	var problems []string
	req := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			problems = append(problems, name+" is empty")
		}
	}

	req("title", c.Title)
	req("specialty", c.Specialty)
	req("publicDescription", c.PublicDescription)
	req("patient name", c.PatientProfile.Name)
	req("gender", c.PatientProfile.Gender)
	req("occupation", c.PatientProfile.Occupation)
	req("chiefComplaint", c.PatientProfile.ChiefComplaint)
	req("heartRate", c.PatientProfile.Vitals.HeartRate)
	req("bloodPressure", c.PatientProfile.Vitals.BloodPressure)
	req("temperature", c.PatientProfile.Vitals.Temperature)
	req("respiratoryRate", c.PatientProfile.Vitals.RespiratoryRate)
	req("oxygenSaturation", c.PatientProfile.Vitals.OxygenSaturation)

	if !c.Difficulty.Valid() {
		problems = append(problems, fmt.Sprintf("unknown difficulty %q", c.Difficulty))
	}
	if c.PatientProfile.Age <= 0 || c.PatientProfile.Age > 120 {
		problems = append(problems, fmt.Sprintf("implausible age %d", c.PatientProfile.Age))
	}
	if len(strings.TrimSpace(c.HiddenScenario)) < minScenarioLength {
		problems = append(problems, "hiddenScenario is too short")
	}

	dx := strings.TrimSpace(c.CorrectDiagnosis)
	switch {
	case dx == "":
		problems = append(problems, "correctDiagnosis is empty")
	case len(dx) > maxDiagnosisLen:
		problems = append(problems, "correctDiagnosis is not a single label")
	default:
		lower := strings.ToLower(dx)
		for _, marker := range ambiguous {
			if strings.Contains(lower, marker) {
				problems = append(problems, "correctDiagnosis is ambiguous")
				break
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid case %q: %s", c.Title, strings.Join(problems, ", "))
	}
	return nil
}

// generatedCase is the schema requested from the generator. The id is
// assigned locally.
type generatedCase struct {
	Title             string         `json:"title"`
	Difficulty        Difficulty     `json:"difficulty"`
	Specialty         string         `json:"specialty"`
	PublicDescription string         `json:"publicDescription"`
	PatientProfile    PatientProfile `json:"patientProfile"`
	HiddenScenario    string         `json:"hiddenScenario"`
	CorrectDiagnosis  string         `json:"correctDiagnosis"`
}

// DecodeGenerated parses generator output, drops entries that violate the
// case invariants or do not match want, and assigns ids. It returns the
// reasons entries were dropped alongside the survivors.
func DecodeGenerated(raw []byte, want Difficulty) ([]ClinicalCase, []error, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var items []generatedCase
	if err := dec.Decode(&items); err != nil {
		return nil, nil, fmt.Errorf("decoding generated cases: %w", err)
	}

	var (
		out     []ClinicalCase
		dropped []error
	)
	for _, g := range items {
		c := ClinicalCase{
			ID:                "gen-" + uuid.NewString(),
			Title:             strings.TrimSpace(g.Title),
			Difficulty:        g.Difficulty,
			Specialty:         strings.TrimSpace(g.Specialty),
			PublicDescription: strings.TrimSpace(g.PublicDescription),
			PatientProfile:    g.PatientProfile,
			HiddenScenario:    strings.TrimSpace(g.HiddenScenario),
			CorrectDiagnosis:  strings.TrimSpace(g.CorrectDiagnosis),
		}
		if err := Validate(c); err != nil {
			dropped = append(dropped, err)
			continue
		}
		if c.Difficulty != want {
			dropped = append(dropped, fmt.Errorf("case %q has difficulty %s, want %s", c.Title, c.Difficulty, want))
			continue
		}
		out = append(out, c)
	}

	if len(out) == 0 {
		return nil, dropped, ErrNoValidCases
	}
	return out, dropped, nil
}
