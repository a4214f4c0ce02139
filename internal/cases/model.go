package cases

import "medisim/pkg/progression"

type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// DifficultyForRank sizes the case list to the learner: the two lowest
// ranks get beginner cases, the two highest get advanced ones.
func DifficultyForRank(r progression.Rank) Difficulty {
	switch {
	case r.Level <= 2:
		return Beginner
	case r.Level <= 4:
		return Intermediate
	default:
		return Advanced
	}
}

type Vitals struct {
	HeartRate        string `json:"heartRate"`
	BloodPressure    string `json:"bloodPressure"`
	Temperature      string `json:"temperature"`
	RespiratoryRate  string `json:"respiratoryRate"`
	OxygenSaturation string `json:"oxygenSaturation"`
}

type PatientProfile struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	Occupation     string `json:"occupation"`
	ChiefComplaint string `json:"chiefComplaint"`
	Vitals         Vitals `json:"vitals"`
}

// ClinicalCase is the full case including the ground truth. It is never
// written to a learner-facing response; use Public for that.
type ClinicalCase struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Difficulty        Difficulty     `json:"difficulty"`
	Specialty         string         `json:"specialty"`
	PublicDescription string         `json:"publicDescription"`
	PatientProfile    PatientProfile `json:"patientProfile"`
	HiddenScenario    string         `json:"hiddenScenario"`
	CorrectDiagnosis  string         `json:"correctDiagnosis"`
}

// PublicCase is the learner-facing view of a case.
type PublicCase struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Difficulty        Difficulty     `json:"difficulty"`
	Specialty         string         `json:"specialty"`
	PublicDescription string         `json:"publicDescription"`
	PatientProfile    PatientProfile `json:"patientProfile"`
}

func (c ClinicalCase) Public() PublicCase {
	return PublicCase{
		ID:                c.ID,
		Title:             c.Title,
		Difficulty:        c.Difficulty,
		Specialty:         c.Specialty,
		PublicDescription: c.PublicDescription,
		PatientProfile:    c.PatientProfile,
	}
}

func PublicList(list []ClinicalCase) []PublicCase {
	out := make([]PublicCase, 0, len(list))
	for _, c := range list {
		out = append(out, c.Public())
	}
	return out
}
