package feedback

import (
	"errors"
	"strings"

	"medisim/internal/transcript"
)

// ExpertUnavailable is passed to the evaluator when no expert opinion
// could be obtained.
const ExpertUnavailable = "unavailable"

// NeutralScore is used when the evaluation cannot be completed.
const NeutralScore = 50

var ErrIncompleteSubmission = errors.New("main diagnosis and reasoning are both required")

type DiagnosisSubmission struct {
	MainDiagnosis string `json:"mainDiagnosis"`
	Reasoning     string `json:"reasoning"`
}

func (s DiagnosisSubmission) Normalize() DiagnosisSubmission {
	return DiagnosisSubmission{
		MainDiagnosis: strings.TrimSpace(s.MainDiagnosis),
		Reasoning:     strings.TrimSpace(s.Reasoning),
	}
}

func (s DiagnosisSubmission) Validate() error {
	n := s.Normalize()
	if n.MainDiagnosis == "" || n.Reasoning == "" {
		return ErrIncompleteSubmission
	}
	return nil
}

type TutorFeedback struct {
	Score             int      `json:"score"`
	Strengths         []string `json:"strengths"`
	Weaknesses        []string `json:"weaknesses"`
	MissedQuestions   []string `json:"missedQuestions"`
	FinalComment      string   `json:"finalComment"`
	ExperienceGain    int      `json:"experienceGain"`
	ExpertOpinionUsed bool     `json:"expertOpinionUsed"`
	Fallback          bool     `json:"fallback"`
}

// EvaluationRequest is everything the tutor sees. Dialogue holds learner
// and patient turns only.
type EvaluationRequest struct {
	CaseTitle        string
	Specialty        string
	CorrectDiagnosis string
	Dialogue         transcript.Transcript
	Submission       DiagnosisSubmission
	ExpertOpinion    string
}

// Input to Synthesize.
type Input struct {
	CaseTitle        string
	Specialty        string
	CorrectDiagnosis string
	Transcript       transcript.Transcript
	Submission       DiagnosisSubmission
}
