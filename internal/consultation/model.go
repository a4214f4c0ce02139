package consultation

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"medisim/internal/cases"
	"medisim/internal/feedback"
	"medisim/internal/profile"
	"medisim/internal/transcript"
)

type State string

const (
	StateHome             State = "home"
	StateCaseBrowsing     State = "case_browsing"
	StateConsulting       State = "consulting"
	StateAwaitingFeedback State = "awaiting_feedback"
	StateFeedbackShown    State = "feedback_shown"
	StateQuiz             State = "quiz"
	StateCourses          State = "courses"
)

type Destination string

const (
	DestinationCases   Destination = "cases"
	DestinationQuiz    Destination = "quiz"
	DestinationCourses Destination = "courses"
)

const openingLine = "Hello doctor."

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidTransition  = errors.New("action not allowed in the current state")
	ErrInvalidSubmission  = feedback.ErrIncompleteSubmission
	ErrEmptyMessage       = errors.New("message must not be empty")
	ErrUnknownCase        = errors.New("case is not in the offered list")
	ErrUnknownDestination = errors.New("unknown destination")
	ErrNoFeedback         = errors.New("no finished attempt in this session")
)

// Session is one learner's walk through the simulator. Fields are guarded
// by mu; the lock is never held across an external call.
type Session struct {
	mu sync.Mutex

	ID        uuid.UUID
	LearnerID uuid.UUID
	State     State

	Offered    []cases.ClinicalCase
	Case       *cases.ClinicalCase
	Transcript transcript.Transcript

	LoadingCases  bool
	AwaitingReply bool
	HintPending   bool
	Submitting    bool

	Submission *feedback.DiagnosisSubmission
	Feedback   *feedback.TutorFeedback
	Profile    *profile.UserProfile
	LastError  string

	// attempt changes whenever a consultation starts or is abandoned, so a
	// late result can tell it no longer applies.
	attempt   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Session) busy() bool {
	return s.LoadingCases || s.AwaitingReply || s.HintPending || s.Submitting
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// View is the learner-facing snapshot of a session.
type View struct {
	ID            uuid.UUID                     `json:"id"`
	LearnerID     uuid.UUID                     `json:"learnerId"`
	State         State                         `json:"state"`
	OfferedCases  []cases.PublicCase            `json:"offeredCases,omitempty"`
	Case          *cases.PublicCase             `json:"case,omitempty"`
	Transcript    transcript.Transcript         `json:"transcript"`
	AwaitingReply bool                          `json:"awaitingReply"`
	HintPending   bool                          `json:"hintPending"`
	Submitting    bool                          `json:"submitting"`
	Submission    *feedback.DiagnosisSubmission `json:"submission,omitempty"`
	Feedback      *feedback.TutorFeedback       `json:"feedback,omitempty"`
	Profile       *profile.UserProfile          `json:"profile,omitempty"`
	LastError     string                        `json:"lastError,omitempty"`
	UpdatedAt     time.Time                     `json:"updatedAt"`
}

// view must be called with s.mu held.
func (s *Session) view() View {
	v := View{
		ID:            s.ID,
		LearnerID:     s.LearnerID,
		State:         s.State,
		Transcript:    s.Transcript.Clone(),
		AwaitingReply: s.AwaitingReply,
		HintPending:   s.HintPending,
		Submitting:    s.Submitting,
		LastError:     s.LastError,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.State == StateCaseBrowsing {
		v.OfferedCases = cases.PublicList(s.Offered)
	}
	if s.Case != nil {
		pc := s.Case.Public()
		v.Case = &pc
	}
	if s.Submission != nil {
		sub := *s.Submission
		v.Submission = &sub
	}
	if s.Feedback != nil && s.State == StateFeedbackShown {
		fb := *s.Feedback
		v.Feedback = &fb
	}
	if s.Profile != nil {
		p := *s.Profile
		v.Profile = &p
	}
	return v
}

// ActionResult is returned by every session operation. Accepted is false
// when the action was ignored because another one was still running.
type ActionResult struct {
	Session  View   `json:"session"`
	Accepted bool   `json:"accepted"`
	Notice   string `json:"notice,omitempty"`
}

// Attempt is the archived record of a finished consultation. The correct
// diagnosis is kept in the archive but never serialized.
type Attempt struct {
	ID               uuid.UUID                    `json:"id"`
	LearnerID        uuid.UUID                    `json:"learnerId"`
	CaseID           string                       `json:"caseId"`
	CaseTitle        string                       `json:"caseTitle"`
	Specialty        string                       `json:"specialty"`
	CorrectDiagnosis string                       `json:"-"`
	Transcript       transcript.Transcript        `json:"transcript"`
	Submission       feedback.DiagnosisSubmission `json:"submission"`
	Feedback         feedback.TutorFeedback       `json:"feedback"`
	CompletedAt      time.Time                    `json:"completedAt"`
}
