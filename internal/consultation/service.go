package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"medisim/internal/cases"
	"medisim/internal/feedback"
	"medisim/internal/platform/metrics"
	"medisim/internal/profile"
	"medisim/internal/transcript"
	"medisim/pkg/progression"
)

const (
	hintWindow  = 6
	genericHint = "Think about which key symptom you have not explored yet, and ask about its onset and progression."
)

// Persona plays the patient and the supervising teacher.
type Persona interface {
	Reply(ctx context.Context, c cases.ClinicalCase, history transcript.Transcript, message string) (string, error)
	Hint(ctx context.Context, tail transcript.Transcript, correctDiagnosis string) (string, error)
}

type CaseSource interface {
	ForRank(ctx context.Context, rank progression.Rank) ([]cases.ClinicalCase, error)
}

type Profiles interface {
	Read(ctx context.Context, id uuid.UUID) (*profile.UserProfile, error)
	ApplyCaseResult(ctx context.Context, id uuid.UUID, score int) (*profile.UserProfile, error)
}

type Service interface {
	Start(ctx context.Context, learnerID uuid.UUID) (*ActionResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ActionResult, error)
	SelectDestination(ctx context.Context, id uuid.UUID, dest Destination) (*ActionResult, error)
	ChooseCase(ctx context.Context, id uuid.UUID, caseID string) (*ActionResult, error)
	SendMessage(ctx context.Context, id uuid.UUID, text string) (*ActionResult, error)
	RequestHint(ctx context.Context, id uuid.UUID) (*ActionResult, error)
	SubmitDiagnosis(ctx context.Context, id uuid.UUID, sub feedback.DiagnosisSubmission) (*ActionResult, error)
	Acknowledge(ctx context.Context, id uuid.UUID) (*ActionResult, error)
	Back(ctx context.Context, id uuid.UUID) (*ActionResult, error)
	LastAttempt(ctx context.Context, id uuid.UUID) (*Attempt, error)
	History(ctx context.Context, learnerID uuid.UUID, limit int) ([]Attempt, error)
}

type Options struct {
	ReplyTimeout time.Duration
	HintTimeout  time.Duration
}

type service struct {
	store       *Store
	repo        Repository
	persona     Persona
	cases       CaseSource
	profiles    Profiles
	synthesizer feedback.Synthesizer
	opts        Options
	logger      logrus.FieldLogger
	metrics     *metrics.Metrics
}

func NewService(
	store *Store,
	repo Repository,
	persona Persona,
	caseSource CaseSource,
	profiles Profiles,
	synthesizer feedback.Synthesizer,
	opts Options,
	logger logrus.FieldLogger,
	m *metrics.Metrics,
) Service {
	if opts.ReplyTimeout <= 0 {
		opts.ReplyTimeout = 20 * time.Second
	}
	if opts.HintTimeout <= 0 {
		opts.HintTimeout = 10 * time.Second
	}
	return &service{
		store:       store,
		repo:        repo,
		persona:     persona,
		cases:       caseSource,
		profiles:    profiles,
		synthesizer: synthesizer,
		opts:        opts,
		logger:      logger,
		metrics:     m,
	}
}

func result(s *Session, accepted bool, notice string) *ActionResult {
	return &ActionResult{Session: s.view(), Accepted: accepted, Notice: notice}
}

func (s *service) Start(ctx context.Context, learnerID uuid.UUID) (*ActionResult, error) {
	p, err := s.profiles.Read(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &Session{
		ID:        uuid.New(),
		LearnerID: learnerID,
		State:     StateHome,
		Profile:   p,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.store.Put(sess)
	s.logger.WithFields(logrus.Fields{"session_id": sess.ID, "learner_id": learnerID}).Info("Session started")

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return result(sess, true, ""), nil
}

func (s *service) Get(_ context.Context, id uuid.UUID) (*ActionResult, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return result(sess, true, ""), nil
}

func (s *service) SelectDestination(ctx context.Context, id uuid.UUID, dest Destination) (*ActionResult, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.State != StateHome {
		sess.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if sess.busy() {
		defer sess.mu.Unlock()
		return result(sess, false, "cases are already loading"), nil
	}

	switch dest {
	case DestinationQuiz:
		sess.State = StateQuiz
	case DestinationCourses:
		sess.State = StateCourses
	case DestinationCases:
		sess.LoadingCases = true
		sess.LastError = ""
		sess.touch()
		learnerID := sess.LearnerID
		sess.mu.Unlock()
		return s.loadCases(ctx, sess, learnerID)
	default:
		sess.mu.Unlock()
		return nil, ErrUnknownDestination
	}

	sess.touch()
	defer sess.mu.Unlock()
	return result(sess, true, ""), nil
}

func (s *service) loadCases(ctx context.Context, sess *Session, learnerID uuid.UUID) (*ActionResult, error) {
	p, err := s.profiles.Read(ctx, learnerID)
	var list []cases.ClinicalCase
	if err == nil {
		list, err = s.cases.ForRank(ctx, progression.RankFor(p.ExperiencePoints))
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.LoadingCases = false
	sess.touch()

	if err != nil {
		s.logger.WithError(err).WithField("session_id", sess.ID).Warn("Loading cases failed")
		sess.LastError = "Could not load cases, please try again."
		return result(sess, true, sess.LastError), nil
	}

	sess.Profile = p
	sess.Offered = list
	sess.State = StateCaseBrowsing
	return result(sess, true, ""), nil
}

func (s *service) ChooseCase(_ context.Context, id uuid.UUID, caseID string) (*ActionResult, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.State != StateCaseBrowsing {
		return nil, ErrInvalidTransition
	}

	var chosen *cases.ClinicalCase
	for i := range sess.Offered {
		if sess.Offered[i].ID == caseID {
			c := sess.Offered[i]
			chosen = &c
			break
		}
	}
	if chosen == nil {
		return nil, ErrUnknownCase
	}

	sess.attempt++
	sess.Case = chosen
	sess.Transcript = transcript.Transcript{}.Append(transcript.NewMessage(transcript.RolePatient, openingLine))
	sess.Submission = nil
	sess.Feedback = nil
	sess.LastError = ""
	sess.State = StateConsulting
	sess.touch()

	s.logger.WithFields(logrus.Fields{"session_id": sess.ID, "case_id": chosen.ID}).Info("Consultation started")
	return result(sess, true, ""), nil
}

func (s *service) SendMessage(ctx context.Context, id uuid.UUID, text string) (*ActionResult, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)

	sess.mu.Lock()
	if sess.State != StateConsulting {
		sess.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if text == "" {
		sess.mu.Unlock()
		return nil, ErrEmptyMessage
	}
	if sess.busy() {
		defer sess.mu.Unlock()
		return result(sess, false, "the previous action is still running"), nil
	}

	history := sess.Transcript.Clone()
	sess.Transcript = sess.Transcript.Append(transcript.NewMessage(transcript.RoleLearner, text))
	sess.AwaitingReply = true
	sess.touch()
	token := sess.attempt
	c := *sess.Case
	sess.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.opts.ReplyTimeout)
	reply, err := s.persona.Reply(callCtx, c, history, text)
	cancel()
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply")
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.attempt != token {
		return result(sess, true, "the consultation was left before the patient answered"), nil
	}
	sess.AwaitingReply = false
	sess.touch()

	if err != nil {
		s.logger.WithError(err).WithField("session_id", sess.ID).Warn("Patient reply failed")
		s.metrics.Fallback("persona")
		sess.Transcript = sess.Transcript.Append(transcript.NewMessage(transcript.RoleSystem,
			"The patient could not answer right now. Please ask your question again."))
		return result(sess, true, "reply failed"), nil
	}

	sess.Transcript = sess.Transcript.Append(transcript.NewMessage(transcript.RolePatient, strings.TrimSpace(reply)))
	return result(sess, true, ""), nil
}

func (s *service) RequestHint(ctx context.Context, id uuid.UUID) (*ActionResult, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.State != StateConsulting {
		sess.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if sess.busy() {
		defer sess.mu.Unlock()
		return result(sess, false, "the previous action is still running"), nil
	}

	sess.HintPending = true
	sess.touch()
	token := sess.attempt
	tail := sess.Transcript.Dialogue().Tail(hintWindow)
	diagnosis := sess.Case.CorrectDiagnosis
	sess.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.opts.HintTimeout)
	hint, err := s.persona.Hint(callCtx, tail, diagnosis)
	cancel()
	if err != nil {
		s.logger.WithError(err).WithField("session_id", id).Warn("Hint failed, using generic hint")
		s.metrics.Fallback("hint")
	}
	hint = SafeHint(hint, err, diagnosis)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.attempt != token {
		return result(sess, true, "the consultation was left before the hint arrived"), nil
	}
	sess.HintPending = false
	sess.Transcript = sess.Transcript.Append(transcript.NewMessage(transcript.RoleSystem, "Hint: "+hint))
	sess.touch()
	return result(sess, true, ""), nil
}

// SafeHint returns hint unless it is empty, failed, or gives the diagnosis
// away, in which case a generic nudge is used.
func SafeHint(hint string, err error, diagnosis string) string {
	hint = strings.TrimSpace(hint)
	if err != nil || hint == "" {
		return genericHint
	}
	if d := strings.TrimSpace(diagnosis); d != "" && strings.Contains(strings.ToLower(hint), strings.ToLower(d)) {
		return genericHint
	}
	return hint
}

func (s *service) SubmitDiagnosis(ctx context.Context, id uuid.UUID, sub feedback.DiagnosisSubmission) (*ActionResult, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.Submitting || sess.State == StateAwaitingFeedback {
		defer sess.mu.Unlock()
		return result(sess, false, "the diagnosis is already being evaluated"), nil
	}
	if sess.State != StateConsulting {
		sess.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if err := sub.Validate(); err != nil {
		sess.mu.Unlock()
		return nil, ErrInvalidSubmission
	}
	if sess.busy() {
		defer sess.mu.Unlock()
		return result(sess, false, "the previous action is still running"), nil
	}

	sub = sub.Normalize()
	sess.Submission = &sub
	sess.Submitting = true
	sess.LastError = ""
	sess.State = StateAwaitingFeedback
	sess.touch()
	c := *sess.Case
	learnerID := sess.LearnerID
	history := sess.Transcript.Clone()
	sess.mu.Unlock()

	fb := s.synthesizer.Synthesize(ctx, feedback.Input{
		CaseTitle:        c.Title,
		Specialty:        c.Specialty,
		CorrectDiagnosis: c.CorrectDiagnosis,
		Transcript:       history,
		Submission:       sub,
	})

	// Once the evaluation is in, the result is recorded even if the client
	// has gone away.
	persistCtx := context.WithoutCancel(ctx)
	p, applyErr := s.profiles.ApplyCaseResult(persistCtx, learnerID, fb.Score)

	sess.mu.Lock()
	sess.Submitting = false
	sess.touch()
	if applyErr != nil {
		sess.State = StateConsulting
		sess.LastError = "Your result could not be saved. Please submit again."
		res := result(sess, true, sess.LastError)
		sess.mu.Unlock()
		s.logger.WithError(applyErr).WithField("session_id", id).Error("Saving case result failed")
		return res, fmt.Errorf("saving case result: %w", applyErr)
	}

	sess.Feedback = &fb
	sess.Profile = p
	sess.State = StateFeedbackShown
	res := result(sess, true, "")
	attempt := &Attempt{
		ID:               uuid.New(),
		LearnerID:        learnerID,
		CaseID:           c.ID,
		CaseTitle:        c.Title,
		Specialty:        c.Specialty,
		CorrectDiagnosis: c.CorrectDiagnosis,
		Transcript:       history,
		Submission:       sub,
		Feedback:         fb,
		CompletedAt:      time.Now().UTC(),
	}
	sess.mu.Unlock()

	log := s.logger.WithFields(logrus.Fields{
		"session_id": id,
		"case_id":    c.ID,
		"score":      fb.Score,
		"fallback":   fb.Fallback,
	})
	log.Info("Consultation evaluated")

	if err := s.repo.Save(persistCtx, attempt); err != nil {
		log.WithError(err).Warn("Archiving attempt failed")
	}
	return res, nil
}

func (s *service) Acknowledge(_ context.Context, id uuid.UUID) (*ActionResult, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.State != StateFeedbackShown {
		return nil, ErrInvalidTransition
	}
	sess.resetConsultation()
	sess.Offered = nil
	sess.State = StateHome
	sess.touch()
	return result(sess, true, ""), nil
}

func (s *service) Back(_ context.Context, id uuid.UUID) (*ActionResult, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	switch sess.State {
	case StateQuiz, StateCourses, StateCaseBrowsing:
		sess.Offered = nil
		sess.State = StateHome
	case StateConsulting:
		s.logger.WithFields(logrus.Fields{"session_id": id, "case_id": sess.Case.ID}).Info("Consultation abandoned")
		sess.resetConsultation()
		sess.State = StateCaseBrowsing
	default:
		return nil, ErrInvalidTransition
	}
	sess.LastError = ""
	sess.touch()
	return result(sess, true, ""), nil
}

// resetConsultation clears everything tied to the current case and bumps
// the attempt token so pending calls are discarded.
func (sess *Session) resetConsultation() {
	sess.attempt++
	sess.Case = nil
	sess.Transcript = nil
	sess.Submission = nil
	sess.Feedback = nil
	sess.AwaitingReply = false
	sess.HintPending = false
}

// LastAttempt returns the finished attempt shown in a session.
func (s *service) LastAttempt(_ context.Context, id uuid.UUID) (*Attempt, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.State != StateFeedbackShown || sess.Feedback == nil || sess.Case == nil || sess.Submission == nil {
		return nil, ErrNoFeedback
	}
	return &Attempt{
		LearnerID:        sess.LearnerID,
		CaseID:           sess.Case.ID,
		CaseTitle:        sess.Case.Title,
		Specialty:        sess.Case.Specialty,
		CorrectDiagnosis: sess.Case.CorrectDiagnosis,
		Transcript:       sess.Transcript.Clone(),
		Submission:       *sess.Submission,
		Feedback:         *sess.Feedback,
		CompletedAt:      sess.UpdatedAt,
	}, nil
}

func (s *service) History(ctx context.Context, learnerID uuid.UUID, limit int) ([]Attempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if _, err := s.profiles.Read(ctx, learnerID); err != nil {
		return nil, err
	}
	return s.repo.ListByLearner(ctx, learnerID, limit)
}
