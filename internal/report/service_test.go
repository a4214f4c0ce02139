package report

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medisim/internal/consultation"
	"medisim/internal/feedback"
)

var fontCandidates = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

func availableFont(t *testing.T) string {
	for _, p := range fontCandidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Skip("DejaVuSans.ttf is not installed")
	return ""
}

func attempt() *consultation.Attempt {
	return &consultation.Attempt{
		LearnerID:        uuid.New(),
		CaseID:           "case-002",
		CaseTitle:        "Fever and headache",
		Specialty:        "Infectious diseases",
		CorrectDiagnosis: "Bacterial meningitis",
		Submission:       feedback.DiagnosisSubmission{MainDiagnosis: "Migraine", Reasoning: "Headache with photophobia"},
		Feedback: feedback.TutorFeedback{
			Score:           35,
			Strengths:       []string{"Polite introduction"},
			Weaknesses:      []string{"Did not examine the neck", "Did not ask about a rash"},
			MissedQuestions: []string{},
			FinalComment:    "Fever with headache must prompt a search for meningeal signs.",
			ExperienceGain:  88,
		},
		CompletedAt: time.Now(),
	}
}

func TestRenderProducesPDF(t *testing.T) {
	font := availableFont(t)
	logger, _ := test.NewNullLogger()
	svc := NewService([]string{"/nonexistent/font.ttf", font}, logger)

	out, err := svc.Render(context.Background(), attempt())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderLongFeedbackPaginates(t *testing.T) {
	font := availableFont(t)
	logger, _ := test.NewNullLogger()
	svc := NewService([]string{font}, logger)

	a := attempt()
	for i := 0; i < 120; i++ {
		a.Feedback.Weaknesses = append(a.Feedback.Weaknesses, "Ask about onset, duration and progression of every symptom.")
	}
	out, err := svc.Render(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestSummaryOmitsExpectedDiagnosis(t *testing.T) {
	a := attempt()
	a.Feedback.Fallback = true

	lines := summary(a)
	require.NotEmpty(t, lines)
	assert.Contains(t, lines, "Your diagnosis: Migraine")
	for _, l := range lines {
		assert.NotContains(t, l, a.CorrectDiagnosis)
	}
}

func TestRenderWithoutFont(t *testing.T) {
	logger, hook := test.NewNullLogger()
	svc := NewService([]string{"/nonexistent/font.ttf"}, logger)

	_, err := svc.Render(context.Background(), attempt())
	assert.ErrorIs(t, err, ErrNoFont)
	require.NotNil(t, hook.LastEntry())
}
