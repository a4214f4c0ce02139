package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medisim/internal/transcript"
)

type evaluatorFunc func(ctx context.Context, req EvaluationRequest) ([]byte, error)

func (f evaluatorFunc) Evaluate(ctx context.Context, req EvaluationRequest) ([]byte, error) {
	return f(ctx, req)
}

type advisorFunc func(ctx context.Context, conversation string) (string, error)

func (f advisorFunc) Advise(ctx context.Context, conversation string) (string, error) {
	return f(ctx, conversation)
}

const goodVerdict = `{"score":82,"strengths":["Asked about neck stiffness"],"weaknesses":[],"missedQuestions":["Travel history"],"finalComment":"Solid work."}`

func sampleInput() Input {
	var t transcript.Transcript
	t = t.Append(transcript.NewMessage(transcript.RolePatient, "Hello doctor."))
	t = t.Append(transcript.NewMessage(transcript.RoleLearner, "Does your neck hurt?"))
	t = t.Append(transcript.NewMessage(transcript.RoleSystem, "Hint: ask about rashes."))
	t = t.Append(transcript.NewMessage(transcript.RolePatient, "Yes, it is stiff."))
	return Input{
		CaseTitle:        "Fever and headache",
		Specialty:        "Infectious diseases",
		CorrectDiagnosis: "Bacterial meningitis",
		Transcript:       t,
		Submission:       DiagnosisSubmission{MainDiagnosis: " Meningitis ", Reasoning: "Fever and stiff neck"},
	}
}

func newSynth(e Evaluator, a Advisor, opts Options) Synthesizer {
	logger, _ := test.NewNullLogger()
	return NewSynthesizer(e, a, opts, logger, nil)
}

func TestSynthesizeSuccess(t *testing.T) {
	var got EvaluationRequest
	eval := evaluatorFunc(func(_ context.Context, req EvaluationRequest) ([]byte, error) {
		got = req
		return []byte(goodVerdict), nil
	})
	adv := advisorFunc(func(_ context.Context, conversation string) (string, error) {
		assert.NotContains(t, conversation, "Hint")
		return "Likely meningococcal meningitis.", nil
	})

	fb := newSynth(eval, adv, Options{}).Synthesize(context.Background(), sampleInput())

	assert.Equal(t, 82, fb.Score)
	assert.Equal(t, 205, fb.ExperienceGain)
	assert.True(t, fb.ExpertOpinionUsed)
	assert.False(t, fb.Fallback)
	assert.Equal(t, []string{}, fb.Weaknesses)

	assert.Len(t, got.Dialogue, 3, "system messages are not sent to the tutor")
	assert.Equal(t, "Meningitis", got.Submission.MainDiagnosis)
	assert.Equal(t, "Likely meningococcal meningitis.", got.ExpertOpinion)
}

func TestSynthesizeExpertUnavailable(t *testing.T) {
	var opinion string
	eval := evaluatorFunc(func(_ context.Context, req EvaluationRequest) ([]byte, error) {
		opinion = req.ExpertOpinion
		return []byte(goodVerdict), nil
	})
	adv := advisorFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	fb := newSynth(eval, adv, Options{ExpertTimeout: 10 * time.Millisecond}).Synthesize(context.Background(), sampleInput())

	assert.Equal(t, ExpertUnavailable, opinion)
	assert.False(t, fb.ExpertOpinionUsed)
	assert.Equal(t, 82, fb.Score)
}

func TestSynthesizeWithoutAdvisor(t *testing.T) {
	eval := evaluatorFunc(func(_ context.Context, req EvaluationRequest) ([]byte, error) {
		assert.Equal(t, ExpertUnavailable, req.ExpertOpinion)
		return []byte(goodVerdict), nil
	})

	fb := newSynth(eval, nil, Options{}).Synthesize(context.Background(), sampleInput())
	assert.False(t, fb.ExpertOpinionUsed)
}

func TestSynthesizeFallbacks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		err  error
	}{
		{"transport error", "", errors.New("503 from upstream")},
		{"not json", "I think the student did well", nil},
		{"unknown field", `{"score":70,"strengths":[],"weaknesses":[],"missedQuestions":[],"finalComment":"ok","grade":"B"}`, nil},
		{"missing field", `{"score":70,"strengths":[],"weaknesses":[],"finalComment":"ok"}`, nil},
		{"score too high", `{"score":140,"strengths":[],"weaknesses":[],"missedQuestions":[],"finalComment":"ok"}`, nil},
		{"negative score", `{"score":-1,"strengths":[],"weaknesses":[],"missedQuestions":[],"finalComment":"ok"}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := evaluatorFunc(func(context.Context, EvaluationRequest) ([]byte, error) {
				return []byte(tt.raw), tt.err
			})

			fb := newSynth(eval, nil, Options{}).Synthesize(context.Background(), sampleInput())

			assert.True(t, fb.Fallback)
			assert.Equal(t, NeutralScore, fb.Score)
			assert.Equal(t, 125, fb.ExperienceGain)
			require.NotEmpty(t, fb.Weaknesses)
			assert.Contains(t, fb.Weaknesses[0], "could not be completed")
			assert.NotEmpty(t, fb.FinalComment)
		})
	}
}

func TestSynthesizeEvaluationTimeout(t *testing.T) {
	eval := evaluatorFunc(func(ctx context.Context, _ EvaluationRequest) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	fb := newSynth(eval, nil, Options{EvaluateTimeout: 10 * time.Millisecond}).Synthesize(context.Background(), sampleInput())

	assert.True(t, fb.Fallback)
	assert.Contains(t, fb.Weaknesses[0], "did not answer in time")
}

func TestSubmissionValidate(t *testing.T) {
	assert.ErrorIs(t, DiagnosisSubmission{MainDiagnosis: "  ", Reasoning: "x"}.Validate(), ErrIncompleteSubmission)
	assert.ErrorIs(t, DiagnosisSubmission{MainDiagnosis: "Flu", Reasoning: "\n"}.Validate(), ErrIncompleteSubmission)
	assert.NoError(t, DiagnosisSubmission{MainDiagnosis: "Flu", Reasoning: "Fever"}.Validate())
}
