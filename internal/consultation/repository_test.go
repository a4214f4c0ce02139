package consultation

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medisim/internal/config"
	"medisim/internal/feedback"
	"medisim/internal/platform/database"
	"medisim/internal/transcript"
)

func sampleAttempt(learnerID uuid.UUID, at time.Time) *Attempt {
	var tr transcript.Transcript
	tr = tr.Append(transcript.NewMessage(transcript.RolePatient, openingLine))
	tr = tr.Append(transcript.NewMessage(transcript.RoleLearner, "Any rash?"))
	return &Attempt{
		ID:               uuid.New(),
		LearnerID:        learnerID,
		CaseID:           "case-002",
		CaseTitle:        "Fever and headache",
		Specialty:        "Infectious diseases",
		CorrectDiagnosis: "Bacterial meningitis",
		Transcript:       tr,
		Submission:       feedback.DiagnosisSubmission{MainDiagnosis: "Meningitis", Reasoning: "Rash and fever"},
		Feedback:         feedback.TutorFeedback{Score: 90, Strengths: []string{"Asked about rash"}, Weaknesses: []string{}, MissedQuestions: []string{}, FinalComment: "Good.", ExperienceGain: 225},
		CompletedAt:      at,
	}
}

func TestSQLSaveAttempt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(&database.DB{DB: db, Driver: database.DriverPostgres})

	a := sampleAttempt(uuid.New(), time.Now())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attempts")).
		WithArgs(a.ID.String(), a.LearnerID.String(), "case-002", "Fever and headache", "Infectious diseases",
			"Bacterial meningitis", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 90, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLListAttemptsDecodesJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(&database.DB{DB: db, Driver: database.DriverPostgres})

	learnerID := uuid.New()
	id := uuid.New()
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "learner_id", "case_id", "case_title", "specialty", "diagnosis", "transcript", "submission", "feedback", "completed_at"}).
		AddRow(id.String(), learnerID.String(), "case-003", "Right lower abdominal pain", "General surgery", "Acute appendicitis",
			`[{"id":"`+uuid.NewString()+`","role":"patient","text":"Hello doctor.","timestamp":"2026-01-02T10:00:00Z"}]`,
			`{"mainDiagnosis":"Appendicitis","reasoning":"McBurney"}`,
			`{"score":75,"strengths":[],"weaknesses":[],"missedQuestions":[],"finalComment":"ok","experienceGain":188,"expertOpinionUsed":false,"fallback":false}`,
			now)

	mock.ExpectQuery("SELECT (.+) FROM attempts WHERE learner_id = \\$1").
		WithArgs(learnerID.String(), 5).
		WillReturnRows(rows)

	list, err := repo.ListByLearner(context.Background(), learnerID, 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, 75, list[0].Feedback.Score)
	assert.Equal(t, "Appendicitis", list[0].Submission.MainDiagnosis)
	require.Len(t, list[0].Transcript, 1)
	assert.Equal(t, transcript.RolePatient, list[0].Transcript[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteAttemptRoundTrip(t *testing.T) {
	logger, _ := test.NewNullLogger()
	db, err := database.Open(context.Background(), config.StorageConfig{
		Driver:         database.DriverSQLite,
		DSN:            filepath.Join(t.TempDir(), "attempts.db"),
		ConnectRetries: 1,
	}, logger)
	require.NoError(t, err)
	defer db.Close()

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "sqlite", "000001_init.up.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	learnerID := uuid.New()
	now := time.Now().UTC()
	_, err = db.Exec(db.Rebind(`INSERT INTO learners (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`),
		learnerID, "Ada", now, now)
	require.NoError(t, err)

	repo := NewRepository(db)
	ctx := context.Background()
	older := sampleAttempt(learnerID, now.Add(-time.Hour))
	newer := sampleAttempt(learnerID, now)
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))
	require.NoError(t, repo.Save(ctx, newer), "saving twice is a no-op")

	list, err := repo.ListByLearner(ctx, learnerID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
	assert.Equal(t, newer.Transcript[1].Text, list[0].Transcript[1].Text)
	assert.Equal(t, 90, list[0].Feedback.Score)
}

func TestMemoryRepositoryOrdersAndLimits(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	learnerID := uuid.New()

	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, sampleAttempt(learnerID, base.Add(time.Duration(i)*time.Minute))))
	}

	list, err := repo.ListByLearner(ctx, learnerID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].CompletedAt.After(list[1].CompletedAt))

	empty, err := repo.ListByLearner(ctx, uuid.New(), 2)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
