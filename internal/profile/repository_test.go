package profile

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medisim/internal/config"
	"medisim/internal/platform/database"
)

func setupMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(&database.DB{DB: db, Driver: database.DriverPostgres}), mock
}

var learnerColumns = []string{"id", "name", "experience", "cases_completed", "average_score"}

func TestSQLApplyCaseResultIsSingleStatement(t *testing.T) {
	repo, mock := setupMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("average_score = ((average_score * cases_completed) + $3) / (cases_completed + 1)")).
		WithArgs(id.String(), 88, 35.0, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(learnerColumns).AddRow(id.String(), "Ada", 588, 3, 55.0))

	p, err := repo.ApplyCaseResult(context.Background(), id, 35, 88)
	require.NoError(t, err)

	assert.Equal(t, id, p.ID)
	assert.Equal(t, 588, p.ExperiencePoints)
	assert.Equal(t, "Extern", p.Rank)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 3, p.CasesCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAddExperience(t *testing.T) {
	repo, mock := setupMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("experience = experience + $2")).
		WithArgs(id.String(), 100, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(learnerColumns).AddRow(id.String(), "Ada", 100, 0, 0.0))

	p, err := repo.AddExperience(context.Background(), id, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, p.ExperiencePoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLGetNotFound(t *testing.T) {
	repo, mock := setupMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM learners WHERE id = \\$1").
		WithArgs(id.String()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLUpdateMissingLearner(t *testing.T) {
	repo, mock := setupMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("UPDATE learners SET").
		WillReturnRows(sqlmock.NewRows(learnerColumns))

	_, err := repo.AddExperience(context.Background(), id, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func openSQLite(t *testing.T) *database.DB {
	t.Helper()
	logger, _ := test.NewNullLogger()
	db, err := database.Open(context.Background(), config.StorageConfig{
		Driver:         database.DriverSQLite,
		DSN:            filepath.Join(t.TempDir(), "profile.db"),
		ConnectRetries: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "sqlite", "000001_init.up.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return db
}

func TestSQLiteRunningMeanIsOrderIndependent(t *testing.T) {
	db := openSQLite(t)
	repo := NewRepository(db)
	ctx := context.Background()

	scores := []int{80, 20, 65, 100, 0}
	run := func(order []int) *UserProfile {
		p := &UserProfile{ID: uuid.New(), Name: "Ada"}
		require.NoError(t, repo.Create(ctx, p))
		var last *UserProfile
		for _, i := range order {
			var err error
			last, err = repo.ApplyCaseResult(ctx, p.ID, scores[i], 10)
			require.NoError(t, err)
		}
		return last
	}

	a := run([]int{0, 1, 2, 3, 4})
	b := run([]int{4, 2, 0, 3, 1})

	assert.InDelta(t, 53.0, a.AverageScore, 1e-9)
	assert.InDelta(t, a.AverageScore, b.AverageScore, 1e-9)
	assert.Equal(t, 5, b.CasesCompleted)
	assert.Equal(t, 50, b.ExperiencePoints)
}

func TestSQLiteConcurrentRewardsAreNotLost(t *testing.T) {
	db := openSQLite(t)
	repo := NewRepository(db)
	ctx := context.Background()

	p := &UserProfile{ID: uuid.New(), Name: "Ada"}
	require.NoError(t, repo.Create(ctx, p))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := repo.AddExperience(ctx, p.ID, 100)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := repo.ApplyCaseResult(ctx, p.ID, 50, 125)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 20*100+20*125, got.ExperiencePoints)
	assert.Equal(t, 20, got.CasesCompleted)
	assert.InDelta(t, 50.0, got.AverageScore, 1e-9)
}
