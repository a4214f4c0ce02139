package profile

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(newTestService(t)))
	return r
}

func TestCreateAndGetLearner(t *testing.T) {
	r := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/learners", strings.NewReader(`{"name":"Ada"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created UserProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Ada", created.Name)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/learners/"+created.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rank":"Medical Student"`)
}

func TestLearnerErrors(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodPost, "/learners", `{"name":""}`, http.StatusBadRequest},
		{http.MethodPost, "/learners", `{"nom":"Ada"}`, http.StatusBadRequest},
		{http.MethodGet, "/learners/not-a-uuid", "", http.StatusBadRequest},
		{http.MethodGet, "/learners/" + uuid.NewString(), "", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
		assert.Equal(t, tt.status, rec.Code, "%s %s", tt.method, tt.path)
	}
}
