package membership

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreate(t *testing.T) {
	repo := NewMemoryRepository()

	m, created, err := repo.FindOrCreate(" A001 ", "secret", base)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "A001", m.StudentID)
	assert.True(t, m.HasCredential())

	again, created, err := repo.FindOrCreate("A001", "", base)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, m, again)

	_, _, err = repo.FindOrCreate("  ", "", base)
	assert.ErrorIs(t, err, ErrEmptyStudentID)

	_, ok := repo.Get("B002")
	assert.False(t, ok)
}

func TestFindOrCreateIsSafeUnderConcurrency(t *testing.T) {
	repo := NewMemoryRepository()
	var wg sync.WaitGroup
	results := make([]*Member, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, _, err := repo.FindOrCreate("A001", "", base)
			assert.NoError(t, err)
			results[i] = m
		}(i)
	}
	wg.Wait()

	for _, m := range results {
		assert.Same(t, results[0], m)
	}
}

func TestHashCredentialUsesFreshSalt(t *testing.T) {
	a, err := hashCredential("pw")
	require.NoError(t, err)
	b, err := hashCredential("pw")
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
	raw, err := base64.StdEncoding.DecodeString(a.PasswordHash)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestHandleStanding(t *testing.T) {
	repo := NewMemoryRepository()
	m, _, err := repo.FindOrCreate("A001", "", base)
	require.NoError(t, err)
	m.Lock()
	m.RecordViolation(base)
	m.Unlock()

	router := chi.NewRouter()
	router.Get("/members/{studentID}", NewHandler(repo).HandleStanding)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/members/A001", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"violations":1`)
	assert.Contains(t, rec.Body.String(), `"has_credential":false`)

	_, _, err = repo.FindOrCreate("B002", "secret", base)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/members/B002", nil))
	assert.Contains(t, rec.Body.String(), `"has_credential":true`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/members/nobody", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
