package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelf/bookshelf/internal/handler/dto"
	"github.com/bookshelf/bookshelf/internal/testutil"
)

// TestLoginThenCreateBook walks the main client flow: register, fail and
// then succeed at login, and add a book while trying to spoof its owner.
func TestLoginThenCreateBook(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName": "Ada",
		"lastName":  "Reader",
		"email":     "a@x.com",
		"password":  "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decode[dto.AuthResponse](t, rec)
	t1 := registered.Token
	require.NotEmpty(t, t1)
	require.Equal(t, int64(1), registered.User.ID)

	rec = srv.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "a@x.com",
		"password": "wrong",
	})
	assertErrorCode(t, rec, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	assert.Equal(t, "Invalid email or password", decode[dto.ErrorResponse](t, rec).Error)

	rec = srv.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "A@X.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[dto.AuthResponse](t, rec)
	t2 := login.Token
	assert.NotEqual(t, t1, t2)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.Equal(t, int64(1), login.User.ID)

	rec = srv.do(http.MethodGet, "/api/auth/me", t2, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[dto.MeResponse](t, rec).ID)

	rec = srv.do(http.MethodPost, "/api/books", t2, map[string]any{
		"title":   "The Left Hand of Darkness",
		"author":  "Ursula K. Le Guin",
		"ownerId": 99,
		"userId":  99,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	book := decode[dto.BookResponse](t, rec)
	assert.Equal(t, int64(1), book.OwnerID)

	stored, err := srv.store.FindBookByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.OwnerID)
}

func TestRegister(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName": "Grace",
		"lastName":  "Hopper",
		"email":     "grace@example.com",
		"password":  testutil.TestPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "Hash")

	resp := decode[dto.AuthResponse](t, rec)
	assert.Equal(t, "grace@example.com", resp.User.Email)
	assert.False(t, resp.ExpiresAt.IsZero())

	t.Run("duplicate email", func(t *testing.T) {
		rec := srv.do(http.MethodPost, "/api/auth/register", "", map[string]string{
			"firstName": "Other",
			"lastName":  "Person",
			"email":     "Grace@Example.com",
			"password":  testutil.TestPassword,
		})
		assertErrorCode(t, rec, http.StatusConflict, "EMAIL_TAKEN")
	})

	t.Run("short password", func(t *testing.T) {
		rec := srv.do(http.MethodPost, "/api/auth/register", "", map[string]string{
			"firstName": "Short",
			"lastName":  "Secret",
			"email":     "short@example.com",
			"password":  "12345",
		})
		assertErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
		assert.Equal(t, "must be at least 6", decode[dto.ErrorResponse](t, rec).Details["password"])
	})

	t.Run("invalid email", func(t *testing.T) {
		rec := srv.do(http.MethodPost, "/api/auth/register", "", map[string]string{
			"firstName": "No",
			"lastName":  "Mail",
			"email":     "not-an-email",
			"password":  testutil.TestPassword,
		})
		assertErrorCode(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
	})
}

func TestLogin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	srv := newTestServer(t)
	srv.register("Ada", "ada@example.com")

	unknown := srv.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": testutil.TestPassword,
	})
	wrong := srv.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "not-the-password",
	})

	assert.Equal(t, wrong.Code, unknown.Code)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
}

func TestMe(t *testing.T) {
	srv := newTestServer(t)
	token, id := srv.register("Ada", "ada@example.com")

	rec := srv.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	me := decode[dto.MeResponse](t, rec)
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "ada@example.com", me.Email)
	assert.Equal(t, "Ada Reader", me.Name)
	assert.False(t, me.ExpiresAt.IsZero())
}
