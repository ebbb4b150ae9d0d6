package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelf/bookshelf/internal/auth"
	"github.com/bookshelf/bookshelf/internal/metrics"
	"github.com/bookshelf/bookshelf/internal/model"
	"github.com/bookshelf/bookshelf/internal/testutil"
)

func TestAuth(t *testing.T) {
	tokens := testutil.NewTokenManager(t)
	valid, _, err := tokens.Issue(7, "ada@example.com", "Ada Lovelace")
	require.NoError(t, err)

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantOutcome string
		wantReason  string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, metrics.OutcomeValid, ""},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, metrics.OutcomeValid, ""},
		{"missing header", "", http.StatusUnauthorized, metrics.OutcomeMissing, "missing_token"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, metrics.OutcomeMissing, "missing_token"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, metrics.OutcomeInvalid, "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			recorder := metrics.NewInMemory()

			var seen *model.Identity
			handler := Auth(AuthConfig{
				Logger:  slog.New(slog.NewJSONHandler(&logs, nil)),
				Tokens:  tokens,
				Metrics: recorder,
			})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = auth.IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, uint64(1), recorder.Snapshot().TokenValidations[tt.wantOutcome])

			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, int64(7), seen.SubjectID)
				assert.Equal(t, "ada@example.com", seen.Email)
				return
			}

			assert.Nil(t, seen)
			assert.JSONEq(t, `{"error":"Invalid or missing bearer token","code":"UNAUTHORIZED"}`, rec.Body.String())
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			assert.Contains(t, logs.String(), `"reason":"`+tt.wantReason+`"`)
			assert.NotContains(t, logs.String(), valid)
		})
	}
}

type stubValidator func(string) (*model.Identity, error)

func (f stubValidator) Validate(token string) (*model.Identity, error) {
	return f(token)
}

func TestAuth_NoIdentityReason(t *testing.T) {
	var logs bytes.Buffer
	handler := Auth(AuthConfig{
		Logger: slog.New(slog.NewJSONHandler(&logs, nil)),
		Tokens: stubValidator(func(string) (*model.Identity, error) {
			return nil, auth.ErrNoIdentity
		}),
	})(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, logs.String(), `"reason":"no_identity"`)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"BEARER abc", "abc"},
		{"Bearer", ""},
		{"Basic dXNlcjpwYXNz", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, extractBearerToken(req), tt.header)
	}
}
