package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/david/tax-radar/internal/logger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T, password string) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	s, err := NewService("test-secret", string(hash), logger.Discard())
	require.NoError(t, err)
	return s
}

func TestLoginAndVerify(t *testing.T) {
	s := newTestService(t, "s3cret")

	token, exp, err := s.Login("s3cret")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(12*time.Hour), exp, time.Minute)

	sub, err := s.Verify(token)
	require.NoError(t, err)
	require.Equal(t, AdminSubject, sub)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestService(t, "s3cret")

	_, _, err := s.Login("guess")
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLogin_Disabled(t *testing.T) {
	s, err := NewService("", "", nil)
	require.NoError(t, err)

	_, _, err = s.Login("anything")
	require.ErrorIs(t, err, ErrLoginDisabled)
}

func TestNewService_RejectsBadHash(t *testing.T) {
	_, err := NewService("x", "plaintext", nil)
	require.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	s := newTestService(t, "pw")
	s.now = func() time.Time { return time.Now().Add(-13 * time.Hour) }
	token, _, err := s.Login("pw")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_OtherSecret(t *testing.T) {
	a := newTestService(t, "pw")
	token, _, err := a.Login("pw")
	require.NoError(t, err)

	b, err := NewService("different", "", nil)
	require.NoError(t, err)
	_, err = b.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pw")))

	_, err = HashPassword("")
	require.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	s := newTestService(t, "pw")
	token, _, err := s.Login("pw")
	require.NoError(t, err)

	e := echo.New()
	handler := s.Middleware(func(c echo.Context) error {
		sub, err := SubjectFromContext(c)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, sub)
	})

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			err := handler(e.NewContext(req, rec))
			if tt.code == http.StatusOK {
				require.NoError(t, err)
				require.Equal(t, AdminSubject, rec.Body.String())
				return
			}
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			require.Equal(t, tt.code, he.Code)
		})
	}
}
