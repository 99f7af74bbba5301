package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/novelstudio/internal/auth"
	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/testutil"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	tok, err := auth.GenerateToken("u1", secret, time.Hour, time.Now())
	require.NoError(t, err)

	id, err := auth.UserIDFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = auth.UserIDFromToken(tok, []byte("other"))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	expired, err := auth.GenerateToken("u1", secret, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = auth.UserIDFromToken(expired, secret)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewService(testutil.NewStore(t), "s3cret", time.Hour, nil)

	_, err := svc.Register(ctx, "a@example.com", "short")
	assert.True(t, common.IsValidation(err))

	sess, err := svc.Register(ctx, " A@Example.com ", "longenough")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", sess.User.Email)
	assert.Empty(t, sess.User.PasswordHash)

	_, err = svc.Register(ctx, "a@example.com", "longenough")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = svc.Login(ctx, "a@example.com", "wrongpassword")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "longenough")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	login, err := svc.Login(ctx, "a@example.com", "longenough")
	require.NoError(t, err)
	id, err := svc.Verify(login.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, id)
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := auth.NewService(testutil.NewStore(t), "s3cret", time.Hour, nil)

	r := gin.New()
	r.GET("/me", svc.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, auth.UserID(c))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := auth.GenerateToken("u9", []byte("s3cret"), time.Hour, time.Now())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u9", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me?token="+tok, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
