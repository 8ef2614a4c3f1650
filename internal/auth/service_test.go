package auth_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-perhiasan/internal/auth"
	"github.com/noah-isme/backend-perhiasan/internal/common"
)

const adminPassword = "emas-24-karat"

var (
	hashOnce sync.Once
	hash     string
)

func adminHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		h, err := argon2id.CreateHash(adminPassword, &argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
		require.NoError(t, err)
		hash = h
	})
	return hash
}

func newService(t *testing.T, now *time.Time) *auth.Service {
	t.Helper()
	svc, err := auth.NewService(auth.Config{
		AdminEmail:   "Owner@Example.com",
		PasswordHash: adminHash(t),
		Secret:       strings.Repeat("k", 32),
		SessionTTL:   time.Hour,
	})
	require.NoError(t, err)
	if now != nil {
		svc.WithNow(func() time.Time { return *now })
	}
	return svc
}

func TestLoginIssuesParsableSession(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := newService(t, &now)

	session, err := svc.Login(context.Background(), " owner@example.com ", adminPassword)
	require.NoError(t, err)
	require.Equal(t, "owner@example.com", session.Email)
	require.Equal(t, now.Add(time.Hour), session.ExpiresAt)

	email, err := svc.ParseSession(session.Token)
	require.NoError(t, err)
	require.Equal(t, "owner@example.com", email)

	now = now.Add(2 * time.Hour)
	_, err = svc.ParseSession(session.Token)
	require.Error(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newService(t, nil)
	for name, creds := range map[string][2]string{
		"wrong password": {"owner@example.com", "perak"},
		"wrong email":    {"intruder@example.com", adminPassword},
		"empty":          {"", ""},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), creds[0], creds[1])
			var appErr *common.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
			require.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
		})
	}
}

func TestLoginDisabledWithoutHash(t *testing.T) {
	svc, err := auth.NewService(auth.Config{AdminEmail: "owner@example.com", Secret: strings.Repeat("k", 32)})
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), "owner@example.com", adminPassword)
	require.Error(t, err)
}

func TestParseSessionRejectsForeignTokens(t *testing.T) {
	svc := newService(t, nil)
	other, err := auth.NewService(auth.Config{
		AdminEmail:   "owner@example.com",
		PasswordHash: adminHash(t),
		Secret:       strings.Repeat("x", 32),
	})
	require.NoError(t, err)
	session, err := other.Login(context.Background(), "owner@example.com", adminPassword)
	require.NoError(t, err)

	_, err = svc.ParseSession(session.Token)
	require.Error(t, err)
	_, err = svc.ParseSession("not-a-token")
	require.Error(t, err)
	_, err = svc.ParseSession("")
	require.Error(t, err)
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := auth.NewService(auth.Config{})
	require.Error(t, err)
}
