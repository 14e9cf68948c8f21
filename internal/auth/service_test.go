package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiplomWorkHushchin/Server/internal/directory"
)

type stubResolver struct {
	email string
	err   error
}

func (r stubResolver) ResolveEmail(context.Context, string) (string, error) {
	return r.email, r.err
}

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *fakeDirectory, *memSessionStore) {
	t.Helper()
	dir := newFakeDirectory()
	sessions := newMemSessionStore()
	issuer, err := NewIssuer(testConfig(), dir, sessions)
	require.NoError(t, err)
	validator, err := NewValidator(testKey())
	require.NoError(t, err)
	svc, err := NewService(dir, sessions, issuer, validator, opts...)
	require.NoError(t, err)
	return svc, dir, sessions
}

func TestLoginIssuesPair(t *testing.T) {
	svc, dir, _ := newTestService(t)
	seedUser(t, dir, "alice", "alice@uni.edu", directory.RoleTeacher)

	session, err := svc.Login(context.Background(), "Alice@Uni.EDU", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.Refresh.Value)
	assert.Equal(t, "alice", session.User.Username)
	assert.Equal(t, []string{directory.RoleTeacher}, session.Roles)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, dir, _ := newTestService(t)
	seedUser(t, dir, "alice", "alice@uni.edu")

	_, err := svc.Login(context.Background(), "alice@uni.edu", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(context.Background(), "ghost@uni.edu", "s3cret")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegisterCreatesUserAndGroup(t *testing.T) {
	svc, _, _ := newTestService(t)

	session, err := svc.Register(context.Background(), RegisterInput{
		GroupName: "CS-101",
		Username:  "Bob",
		FirstName: "Bob",
		LastName:  "Ray",
		Password:  "s3cret",
		Role:      directory.RoleStudent,
		Email:     "bob@uni.edu",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", session.User.Username)
	assert.NotEmpty(t, session.User.GroupID)
	assert.Equal(t, []string{directory.RoleStudent}, session.Roles)

	// login works with the registered password
	_, err = svc.Login(context.Background(), "bob@uni.edu", "s3cret")
	require.NoError(t, err)
}

func TestRegisterDuplicateUsernamePerformsNoWrites(t *testing.T) {
	svc, dir, _ := newTestService(t)
	seedUser(t, dir, "alice", "alice@uni.edu")
	before := dir.writes()

	_, err := svc.Register(context.Background(), RegisterInput{
		GroupName: "CS-101",
		Username:  "ALICE", // collides case-insensitively
		Password:  "s3cret",
		Role:      directory.RoleStudent,
		Email:     "other@uni.edu",
	})
	require.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, before, dir.writes(), "duplicate registration must not write")
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "carol",
		Password: "s3cret",
		Role:     "superuser",
		Email:    "carol@uni.edu",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	svc, dir, _ := newTestService(t)
	seedUser(t, dir, "alice", "alice@uni.edu", directory.RoleTeacher)

	first, err := svc.Login(context.Background(), "alice@uni.edu", "s3cret")
	require.NoError(t, err)

	second, err := svc.Refresh(context.Background(), first.AccessToken, first.Refresh.Value)
	require.NoError(t, err)
	assert.NotEqual(t, first.Refresh.Value, second.Refresh.Value)

	// replaying the consumed pair must fail
	_, err = svc.Refresh(context.Background(), first.AccessToken, first.Refresh.Value)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid refresh token")

	// the rotated pair still works
	_, err = svc.Refresh(context.Background(), second.AccessToken, second.Refresh.Value)
	require.NoError(t, err)
}

func TestRefreshRequiresBothArtifacts(t *testing.T) {
	svc, dir, _ := newTestService(t)
	seedUser(t, dir, "alice", "alice@uni.edu")
	session, err := svc.Login(context.Background(), "alice@uni.edu", "s3cret")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), "", session.Refresh.Value)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "tokens missing")

	_, err = svc.Refresh(context.Background(), session.AccessToken, "")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "tokens missing")
}

func TestRefreshRejectsForgedPrincipal(t *testing.T) {
	svc, dir, _ := newTestService(t)
	seedUser(t, dir, "alice", "alice@uni.edu")
	session, err := svc.Login(context.Background(), "alice@uni.edu", "s3cret")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), "not.a.token", session.Refresh.Value)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid principal")
}

func TestRefreshRejectsUnknownSubject(t *testing.T) {
	// Token minted for a user the directory no longer knows.
	orphanDir := newFakeDirectory()
	orphanSessions := newMemSessionStore()
	issuer, err := NewIssuer(testConfig(), orphanDir, orphanSessions)
	require.NoError(t, err)
	ghost := seedUser(t, orphanDir, "ghost", "ghost@uni.edu")
	access, _, err := issuer.IssuePair(context.Background(), ghost)
	require.NoError(t, err)

	svc, _, _ := newTestService(t)
	_, err = svc.Refresh(context.Background(), access, "some-refresh-value")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "user not found")
}

func TestRefreshRejectsExpiredCredential(t *testing.T) {
	svc, dir, sessions := newTestService(t, WithClock(func() time.Time {
		return time.Now().Add(8 * 24 * time.Hour) // beyond the 7-day window
	}))
	seedUser(t, dir, "alice", "alice@uni.edu")
	session, err := svc.Login(context.Background(), "alice@uni.edu", "s3cret")
	require.NoError(t, err)
	require.Equal(t, 1, sessions.count())

	_, err = svc.Refresh(context.Background(), session.AccessToken, session.Refresh.Value)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid refresh token")
}

func TestConcurrentRefreshExactlyOneWins(t *testing.T) {
	svc, dir, _ := newTestService(t)
	seedUser(t, dir, "alice", "alice@uni.edu")
	session, err := svc.Login(context.Background(), "alice@uni.edu", "s3cret")
	require.NoError(t, err)

	const callers = 2
	var (
		wg        sync.WaitGroup
		successes int
		failures  int
		mu        sync.Mutex
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(context.Background(), session.AccessToken, session.Refresh.Value)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, ErrUnauthorized) {
				failures++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one concurrent refresh must win")
	assert.Equal(t, callers-1, failures, "the rest must fail cleanly")
}

func TestLogoutDeletesCredential(t *testing.T) {
	svc, dir, sessions := newTestService(t)
	seedUser(t, dir, "alice", "alice@uni.edu")
	session, err := svc.Login(context.Background(), "alice@uni.edu", "s3cret")
	require.NoError(t, err)
	require.Equal(t, 1, sessions.count())

	require.NoError(t, svc.Logout(context.Background(), session.Refresh.Value))
	assert.Equal(t, 0, sessions.count())

	// unknown or empty values are no-ops
	require.NoError(t, svc.Logout(context.Background(), session.Refresh.Value))
	require.NoError(t, svc.Logout(context.Background(), ""))
}

func TestLoginWithGoogle(t *testing.T) {
	svc, dir, _ := newTestService(t, WithIdentityResolver(stubResolver{email: "alice@uni.edu"}))
	seedUser(t, dir, "alice", "alice@uni.edu", directory.RoleTeacher)

	session, err := svc.LoginWithGoogle(context.Background(), "provider-token")
	require.NoError(t, err)
	assert.Equal(t, "alice", session.User.Username)
}

func TestLoginWithGoogleUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t, WithIdentityResolver(stubResolver{email: "ghost@uni.edu"}))
	_, err := svc.LoginWithGoogle(context.Background(), "provider-token")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoginWithGoogleWithoutResolver(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.LoginWithGoogle(context.Background(), "provider-token")
	require.ErrorIs(t, err, ErrNotImplemented)
}
