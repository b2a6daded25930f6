package identity

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "identity.sqlite")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	service, err := NewService(db, "test-signing-secret", zerolog.Nop())
	require.NoError(t, err)
	return service
}

func TestNewServiceRequiresSecret(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "x.sqlite")), &gorm.Config{})
	require.NoError(t, err)

	_, err = NewService(db, "", zerolog.Nop())
	assert.Error(t, err)
}

func TestCreateAccountAndAuthenticate(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	created, err := service.CreateAccount(ctx, "amy@example.com", "secret123", Metadata{Name: "Amy", Role: "counselor"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.UserID)
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "counselor", created.Metadata.Role)

	sess, err := service.Authenticate(ctx, "amy@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, created.UserID, sess.UserID)
	assert.Equal(t, "Amy", sess.Metadata.Name)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.CreateAccount(ctx, "amy@example.com", "secret123", Metadata{Name: "Amy"})
	require.NoError(t, err)

	_, err = service.Authenticate(ctx, "amy@example.com", "not-the-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	service := newTestService(t)

	_, err := service.Authenticate(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateAccountEmailTaken(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.CreateAccount(ctx, "amy@example.com", "secret123", Metadata{})
	require.NoError(t, err)

	_, err = service.CreateAccount(ctx, "amy@example.com", "other-password", Metadata{})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestValidateRoundTrip(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	created, err := service.CreateAccount(ctx, "amy@example.com", "secret123", Metadata{Name: "Amy", Role: "admin"})
	require.NoError(t, err)

	sess, err := service.Validate(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.UserID, sess.UserID)
	assert.Equal(t, "amy@example.com", sess.Email)
	assert.Equal(t, "admin", sess.Metadata.Role)
}

func TestValidateRejectsForgedToken(t *testing.T) {
	service := newTestService(t)

	_, err := service.Validate(context.Background(), "not.a.token")
	assert.Error(t, err)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	a := newTestService(t)
	b := newTestService(t)

	created, err := a.CreateAccount(context.Background(), "amy@example.com", "secret123", Metadata{})
	require.NoError(t, err)

	_, err = b.Validate(context.Background(), created.Token)
	assert.Error(t, err)
}

func TestValidateAfterAccountDeletion(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	created, err := service.CreateAccount(ctx, "amy@example.com", "secret123", Metadata{})
	require.NoError(t, err)

	require.NoError(t, service.DeleteAccount(ctx, created.UserID))

	_, err = service.Validate(ctx, created.Token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestAuthEventsBroadcast(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	var events []Event
	unsubscribe := service.OnAuthStateChange(func(event Event, _ *Session) {
		events = append(events, event)
	})

	_, err := service.CreateAccount(ctx, "amy@example.com", "secret123", Metadata{})
	require.NoError(t, err)
	require.NoError(t, service.Revoke(ctx, "token"))

	assert.Equal(t, []Event{EventSignedIn, EventSignedOut}, events)

	unsubscribe()
	_, err = service.Authenticate(ctx, "amy@example.com", "secret123")
	require.NoError(t, err)
	assert.Len(t, events, 2, "unsubscribed callbacks must not fire")
}

func TestClientHoldsSession(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.CreateAccount(ctx, "amy@example.com", "secret123", Metadata{Name: "Amy"})
	require.NoError(t, err)

	client := NewClient(service, "")

	_, err = client.GetSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	sess, err := client.SignInWithPassword(ctx, "amy@example.com", "secret123")
	require.NoError(t, err)

	held, err := client.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, held.UserID)

	require.NoError(t, client.SignOut(ctx))
	_, err = client.GetSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	// Signing out again is a no-op.
	assert.NoError(t, client.SignOut(ctx))
}
