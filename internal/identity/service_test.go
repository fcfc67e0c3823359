package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meghshyam-labs/vyapar-backend/pkg/auth"
	"github.com/meghshyam-labs/vyapar-backend/pkg/config"
	"github.com/meghshyam-labs/vyapar-backend/pkg/db/models"
	"github.com/meghshyam-labs/vyapar-backend/pkg/security"
)

func setupIdentityTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  phone TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(users).Error)
	require.NoError(t, conn.Exec(`CREATE UNIQUE INDEX idx_users_email ON users (lower(email));`).Error)
	return conn
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "vyapar-test", SessionTTLDays: 30}
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), testPasswordConfig(), testJWTConfig())
	require.NoError(t, err)
	return svc
}

func TestResolveCreatesGuestAccount(t *testing.T) {
	conn := setupIdentityTestDB(t)
	svc := newTestService(t, conn)

	res, err := svc.Resolve(context.Background(), conn, ResolveInput{
		Email:     "asha@example.com",
		FirstName: "  Asha ",
		LastName:  " Rao ",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Empty(t, res.SessionToken)
	assert.Equal(t, "asha@example.com", res.User.Email)
	assert.Equal(t, "Asha Rao", res.User.Name)
	assert.NotEmpty(t, res.User.PasswordHash)

	// Placeholder credential must never verify against a guessed password.
	ok, err := security.VerifyPassword("password123", res.User.PasswordHash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveMergesRepeatGuestByEmail(t *testing.T) {
	conn := setupIdentityTestDB(t)
	svc := newTestService(t, conn)

	first, err := svc.Resolve(context.Background(), conn, ResolveInput{Email: "repeat@example.com", FirstName: "Repeat"})
	require.NoError(t, err)

	second, err := svc.Resolve(context.Background(), conn, ResolveInput{Email: "Repeat@Example.com", FirstName: "Someone", LastName: "Else"})
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.User.ID, second.User.ID)

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// blindSpotRepo misses the first email lookup, reproducing the window where
// two first-time checkouts for the same address race past each other.
type blindSpotRepo struct {
	Repository
	misses *int
}

func (r *blindSpotRepo) WithTx(tx *gorm.DB) Repository {
	return &blindSpotRepo{Repository: r.Repository.WithTx(tx), misses: r.misses}
}

func (r *blindSpotRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if *r.misses > 0 {
		*r.misses--
		return nil, gorm.ErrRecordNotFound
	}
	return r.Repository.FindByEmail(ctx, email)
}

func TestResolveConcurrentCaseVariantMergesOnUniqueIndex(t *testing.T) {
	conn := setupIdentityTestDB(t)

	first, err := newTestService(t, conn).Resolve(context.Background(), conn, ResolveInput{Email: "race@example.com", FirstName: "First"})
	require.NoError(t, err)

	misses := 1
	svc, err := NewService(&blindSpotRepo{Repository: NewRepository(conn), misses: &misses}, testPasswordConfig(), testJWTConfig())
	require.NoError(t, err)

	second, err := svc.Resolve(context.Background(), conn, ResolveInput{Email: "Race@Example.COM", FirstName: "Second"})
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.User.ID, second.User.ID)

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestResolveStaleAccountIDFallsThrough(t *testing.T) {
	conn := setupIdentityTestDB(t)
	svc := newTestService(t, conn)

	stale := uuid.New()
	res, err := svc.Resolve(context.Background(), conn, ResolveInput{
		AccountID: &stale,
		Email:     "fallthrough@example.com",
		FirstName: "Fall",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.NotEqual(t, stale, res.User.ID)
}

func TestResolveKnownAccountID(t *testing.T) {
	conn := setupIdentityTestDB(t)
	svc := newTestService(t, conn)

	created, err := svc.Resolve(context.Background(), conn, ResolveInput{Email: "known@example.com", FirstName: "Known"})
	require.NoError(t, err)

	res, err := svc.Resolve(context.Background(), conn, ResolveInput{
		AccountID: &created.User.ID,
		Email:     "different@example.com",
	})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, created.User.ID, res.User.ID)
	assert.Equal(t, "known@example.com", res.User.Email)
}

func TestResolveOptInMintsSessionToken(t *testing.T) {
	conn := setupIdentityTestDB(t)
	svc := newTestService(t, conn)

	res, err := svc.Resolve(context.Background(), conn, ResolveInput{
		Email:         "optin@example.com",
		FirstName:     "Opt",
		LastName:      "In",
		CreateAccount: true,
		Password:      "correct horse battery",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.SessionToken)

	claims, err := auth.ParseSessionToken(testJWTConfig(), res.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, "optin@example.com", claims.Email)

	ok, err := security.VerifyPassword("correct horse battery", res.User.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolveRequiresEmail(t *testing.T) {
	conn := setupIdentityTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.Resolve(context.Background(), conn, ResolveInput{Email: "   "})
	require.Error(t, err)
}
