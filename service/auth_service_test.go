package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medicare-api/models"
	"medicare-api/repository"
	"medicare-api/service"
)

func newTestService(t *testing.T, refreshTTL time.Duration) (*service.AuthService, *memoryUserRepo, *memoryTokenRepo) {
	t.Helper()
	users := newMemoryUserRepo()
	tokens := newMemoryTokenRepo()
	cfg := service.AuthConfig{
		JWTSecret:       []byte("test-secret"),
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: refreshTTL,
	}
	return service.NewAuthService(users, tokens, cfg, zap.NewNop()), users, tokens
}

func patientInput(email string) service.RegisterInput {
	return service.RegisterInput{
		Role:     "patient",
		Name:     "Test Patient",
		Email:    email,
		Password: "secret1",
	}
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	svc, _, _ := newTestService(t, 7*24*time.Hour)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, patientInput("A@x.com"))
	require.NoError(t, err)
	require.Equal(t, "a@x.com", user.Email)
	require.True(t, user.Active)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	id, err := svc.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, id)
}

func TestPublicProjectionHasNoPassword(t *testing.T) {
	svc, _, _ := newTestService(t, 7*24*time.Hour)

	user, _, err := svc.Register(context.Background(), patientInput("a@x.com"))
	require.NoError(t, err)

	raw, err := json.Marshal(user.Public())
	require.NoError(t, err)
	require.NotContains(t, strings.ToLower(string(raw)), "password")
	require.Contains(t, string(raw), `"email":"a@x.com"`)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, users, _ := newTestService(t, 7*24*time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, patientInput("a@x.com"))
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, patientInput("a@x.com"))
	var conflict *service.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, 1, users.count())
}

func TestRegisterValidation(t *testing.T) {
	svc, users, _ := newTestService(t, 7*24*time.Hour)
	ctx := context.Background()

	cases := map[string]service.RegisterInput{
		"unknown role":   {Role: "admin", Name: "A", Email: "a@x.com", Password: "secret1"},
		"missing name":   {Role: "patient", Name: "  ", Email: "a@x.com", Password: "secret1"},
		"bad email":      {Role: "patient", Name: "A", Email: "not-an-email", Password: "secret1"},
		"short password": {Role: "patient", Name: "A", Email: "a@x.com", Password: "12345"},
		"bad gender":     {Role: "patient", Name: "A", Email: "a@x.com", Password: "secret1", Gender: "unknown"},
		"bad birth date": {Role: "patient", Name: "A", Email: "a@x.com", Password: "secret1", DateOfBirth: "03/04/1990"},
	}
	for name, in := range cases {
		_, _, err := svc.Register(ctx, in)
		var validation *service.ValidationError
		require.ErrorAs(t, err, &validation, name)
	}
	// Nothing was persisted along the way.
	require.Equal(t, 0, users.count())
}

func TestLoginEnumerationResistance(t *testing.T) {
	svc, _, _ := newTestService(t, 7*24*time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, patientInput("a@x.com"))
	require.NoError(t, err)

	_, _, wrongPassword := svc.Login(ctx, "a@x.com", "not-the-password")
	_, _, unknownEmail := svc.Login(ctx, "nobody@x.com", "secret1")

	var authErr *service.AuthenticationError
	require.ErrorAs(t, wrongPassword, &authErr)
	require.ErrorAs(t, unknownEmail, &authErr)
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t, 7*24*time.Hour)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, patientInput("a@x.com"))
	require.NoError(t, err)

	user, pair, err := svc.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "a@x.com", user.Email)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	svc, users, _ := newTestService(t, 7*24*time.Hour)
	ctx := context.Background()

	in := patientInput("doc@x.com")
	in.Role = "doctor"
	in.Specialization = "Cardiology"
	in.ConsultationFee = 100
	user, _, err := svc.Register(ctx, in)
	require.NoError(t, err)
	require.Equal(t, models.RoleDoctor, user.Role)
	require.Equal(t, "Cardiology", user.Specialization)

	users.setActive(user.ID, false)

	_, _, err = svc.Login(ctx, "doc@x.com", "secret1")
	var authErr *service.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "account deactivated", authErr.Message)
}

func TestPatientIgnoresDoctorFields(t *testing.T) {
	svc, _, _ := newTestService(t, 7*24*time.Hour)

	in := patientInput("a@x.com")
	in.Specialization = "Cardiology"
	in.ConsultationFee = 100
	user, _, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	require.Empty(t, user.Specialization)
	require.Zero(t, user.ConsultationFee)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, _ := newTestService(t, 7*24*time.Hour)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, patientInput("a@x.com"))
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The presented token is single-use.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	var authErr *service.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "invalid refresh token", authErr.Message)

	// The replacement still works.
	_, err = svc.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshExpiredToken(t *testing.T) {
	// A negative TTL issues tokens that are already past expiry.
	svc, _, _ := newTestService(t, -time.Minute)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, patientInput("a@x.com"))
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	var authErr *service.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "invalid refresh token", authErr.Message)
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t, 7*24*time.Hour)
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, "never-issued"))

	_, pair, err := svc.Register(ctx, patientInput("a@x.com"))
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	// Logging out twice never revives the token.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	var authErr *service.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestVerifyAccessTokenRejectsGarbage(t *testing.T) {
	svc, _, _ := newTestService(t, 7*24*time.Hour)

	_, err := svc.VerifyAccessToken("not.a.jwt")
	var authErr *service.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

// In-memory repository fakes.

type memoryUserRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{rows: make(map[uint]*models.User)}
}

func (m *memoryUserRepo) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUserRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memoryUserRepo) setActive(id uint, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.rows[id]; ok {
		u.Active = active
	}
}

type memoryTokenRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[string]*models.RefreshToken
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{rows: make(map[string]*models.RefreshToken)}
}

func (m *memoryTokenRepo) Create(ctx context.Context, t *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[t.TokenHash]; ok {
		return repository.ErrDuplicate
	}
	m.nextID++
	t.ID = m.nextID
	cp := *t
	m.rows[t.TokenHash] = &cp
	return nil
}

func (m *memoryTokenRepo) Rotate(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[tokenHash]
	if !ok || !t.Usable(now) {
		return nil, repository.ErrNotFound
	}
	revoked := now
	t.RevokedAt = &revoked
	cp := *t
	return &cp, nil
}

func (m *memoryTokenRepo) Revoke(ctx context.Context, tokenHash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.rows[tokenHash]; ok && t.RevokedAt == nil {
		revoked := now
		t.RevokedAt = &revoked
	}
	return nil
}

func (m *memoryTokenRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hash, t := range m.rows {
		if t.ExpiresAt.Before(cutoff) {
			delete(m.rows, hash)
			n++
		}
	}
	return n, nil
}
