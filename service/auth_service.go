package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"medicare-api/models"
	"medicare-api/repository"
)

var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const bcryptCost = 10

// AuthConfig carries the token-signing parameters.
type AuthConfig struct {
	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// AuthService authenticates principals and manages the lifecycle of bearer
// credentials. Persistence is injected; the service holds no other state.
type AuthService struct {
	users  repository.UserRepository
	tokens repository.RefreshTokenRepository
	cfg    AuthConfig
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens repository.RefreshTokenRepository, cfg AuthConfig, log *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// TokenPair is one access token plus the refresh token that can replace it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterInput is the registration payload after JSON binding. DateOfBirth
// is an ISO date (2006-01-02); the doctor-only fields are ignored for
// patients.
type RegisterInput struct {
	Role            string
	Name            string
	Email           string
	Password        string
	Phone           string
	DateOfBirth     string
	Gender          string
	Specialization  string
	LicenseDocument string
	Degrees         []string
	Experience      int
	ConsultationFee int64
	FollowUpFee     int64
	About           string
	Location        string
}

// Register creates a new account and issues its first token pair.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, *TokenPair, error) {
	role := models.Role(strings.ToLower(strings.TrimSpace(in.Role)))
	if !role.Valid() {
		return nil, nil, &ValidationError{Message: fmt.Sprintf("role must be %q or %q", models.RolePatient, models.RoleDoctor)}
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil, &ValidationError{Message: "name required"}
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !emailRE.MatchString(email) {
		return nil, nil, &ValidationError{Message: "invalid email address"}
	}
	if len(in.Password) < 6 {
		return nil, nil, &ValidationError{Message: "password too short (min 6)"}
	}
	var gender models.Gender
	if in.Gender != "" {
		gender = models.Gender(strings.ToLower(strings.TrimSpace(in.Gender)))
		if !gender.Valid() {
			return nil, nil, &ValidationError{Message: "gender must be male, female or other"}
		}
	}
	var dob *time.Time
	if in.DateOfBirth != "" {
		t, err := time.Parse("2006-01-02", in.DateOfBirth)
		if err != nil {
			return nil, nil, &ValidationError{Message: "dateOfBirth must be YYYY-MM-DD"}
		}
		dob = &t
	}

	// Optimistic pre-check; the unique index is the real guard and the
	// create below maps its violation to the same error.
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		Role:           role,
		Name:           name,
		Email:          email,
		HashedPassword: hashed,
		Phone:          strings.TrimSpace(in.Phone),
		DateOfBirth:    dob,
		Gender:         gender,
		Active:         true,
	}
	if role == models.RoleDoctor {
		user.Specialization = strings.TrimSpace(in.Specialization)
		user.LicenseDocument = strings.TrimSpace(in.LicenseDocument)
		user.Degrees = in.Degrees
		user.Experience = in.Experience
		user.ConsultationFee = in.ConsultationFee
		user.FollowUpFee = in.FollowUpFee
		user.About = in.About
		user.Location = strings.TrimSpace(in.Location)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, err
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(role)))
	return user, pair, nil
}

// Login verifies credentials and issues a fresh token pair. Prior sessions
// stay valid.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	// Deactivation is only disclosed once the password checks out.
	if !user.Active {
		return nil, nil, ErrAccountDeactivated
	}
	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new pair and rotates it. The
// presented token is single-use: the revoke and the lookup are one
// conditional update, so a reused or raced token fails here.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, ErrInvalidRefreshToken
	}
	now := s.now()
	rt, err := s.tokens.Rotate(ctx, hashToken(presented), now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Unknown, revoked and expired all collapse to the same answer.
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, rt.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("refresh token without owner", zap.Uint("token_id", rt.ID))
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return s.issueTokens(ctx, rt.UserID)
}

// Logout revokes the presented refresh token. It always appears to succeed:
// unknown and already-revoked tokens are not errors.
func (s *AuthService) Logout(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}
	if err := s.tokens.Revoke(ctx, hashToken(presented), s.now()); err != nil {
		s.log.Error("logout revoke failed", zap.Error(err))
	}
	return nil
}

// VerifyAccessToken parses and validates an access token and returns the
// subject user id.
func (s *AuthService) VerifyAccessToken(tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return s.cfg.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidCredentials
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidCredentials
	}
	return uint(id), nil
}

// issueTokens mints the access token and creates + persists the refresh
// token. The access token is stateless; only the refresh token's hash is
// stored.
func (s *AuthService) issueTokens(ctx context.Context, userID uint) (*TokenPair, error) {
	now := s.now()
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
	})
	accessString, err := access.SignedString(s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	raw := hex.EncodeToString(b)
	rt := &models.RefreshToken{
		UserID:    userID,
		TokenHash: hashToken(raw),
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}
	if err := s.tokens.Create(ctx, rt); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessString, RefreshToken: raw}, nil
}

func hashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
