package staff

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/molaris/molaris/internal/platform/httpx"
	"github.com/molaris/molaris/internal/shared"
)

const sessionKeyPrefix = "molaris:session:"

type Service struct {
	repo       Repository
	redis      *redis.Client
	sessionTTL time.Duration
	log        *slog.Logger
	now        func() time.Time
}

func NewService(repo Repository, rdb *redis.Client, sessionTTL time.Duration, log *slog.Logger) *Service {
	if sessionTTL == 0 {
		sessionTTL = 12 * time.Hour
	}
	return &Service{
		repo:       repo,
		redis:      rdb,
		sessionTTL: sessionTTL,
		log:        log.With("component", "staff"),
		now:        time.Now,
	}
}

// Login verifies the credentials and issues an opaque bearer token stored in
// Redis with a sliding expiry.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		// same error for unknown email and bad password
		return LoginResponse{}, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}
	if !u.IsActive {
		return LoginResponse{}, fmt.Errorf("%w: account disabled", httpx.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResponse{}, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}

	token := uuid.NewString()
	identity := shared.Identity{StaffID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role)}
	raw, err := json.Marshal(identity)
	if err != nil {
		return LoginResponse{}, err
	}
	if err := s.redis.Set(ctx, sessionKeyPrefix+token, raw, s.sessionTTL).Err(); err != nil {
		return LoginResponse{}, fmt.Errorf("store session: %w", err)
	}

	s.log.InfoContext(ctx, "staff login", "staff_id", u.ID, "email", u.Email)
	return LoginResponse{
		Token:     token,
		ExpiresAt: s.now().Add(s.sessionTTL),
		User:      u,
	}, nil
}

// Logout revokes the session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.redis.Del(ctx, sessionKeyPrefix+token).Err()
}

// Resolve maps a bearer token to the staff identity, refreshing the expiry.
func (s *Service) Resolve(ctx context.Context, token string) (shared.Identity, error) {
	raw, err := s.redis.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		return shared.Identity{}, httpx.ErrUnauthorized
	}
	var identity shared.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return shared.Identity{}, httpx.ErrUnauthorized
	}
	s.redis.Expire(ctx, sessionKeyPrefix+token, s.sessionTTL)
	return identity, nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, User{
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		Name:         req.Name,
		Role:         Role(req.Role),
		IsActive:     true,
		PasswordHash: string(hash),
	})
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Role != nil {
		u.Role = Role(*req.Role)
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		u.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}
