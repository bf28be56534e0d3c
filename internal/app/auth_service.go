package app

import (
	"strings"
	"time"

	"docuchat/internal/model"
	"docuchat/internal/pkg/sessiontoken"
	"docuchat/internal/repository"
)

// AuthService implements passwordless sign-in: a login upserts the user by
// email and opens a session backed by a signed bearer token. The token is
// only honored while its session row is active and unexpired, so logout
// revokes it immediately.
type AuthService struct {
	userRepo    *repository.UserRepository
	sessionRepo *repository.SessionRepository
	tokenSecret string
	sessionTTL  time.Duration
}

type LoginInput struct {
	Email     string
	Name      string
	IPAddress string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

func NewAuthService(userRepo *repository.UserRepository, sessionRepo *repository.SessionRepository, tokenSecret string, sessionTTL time.Duration) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokenSecret: tokenSecret,
		sessionTTL:  sessionTTL,
	}
}

func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &model.User{
			Email:  email,
			Name:   strings.TrimSpace(input.Name),
			Status: model.UserStatusActive,
		}
		if err := s.userRepo.Create(user); err != nil {
			return nil, err
		}
	}
	if user.Status != model.UserStatusActive {
		return nil, ErrUnauthorized
	}

	now := time.Now()
	_ = s.userRepo.TouchLastAccessed(user.ID, now)

	token, err := sessiontoken.Generate(s.tokenSecret, s.sessionTTL, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	session := &model.UserSession{
		UserID:    user.ID,
		Token:     token,
		IPAddress: input.IPAddress,
		ExpiresAt: now.Add(s.sessionTTL),
		IsActive:  true,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// Validate resolves a bearer token to its user. The signature, the session
// row and the user status all have to check out.
func (s *AuthService) Validate(token string) (*model.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthorized
	}

	claims, err := sessiontoken.Parse(s.tokenSecret, token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	session, err := s.sessionRepo.GetActiveByToken(token)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Expired(time.Now()) {
		return nil, ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != model.UserStatusActive {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (s *AuthService) Logout(token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidInput
	}
	return s.sessionRepo.Deactivate(token)
}
