package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"online_store/internal/domain"
)

const badCredentialsMsg = "incorrect email or password"

// AccountService registers users and exchanges credentials for bearer tokens.
type AccountService struct {
	users  domain.UserRepository
	hasher domain.PasswordHasher
	tokens domain.TokenIssuer
}

func NewAccountService(u domain.UserRepository, h domain.PasswordHasher, t domain.TokenIssuer) *AccountService {
	return &AccountService{users: u, hasher: h, tokens: t}
}

// Register creates an active user. Admins are provisioned out of band.
func (s *AccountService) Register(ctx context.Context, email, password string, role domain.Role) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.User{}, domain.InvalidInput("email and password are required")
	}
	if role != domain.RoleBuyer && role != domain.RoleSeller {
		return domain.User{}, domain.InvalidInput("role must be buyer or seller")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{Email: email, PasswordHash: hash, Role: role, IsActive: true}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		return domain.User{}, err
	}
	log.Info().Int64("user_id", u.ID).Str("role", string(u.Role)).Msg("user registered")
	return u, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.Unauthorized(badCredentialsMsg)
	}
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive || s.hasher.Compare(u.PasswordHash, password) != nil {
		return "", domain.Unauthorized(badCredentialsMsg)
	}
	tok, err := s.tokens.Issue(u)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}
