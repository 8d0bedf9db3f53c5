package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/stockline/stockline/internal/rbac"
	"github.com/stockline/stockline/internal/shared"
)

// SignupInput describes a new account request.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *shared.TokenManager
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *shared.TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Signup registers an account and issues a token. New accounts always start
// as customers; role elevation goes through the users admin API.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user, err := s.repo.Insert(ctx, User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		Role:         string(rbac.RoleCustomer),
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(ctx, shared.Principal{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login validates credentials and issues a token. Unknown emails, inactive
// accounts and wrong passwords all fold into ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, shared.Principal{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes the token. Revoking an unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}
