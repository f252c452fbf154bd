package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/neuro21/neuro21/internal/session"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

var (
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned for addresses without an @.
	ErrInvalidEmail = errors.New("email must contain @")
	// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
	ErrWeakPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// Service verifies credentials against stored accounts. It implements
// session.Authenticator.
type Service struct {
	repo Repository
	cost int
	now  func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost, now: time.Now}
}

// Register creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, input session.RegisterInput) (session.Account, error) {
	email := normalizeEmail(input.Email)
	if !strings.Contains(email, "@") {
		return session.Account{}, ErrInvalidEmail
	}
	if len(input.Password) < MinPasswordLength {
		return session.Account{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return session.Account{}, err
	}

	acct := Account{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Bio:          input.Bio,
		Type:         sessionType(string(input.Type)),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		return session.Account{}, err
	}
	return acct.session(), nil
}

// Login verifies the password of the account registered under email.
func (s *Service) Login(ctx context.Context, email, password string) (session.Account, error) {
	acct, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrAccountNotFound) {
		return session.Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return session.Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		return session.Account{}, ErrInvalidCredentials
	}
	return acct.session(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sessionType(t string) session.UserType {
	if session.UserType(t) == session.TypeProfessional {
		return session.TypeProfessional
	}
	return session.TypeUser
}
