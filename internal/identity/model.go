package identity

import (
	"time"

	"github.com/neuro21/neuro21/internal/session"
)

// Account is a registered, password-protected member.
type Account struct {
	ID           string
	Email        string
	Name         string
	Bio          string
	Type         session.UserType
	PasswordHash []byte
	CreatedAt    time.Time
}

func (a Account) session() session.Account {
	return session.Account{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
		Bio:   a.Bio,
		Type:  a.Type,
	}
}
