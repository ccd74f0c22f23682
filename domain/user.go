package domain

import (
	"errors"
	"strings"
	"time"
)

type User struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	Avatar      string
	Role        Role
	IsAssociate bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u User) ValidateEmail() error {
	if !strings.Contains(u.Email, "@") || len(u.Email) < 3 {
		return errors.New("invalid email address")
	}
	return nil
}
