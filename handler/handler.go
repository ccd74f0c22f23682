package handler

import (
	"gazette/domain"
)

// PostStore is the persistence surface the post handlers consume.
type PostStore interface {
	AllPosts() ([]domain.Post, error)
	PostBySlug(slug string) (domain.Post, error)
	SlugExists(slug string) (bool, error)
	InsertPost(p domain.Post) error
}

// UserStore is the persistence surface the user handlers consume.
type UserStore interface {
	UserByID(id string) (*domain.User, error)
	UserByEmail(email string) (*domain.User, error)
	InsertUser(u domain.User, passwordHash []byte) error
	PasswordHash(email string) (string, error)
}

type Handler struct {
	Posts        PostStore
	Users        UserStore
	JWTSecret    string
	EnableSignup bool
	Environment  string
}
