// Package store persists posts and users in SQL, keeping the slug
// uniqueness constraint as the final arbiter against concurrent creates.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	"gazette/domain"
	"gazette/errs"
)

type Store struct {
	DB *sql.DB
}

const postColumns = "id, title, slug, body, status, visibility, author_id, published_on, created_at, updated_at"

// AllPosts returns every post, oldest first.
func (s *Store) AllPosts() ([]domain.Post, error) {
	rows, err := s.DB.Query("SELECT " + postColumns + " FROM posts ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("error querying posts: %v", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// PostBySlug returns the post with the given slug, or a NotFound error.
func (s *Store) PostBySlug(slug string) (domain.Post, error) {
	row := s.DB.QueryRow("SELECT "+postColumns+" FROM posts WHERE slug = $1", slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return domain.Post{}, errs.New(errs.CodeNotFound, "post not found")
	}
	return p, err
}

// SlugExists reports whether a committed post already holds the slug.
func (s *Store) SlugExists(slug string) (bool, error) {
	row := s.DB.QueryRow("SELECT COUNT(slug) FROM posts WHERE slug = $1", slug)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("error checking slug: %v", err)
	}
	return count != 0, nil
}

// InsertPost persists a fully formed post. A slug uniqueness violation at
// commit time surfaces as a Conflict so the caller can retry resolution.
func (s *Store) InsertPost(p domain.Post) error {
	stmt, err := s.DB.Prepare("INSERT INTO posts (" + postColumns + ") VALUES (?,?,?,?,?,?,?,?,?,?)")
	if err != nil {
		return fmt.Errorf("error preparing statement in table posts: %v", err)
	}
	defer stmt.Close()

	var published sql.NullTime
	if !p.PublishedOn.IsZero() {
		published = sql.NullTime{Time: p.PublishedOn, Valid: true}
	}
	_, err = stmt.Exec(p.ID, p.Title, p.Slug, p.Body, string(p.Status), string(p.Visibility),
		p.AuthorID, published, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: posts.slug") {
			return errs.New(errs.CodeConflict, "slug already taken")
		}
		return fmt.Errorf("error executing statement in table posts: %v", err)
	}
	return nil
}

// UserByID returns the user record, or nil when none exists.
func (s *Store) UserByID(id string) (*domain.User, error) {
	return s.userBy("id", id)
}

// UserByEmail returns the user record, or nil when none exists.
func (s *Store) UserByEmail(email string) (*domain.User, error) {
	return s.userBy("email", email)
}

func (s *Store) userBy(column, value string) (*domain.User, error) {
	row := s.DB.QueryRow("SELECT id, email, first_name, last_name, avatar, role, is_associate, created_at, updated_at FROM users WHERE "+column+" = $1", value)

	u := domain.User{}
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Avatar, &role, &u.IsAssociate, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying users: %v", err)
	}
	u.Role = domain.ParseRole(role)
	return &u, nil
}

// InsertUser persists a new user with the given bcrypt password hash.
func (s *Store) InsertUser(u domain.User, passwordHash []byte) error {
	stmt, err := s.DB.Prepare("INSERT INTO users (id, email, password, first_name, last_name, avatar, role, is_associate, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)")
	if err != nil {
		return fmt.Errorf("error preparing statement in table users: %v", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(u.ID, u.Email, passwordHash, u.FirstName, u.LastName, u.Avatar,
		string(u.Role), u.IsAssociate, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return errs.New(errs.CodeConflict, "email already taken")
		}
		return fmt.Errorf("error executing statement in table users: %v", err)
	}
	return nil
}

// PasswordHash returns the stored bcrypt hash for the user's email.
func (s *Store) PasswordHash(email string) (string, error) {
	row := s.DB.QueryRow("SELECT password FROM users WHERE email = $1", email)
	var hash string
	if err := row.Scan(&hash); err != nil {
		if err == sql.ErrNoRows {
			return "", errs.New(errs.CodeNotFound, "user not found")
		}
		return "", fmt.Errorf("error querying users: %v", err)
	}
	return hash, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (domain.Post, error) {
	p := domain.Post{}
	var status, visibility string
	var published sql.NullTime
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &status, &visibility,
		&p.AuthorID, &published, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Post{}, err
	}
	p.Status = domain.Status(status)
	p.Visibility = domain.Visibility(visibility)
	if published.Valid {
		p.PublishedOn = published.Time.UTC()
	}
	return p, nil
}
