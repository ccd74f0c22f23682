package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazette/domain"
	"gazette/errs"
)

const testSecret = "unsecure"

type fakeStore struct {
	posts        []domain.Post
	users        map[string]*domain.User
	inserted     []domain.Post
	conflictOnce bool
}

func (f *fakeStore) AllPosts() ([]domain.Post, error) { return f.posts, nil }

func (f *fakeStore) PostBySlug(slug string) (domain.Post, error) {
	for _, p := range f.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.Post{}, errs.New(errs.CodeNotFound, "post not found")
}

func (f *fakeStore) SlugExists(slug string) (bool, error) {
	for _, p := range f.posts {
		if p.Slug == slug {
			return true, nil
		}
	}
	for _, p := range f.inserted {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertPost(p domain.Post) error {
	if f.conflictOnce {
		f.conflictOnce = false
		f.posts = append(f.posts, domain.Post{Slug: p.Slug})
		return errs.New(errs.CodeConflict, "slug already taken")
	}
	f.inserted = append(f.inserted, p)
	return nil
}

func (f *fakeStore) UserByID(id string) (*domain.User, error) { return f.users[id], nil }

func (f *fakeStore) UserByEmail(email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertUser(u domain.User, hash []byte) error { return nil }

func (f *fakeStore) PasswordHash(email string) (string, error) {
	return "", errs.New(errs.CodeNotFound, "user not found")
}

func testToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func fixtureStore() *fakeStore {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &fakeStore{
		users: map[string]*domain.User{
			"admin-1":  {ID: "admin-1", Email: "administrator@example.com", Role: domain.RoleAdministrator},
			"editor-1": {ID: "editor-1", Email: "editor@example.com", Role: domain.RoleEditor},
			"con-1":    {ID: "con-1", Email: "contributor@example.com", Role: domain.RoleContributor},
			"sub-1":    {ID: "sub-1", Email: "subscriber@example.com", Role: domain.RoleSubscriber},
		},
		posts: []domain.Post{
			{ID: "p1", Title: "My First Post", Slug: "my-first-post", Body: "This is my first post.",
				Status: domain.StatusPublished, Visibility: domain.VisibilityPublic, AuthorID: "admin-1",
				PublishedOn: ts, CreatedAt: ts},
			{ID: "p2", Title: "Editors Only", Slug: "editors-only", Body: "Hush.",
				Status: domain.StatusDraft, Visibility: domain.VisibilityEditor, AuthorID: "admin-1",
				CreatedAt: ts.Add(time.Minute)},
			{ID: "p3", Title: "Mine", Slug: "mine", Body: "Keep out.",
				Status: domain.StatusDraft, Visibility: domain.VisibilityPrivate, AuthorID: "con-1",
				CreatedAt: ts.Add(2 * time.Minute)},
		},
	}
}

func newHandler(store *fakeStore) *Handler {
	return &Handler{Posts: store, Users: store, JWTSecret: testSecret, Environment: "dev"}
}

func doGet(h *Handler, path, token string, fn func(echo.Context) error, pathParam ...string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(pathParam) == 2 {
		c.SetPath(path)
		c.SetParamNames(pathParam[0])
		c.SetParamValues(pathParam[1])
	}
	if err := fn(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func doPost(h *Handler, path, token, body string, fn func(echo.Context) error) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := fn(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func decodePosts(t *testing.T, rec *httptest.ResponseRecorder) []PostDTO {
	t.Helper()
	var dtos []PostDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dtos))
	return dtos
}

func TestGetPostsAnonymous(t *testing.T) {
	h := newHandler(fixtureStore())

	rec := doGet(h, "/posts", "", h.GetPosts)
	require.Equal(t, http.StatusOK, rec.Code)

	dtos := decodePosts(t, rec)
	require.Len(t, dtos, 1)
	assert.Equal(t, "my-first-post", dtos[0].Slug)
	assert.Equal(t, "2024-05-01T12:00:00Z", dtos[0].PublishedOn)
	require.NotNil(t, dtos[0].Author)
	assert.Equal(t, "administrator@example.com", dtos[0].Author.Email)
}

func TestGetPostsInvalidTokenTreatedAsAnonymous(t *testing.T) {
	h := newHandler(fixtureStore())

	rec := doGet(h, "/posts", "not-a-token", h.GetPosts)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodePosts(t, rec), 1)
}

func TestGetPostsEditorSeesClearedDrafts(t *testing.T) {
	h := newHandler(fixtureStore())

	rec := doGet(h, "/posts", testToken(t, "editor-1"), h.GetPosts)
	require.Equal(t, http.StatusOK, rec.Code)

	dtos := decodePosts(t, rec)
	require.Len(t, dtos, 2)
	assert.Equal(t, "my-first-post", dtos[0].Slug)
	assert.Equal(t, "editors-only", dtos[1].Slug)
	assert.Equal(t, "", dtos[1].PublishedOn)
}

func TestGetPostsPrivateOnlyForOwner(t *testing.T) {
	h := newHandler(fixtureStore())

	rec := doGet(h, "/posts", testToken(t, "con-1"), h.GetPosts)
	require.Equal(t, http.StatusOK, rec.Code)

	dtos := decodePosts(t, rec)
	require.Len(t, dtos, 2)
	assert.Equal(t, "my-first-post", dtos[0].Slug)
	assert.Equal(t, "mine", dtos[1].Slug)

	// The admin cannot see someone else's private post.
	rec = doGet(h, "/posts", testToken(t, "admin-1"), h.GetPosts)
	for _, dto := range decodePosts(t, rec) {
		assert.NotEqual(t, "mine", dto.Slug)
	}
}

func TestGetPostBySlugHidesUncleared(t *testing.T) {
	h := newHandler(fixtureStore())

	rec := doGet(h, "/posts/editors-only", "", h.GetPostBySlug, "slug", "editors-only")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doGet(h, "/posts/editors-only", testToken(t, "editor-1"), h.GetPostBySlug, "slug", "editors-only")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewPostCreated(t *testing.T) {
	store := fixtureStore()
	h := newHandler(store)

	rec := doPost(h, "/posts", testToken(t, "admin-1"),
		`{"title":"My Post","body":"This is a post."}`, h.NewPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	var dto PostDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "my-post", dto.Slug)
	assert.Equal(t, "Draft", dto.Status)
	assert.Equal(t, "Public", dto.Visibility)
	assert.Equal(t, "", dto.PublishedOn)
	require.NotNil(t, dto.Author)
	assert.Equal(t, "admin-1", dto.Author.ID)
	require.Len(t, store.inserted, 1)
}

func TestNewPostSlugCollision(t *testing.T) {
	store := fixtureStore()
	h := newHandler(store)

	rec := doPost(h, "/posts", testToken(t, "admin-1"),
		`{"title":"My First Post","body":"Again."}`, h.NewPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	var dto PostDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "my-first-post-1", dto.Slug)
}

func TestNewPostConflictRetried(t *testing.T) {
	store := fixtureStore()
	store.conflictOnce = true
	h := newHandler(store)

	rec := doPost(h, "/posts", testToken(t, "admin-1"),
		`{"title":"Fresh Title","body":"Race me."}`, h.NewPost)
	require.Equal(t, http.StatusCreated, rec.Code)

	var dto PostDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "fresh-title-1", dto.Slug)
	require.Len(t, store.inserted, 1)
}

func TestNewPostAnonymous(t *testing.T) {
	h := newHandler(fixtureStore())

	rec := doPost(h, "/posts", "", `{"title":"T","body":"B"}`, h.NewPost)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewPostUnknownUser(t *testing.T) {
	h := newHandler(fixtureStore())

	rec := doPost(h, "/posts", testToken(t, "ghost"), `{"title":"T","body":"B"}`, h.NewPost)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNewPostSubscriberForbidden(t *testing.T) {
	h := newHandler(fixtureStore())

	rec := doPost(h, "/posts", testToken(t, "sub-1"), `{"title":"T","body":"B"}`, h.NewPost)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNewPostContributorCannotPublish(t *testing.T) {
	h := newHandler(fixtureStore())

	rec := doPost(h, "/posts", testToken(t, "con-1"),
		`{"title":"T","body":"B","status":"Published"}`, h.NewPost)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "You are not allowed to publish posts", body["message"])
}

func TestNewPostMissingFields(t *testing.T) {
	h := newHandler(fixtureStore())

	rec := doPost(h, "/posts", testToken(t, "admin-1"), `{"body":"B"}`, h.NewPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doPost(h, "/posts", testToken(t, "admin-1"), `{"title":"T"}`, h.NewPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
