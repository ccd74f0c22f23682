package handler

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"

	"gazette/content"
	"gazette/domain"
	"gazette/errs"
)

var sanitizerStrict = bluemonday.StrictPolicy()

type AuthorDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Avatar      string `json:"avatar"`
	Role        string `json:"role"`
	IsAssociate bool   `json:"isAssociate"`
}

type PostDTO struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Body        string        `json:"body"`
	HTML        template.HTML `json:"html"`
	Status      string        `json:"status"`
	Visibility  string        `json:"visibility"`
	PublishedOn string        `json:"publishedOn"`
	Author      *AuthorDTO    `json:"author,omitempty"`
}

type postPayload struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	Slug       string `json:"slug"`
	Status     string `json:"status"`
	Visibility string `json:"visibility"`
}

// GetPosts lists every post visible to the requester. A missing or invalid
// token degrades to an anonymous listing rather than an error.
func (h *Handler) GetPosts(c echo.Context) error {
	viewer := h.resolveViewer(c)

	posts, err := h.Posts.AllPosts()
	if err != nil {
		c.Logger().Error(err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	visible := content.ListVisible(posts, viewer, content.OrderByCreation)

	authors := map[string]*AuthorDTO{}
	dtos := make([]PostDTO, 0, len(visible))
	for _, p := range visible {
		dtos = append(dtos, h.postDTO(p, h.author(authors, p.AuthorID)))
	}
	return c.JSON(http.StatusOK, dtos)
}

// GetPostBySlug returns a single post. Posts outside the requester's
// clearance are indistinguishable from missing ones.
func (h *Handler) GetPostBySlug(c echo.Context) error {
	viewer := h.resolveViewer(c)

	post, err := h.Posts.PostBySlug(c.Param("slug"))
	if err != nil {
		return domainError(c, err)
	}
	if !content.Visible(post, viewer) {
		return domainError(c, errs.New(errs.CodeNotFound, "post not found"))
	}
	return c.JSON(http.StatusOK, h.postDTO(post, h.author(map[string]*AuthorDTO{}, post.AuthorID)))
}

// NewPost creates a post on behalf of the requester.
func (h *Handler) NewPost(c echo.Context) error {
	payload := postPayload{}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if payload.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if payload.Body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "body is required")
	}

	viewer := content.Anonymous
	var user *domain.User
	if userID := getUserID(c, h.JWTSecret); userID != "" {
		viewer = content.Viewer{UserID: userID}
		u, err := h.Users.UserByID(userID)
		if err != nil {
			c.Logger().Error(err)
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		user = u
		if user != nil {
			viewer.Role = user.Role
		}
	}

	input := content.CreateInput{
		Title:      sanitizerStrict.Sanitize(payload.Title),
		Body:       payload.Body,
		Slug:       payload.Slug,
		Status:     domain.Status(payload.Status),
		Visibility: domain.Visibility(payload.Visibility),
	}

	post, err := h.createPost(viewer, user, input)
	if err != nil {
		return domainError(c, err)
	}

	author := h.author(map[string]*AuthorDTO{}, post.AuthorID)
	return c.JSON(http.StatusCreated, h.postDTO(post, author))
}

// createPost runs the authorization facade and persists the result. A slug
// taken between the resolver's check and the insert surfaces as a Conflict;
// one retry re-resolves against the committed state.
func (h *Handler) createPost(viewer content.Viewer, user *domain.User, input content.CreateInput) (domain.Post, error) {
	for attempt := 0; ; attempt++ {
		post, err := content.AuthorizeCreate(viewer, user, input, h.Posts.SlugExists, time.Now)
		if err != nil {
			return domain.Post{}, err
		}
		err = h.Posts.InsertPost(post)
		if err == nil {
			return post, nil
		}
		if !errs.IsCode(err, errs.CodeConflict) || attempt > 0 {
			return domain.Post{}, err
		}
	}
}

// resolveViewer turns the request's token into a viewer. Tokens that do not
// resolve to a known user count as anonymous.
func (h *Handler) resolveViewer(c echo.Context) content.Viewer {
	userID := getUserID(c, h.JWTSecret)
	if userID == "" {
		return content.Anonymous
	}
	user, err := h.Users.UserByID(userID)
	if err != nil {
		c.Logger().Error(err)
		return content.Anonymous
	}
	if user == nil {
		return content.Anonymous
	}
	return content.Viewer{UserID: user.ID, Role: user.Role}
}

func (h *Handler) author(cache map[string]*AuthorDTO, authorID string) *AuthorDTO {
	if dto, ok := cache[authorID]; ok {
		return dto
	}
	user, err := h.Users.UserByID(authorID)
	if err != nil || user == nil {
		cache[authorID] = nil
		return nil
	}
	dto := &AuthorDTO{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Avatar:      user.Avatar,
		Role:        string(user.Role),
		IsAssociate: user.IsAssociate,
	}
	cache[authorID] = dto
	return dto
}

func (h *Handler) postDTO(p domain.Post, author *AuthorDTO) PostDTO {
	publishedOn := ""
	if !p.PublishedOn.IsZero() {
		publishedOn = p.PublishedOn.Format(time.RFC3339)
	}
	return PostDTO{
		ID:          p.ID,
		Title:       sanitizerStrict.Sanitize(p.Title),
		Slug:        p.Slug,
		Body:        p.Body,
		HTML:        safeMd(p.Body),
		Status:      string(p.Status),
		Visibility:  string(p.EffectiveVisibility()),
		PublishedOn: publishedOn,
		Author:      author,
	}
}

func domainError(c echo.Context, err error) error {
	code := errs.GetCode(err)
	status := code.HTTPStatus()
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}
	return c.JSON(status, map[string]interface{}{
		"statusCode": status,
		"error":      http.StatusText(status),
		"message":    err.Error(),
	})
}

func mdToHTML(md string) []byte {
	// create markdown parser with extensions
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	// create HTML renderer with extensions
	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	opts := html.RendererOptions{Flags: htmlFlags}
	renderer := html.NewRenderer(opts)

	return markdown.Render(doc, renderer)
}

func safeMd(body string) template.HTML {
	maybeUnsafeHTML := mdToHTML(body)
	return template.HTML(bluemonday.UGCPolicy().SanitizeBytes(maybeUnsafeHTML))
}
