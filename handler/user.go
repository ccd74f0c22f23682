package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"gazette/domain"
	"gazette/errs"
)

type signupPayload struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	payload := loginPayload{}
	if err := c.Bind(&payload); err != nil || payload.Email == "" || payload.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	hash, err := h.Users.PasswordHash(payload.Email)
	if err != nil {
		if errs.IsCode(err, errs.CodeNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "wrong email or password")
		}
		c.Logger().Error(err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(payload.Password)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "wrong email or password")
	}

	user, err := h.Users.UserByEmail(payload.Email)
	if err != nil || user == nil {
		c.Logger().Error(err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	cookie, err := authorizationCookie(user.ID, h.JWTSecret)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, map[string]string{"token": cookie.Value})
}

func (h *Handler) NewUser(c echo.Context) error {
	if h.Environment != "dev" && !h.EnableSignup {
		return echo.NewHTTPError(http.StatusForbidden, "sign up has been disabled")
	}

	payload := signupPayload{}
	if err := c.Bind(&payload); err != nil || payload.Email == "" || payload.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	// The payload role is honored in dev for seeding fixtures; production
	// signups always start as Subscriber and are promoted out of band.
	role := domain.RoleSubscriber
	if h.Environment == "dev" && payload.Role != "" {
		if parsed := domain.ParseRole(payload.Role); parsed != domain.RoleAnonymous {
			role = parsed
		}
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:        uuid.NewString(),
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.ValidateEmail(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := h.Users.InsertUser(user, hashedPassword); err != nil {
		return domainError(c, err)
	}

	cookie, err := authorizationCookie(user.ID, h.JWTSecret)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)
	return c.JSON(http.StatusCreated, map[string]string{"id": user.ID, "token": cookie.Value})
}

func (h *Handler) Logout(c echo.Context) error {
	cookie := new(http.Cookie)
	cookie.Name = "Authorization"
	cookie.Value = ""
	cookie.Path = "/"

	cookie.Expires = time.Now().Add(-1 * time.Second)
	c.SetCookie(cookie)
	return c.NoContent(http.StatusNoContent)
}
