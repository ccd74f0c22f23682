package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const tokenLifetime = time.Hour * 24 * 7

// getUserID resolves the requester's user id from the Authorization cookie
// or bearer header. A missing, invalid or expired token yields "" and the
// request proceeds as anonymous.
func getUserID(c echo.Context, JWTSecret string) string {
	if JWTSecret == "" {
		return ""
	}

	raw := ""
	if cookie, err := c.Cookie("Authorization"); err == nil {
		raw = cookie.Value
	} else if header := c.Request().Header.Get("Authorization"); header != "" {
		raw = strings.TrimPrefix(header, "Bearer ")
	}
	if raw == "" {
		return ""
	}

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		// SigningMethodHMAC implements the HMAC-SHA family of signing methods.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return []byte(JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return ""
	}
	return claims.Subject
}

// authorizationCookie issues a signed session cookie for the user.
func authorizationCookie(ID string, secret string) (*http.Cookie, error) {
	if secret == "" {
		return nil, errors.New("missing secret")
	}
	exp := time.Now().Add(tokenLifetime)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   ID,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signedData, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	cookie := new(http.Cookie)
	cookie.Name = "Authorization"
	cookie.Value = signedData
	cookie.Expires = exp
	cookie.Path = "/"

	return cookie, nil
}
