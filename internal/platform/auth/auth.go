package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const userContextKey = "auth_user"

type Claims struct {
	jwt.RegisteredClaims
}

// Issuer creates access tokens for the single configured credential pair and
// serves the token endpoint.
type Issuer struct {
	secret   []byte
	ttl      time.Duration
	username string
	password string
}

func NewIssuer(secret []byte, ttl time.Duration, username, password string) *Issuer {
	return &Issuer{secret: secret, ttl: ttl, username: username, password: password}
}

// IssueToken signs an HS256 token for the given subject.
func (i *Issuer) IssueToken(subject string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// TokenHandler implements POST /token. Credentials arrive as form fields.
func (i *Issuer) TokenHandler(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	if username != i.username || password != i.password {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}

	token, err := i.IssueToken(username)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not issue token")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Middleware validates the Authorization bearer token on every request and
// stores the authenticated subject in the echo context.
func Middleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(userContextKey, claims.Subject)
			return next(c)
		}
	}
}

// UserFromContext returns the authenticated subject, if any.
func UserFromContext(c echo.Context) string {
	user, _ := c.Get(userContextKey).(string)
	return user
}
