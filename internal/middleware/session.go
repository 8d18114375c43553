package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "session_token"

const (
	tokenIssuer   = "inkwell"
	tokenAudience = "inkwell-web"
)

// Claims is the payload of a session token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return uint(id), nil
}

// TokenManager issues and verifies HMAC-signed session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for the given user.
func (m *TokenManager) Issue(userID uint, username string) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse verifies the signature, issuer, audience and expiry of a token.
func (m *TokenManager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// Revocations reports whether a token id was revoked by logout.
type Revocations interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Session resolves the current viewer from the session cookie. Anonymous requests pass
// through untouched; an invalid or revoked token is cleared and treated as anonymous.
// A token whose revocation status cannot be checked is treated as anonymous but kept.
func Session(tokens *TokenManager, revocations Revocations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(SessionCookie)
		if raw == "" {
			return c.Next()
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			c.ClearCookie(SessionCookie)
			return c.Next()
		}

		if revocations != nil {
			revoked, err := revocations.IsRevoked(c.UserContext(), claims.ID)
			if err != nil {
				Logger.WarnContext(c.UserContext(), "session revocation check failed", "error", err)
				return c.Next()
			}
			if revoked {
				c.ClearCookie(SessionCookie)
				return c.Next()
			}
		}

		userID, err := claims.UserID()
		if err != nil {
			c.ClearCookie(SessionCookie)
			return c.Next()
		}

		c.Locals("userID", userID)
		c.Locals("username", claims.Username)
		c.Locals("session", claims)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
		return c.Next()
	}
}

// ViewerID returns the authenticated user id, or 0 for anonymous requests.
func ViewerID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// LoginRequired redirects anonymous requests to loginPath, remembering the original URL.
func LoginRequired(loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ViewerID(c) != 0 {
			return c.Next()
		}
		return c.Redirect(loginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}
}
