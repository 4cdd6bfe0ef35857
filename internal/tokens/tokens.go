package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arsipku/arsipku/internal/apperr"
	"github.com/arsipku/arsipku/internal/auth"
	"github.com/arsipku/arsipku/internal/config"
)

// Claims carried by an access token. Tokens are short-lived bearer
// credentials minted after a session is verified; revoking the session does
// not recall tokens already issued, which is why the TTL stays in minutes.
type Claims struct {
	UserID   string `json:"sub"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Generate signs a short-lived access token for the user.
func Generate(cfg config.JWTConfig, u *auth.Summary) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      u.ID,
		"username": u.Username,
		"role":     string(u.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(cfg.AccessTokenTTL).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.Secret))
}

// Parse validates the signature and expiry and returns the embedded claims.
func Parse(cfg config.JWTConfig, token string) (*Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperr.Authentication("invalid access token")
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.Authentication("invalid access token")
	}
	c := &Claims{}
	c.UserID, _ = mc["sub"].(string)
	c.Username, _ = mc["username"].(string)
	c.Role, _ = mc["role"].(string)
	if c.UserID == "" {
		return nil, apperr.Authentication("invalid access token")
	}
	return c, nil
}
