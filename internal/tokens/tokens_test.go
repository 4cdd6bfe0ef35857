package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arsipku/arsipku/internal/auth"
	"github.com/arsipku/arsipku/internal/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", AccessTokenTTL: 15 * time.Minute}
}

func TestGenerateAndParse(t *testing.T) {
	cfg := testJWTConfig()
	u := &auth.Summary{ID: "u1", Username: "alice", Role: auth.RoleStandard}

	tok, err := Generate(cfg, u)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := Parse(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, string(auth.RoleStandard), claims.Role)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := Generate(testJWTConfig(), &auth.Summary{ID: "u1", Username: "alice"})
	require.NoError(t, err)

	_, err = Parse(config.JWTConfig{Secret: "other"}, tok)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessTokenTTL = -time.Minute

	tok, err := Generate(cfg, &auth.Summary{ID: "u1", Username: "alice"})
	require.NoError(t, err)

	_, err = Parse(cfg, tok)
	assert.Error(t, err)
}

func TestParse_Garbage(t *testing.T) {
	_, err := Parse(testJWTConfig(), "not-a-token")
	assert.Error(t, err)
}
