package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgs-intellisol/nexuscrux-website/internal/auth"
	appconfig "github.com/dgs-intellisol/nexuscrux-website/internal/config"
)

func TestRunMintsVerifiableToken(t *testing.T) {
	cfg := &appconfig.Config{AdminJWTSecret: "secret", AdminTokenTTL: time.Hour}
	var out bytes.Buffer

	require.NoError(t, run([]string{"-subject", "ops@nexuscrux.test", "-role", "editor", "-ttl", "30m"}, cfg, &out))

	claims, err := auth.ParseOperatorToken(strings.TrimSpace(out.String()), "secret")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleEditor, claims.Role)
	assert.Equal(t, "ops@nexuscrux.test", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRunValidatesInput(t *testing.T) {
	cfg := &appconfig.Config{AdminJWTSecret: "secret", AdminTokenTTL: time.Hour}

	assert.Error(t, run([]string{"-role", "viewer"}, cfg, &bytes.Buffer{}))
	assert.Error(t, run([]string{"-subject", "ops", "-role", "owner"}, cfg, &bytes.Buffer{}))
	assert.Error(t, run([]string{"-subject", "ops"}, &appconfig.Config{}, &bytes.Buffer{}))
}
