// Package auth provides token providers for the remote API. The remote
// document database authenticates with long-lived integration tokens, so
// the providers here are thin wrappers around configuration.
package auth

import (
	"context"
	"os"
	"strings"

	"github.com/pagemirror/pagemirror/internal/core/ports/driven"
)

// EnvToken is the environment variable overriding the configured token.
const EnvToken = "PAGEMIRROR_TOKEN"

// ConfigKeyToken is the config store key holding the integration token.
const ConfigKeyToken = "notion.token"

// Ensure providers implement the interface.
var (
	_ driven.TokenProvider = (*ConfigTokenProvider)(nil)
	_ driven.TokenProvider = (*StaticTokenProvider)(nil)
)

// ConfigTokenProvider reads the integration token from the config store,
// with an environment variable override for CI and containers.
type ConfigTokenProvider struct {
	config driven.ConfigStore
}

// NewConfigTokenProvider creates a config-backed token provider.
func NewConfigTokenProvider(config driven.ConfigStore) *ConfigTokenProvider {
	return &ConfigTokenProvider{config: config}
}

// GetToken returns the configured integration token. The environment
// variable wins over the config file.
func (p *ConfigTokenProvider) GetToken(_ context.Context) (string, error) {
	if token := strings.TrimSpace(os.Getenv(EnvToken)); token != "" {
		return token, nil
	}
	return strings.TrimSpace(p.config.GetString(ConfigKeyToken)), nil
}

// StaticTokenProvider returns a fixed token. Used in tests and one-shot
// invocations with --token.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider returning the given token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// GetToken returns the fixed token.
func (p *StaticTokenProvider) GetToken(_ context.Context) (string, error) {
	return p.token, nil
}
