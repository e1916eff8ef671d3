// Package secret supplies API credentials at startup from the environment,
// a .env file or the config file, so no token is ever compiled in.
package secret

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/dooshek/cablespeak/internal/types"
)

const (
	DeepgramKeyEnv = "DEEPGRAM_API_KEY"
	OpenAIKeyEnv   = "OPENAI_API_KEY"
)

// ErrMissing is returned when no source provides the requested secret.
var ErrMissing = errors.New("secret not configured")

// Provider looks up a named secret.
type Provider interface {
	Lookup(key string) (string, bool)
}

// EnvProvider reads the process environment.
type EnvProvider struct{}

func (EnvProvider) Lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// MapProvider serves secrets from a fixed map (a parsed .env file or config keys).
type MapProvider map[string]string

func (m MapProvider) Lookup(key string) (string, bool) {
	v := strings.TrimSpace(m[key])
	return v, v != ""
}

// DotEnv parses the given .env files without touching the process
// environment. Missing files are skipped.
func DotEnv(paths ...string) MapProvider {
	out := MapProvider{}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		vals, err := godotenv.Read(p)
		if err != nil {
			logger.Warnf("Failed to parse %s: %v", p, err)
			continue
		}
		for k, v := range vals {
			if _, exists := out[k]; !exists {
				out[k] = v
			}
		}
	}
	return out
}

// FromConfig exposes the keys section of the config file under env names.
func FromConfig(cfg *types.Config) MapProvider {
	if cfg == nil {
		return MapProvider{}
	}
	return MapProvider{
		DeepgramKeyEnv: cfg.Keys.DeepgramKey,
		OpenAIKeyEnv:   cfg.Keys.OpenAIKey,
	}
}

// Chain asks each provider in order and returns the first hit.
type Chain []Provider

func (c Chain) Lookup(key string) (string, bool) {
	for _, p := range c {
		if v, ok := p.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

// Default is environment, then ./.env, then the config file.
func Default(cfg *types.Config) Chain {
	return Chain{EnvProvider{}, DotEnv(".env"), FromConfig(cfg)}
}

// Require returns the secret or ErrMissing naming the key.
func Require(p Provider, key string) (string, error) {
	v, ok := p.Lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: set %s in the environment, a .env file or the config", ErrMissing, key)
	}
	return v, nil
}

// KeyForProvider maps a TTS provider name to the env name of its credential.
func KeyForProvider(provider string) string {
	if provider == string(types.ProviderOpenAI) {
		return OpenAIKeyEnv
	}
	return DeepgramKeyEnv
}
