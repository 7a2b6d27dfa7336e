package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the deployment-provided service configuration.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// AuthMode selects bearer-token auth ("token") or the local dev shim
	// ("dev", X-Debug-Subject header).
	AuthMode string `env:"AUTH_MODE" envDefault:"token"`
	// APITokens maps bearer tokens to subjects, e.g. "tok1:user-a,tok2:user-b".
	APITokens  map[string]string `env:"API_TOKENS"`
	DevSubject string            `env:"DEV_SUBJECT" envDefault:"dev|local"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	DatabaseURL    string `env:"DATABASE_URL"`

	MapplsBaseURL string `env:"MAPPLS_BASE_URL" envDefault:"https://apis.mappls.com"`
	MapplsAPIKey  string `env:"MAPPLS_API_KEY"`

	// ExternalCallTimeout bounds each place-search and directions call.
	ExternalCallTimeout time.Duration `env:"EXTERNAL_CALL_TIMEOUT" envDefault:"12s"`

	// Default search anchor when no user location is available (Delhi).
	SearchAnchorLat float64 `env:"SEARCH_ANCHOR_LAT" envDefault:"28.550834"`
	SearchAnchorLng float64 `env:"SEARCH_ANCHOR_LNG" envDefault:"77.268918"`
	SearchZoom      int     `env:"SEARCH_ZOOM" envDefault:"12"`

	// DraftTTL is how long an idle wizard session is kept before it is purged.
	DraftTTL time.Duration `env:"DRAFT_TTL" envDefault:"2h"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
