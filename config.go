package patronwatch

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Configuration carries the settings an embedding process typically reads
// from its environment. It is a convenience for wiring; the facade itself is
// configured through Options.
type Configuration struct {
	// AccessToken authenticates against the campaign API.
	AccessToken string `env:"PATRONWATCH_ACCESS_TOKEN"`

	// Campaign is the id of the campaign whose membership is watched.
	Campaign string `env:"PATRONWATCH_CAMPAIGN"`

	// APIBaseURL is the base URL of the campaign API.
	APIBaseURL string `env:"PATRONWATCH_API_URL"`

	// PollInterval is how often the roster is fetched and diffed.
	PollInterval time.Duration `env:"PATRONWATCH_POLL_INTERVAL" envDefault:"60s"`

	// FlushInterval is how often state is persisted between refreshes.
	FlushInterval time.Duration `env:"PATRONWATCH_FLUSH_INTERVAL" envDefault:"5m"`

	// StateFile is the path of the persisted state document.
	StateFile string `env:"PATRONWATCH_STATE_FILE" envDefault:"./patronwatch-state.json"`
}

// ConfigFromEnv reads a Configuration from the process environment.
func ConfigFromEnv() (*Configuration, error) {
	var cfg Configuration
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
