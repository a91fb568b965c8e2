package internal

import "github.com/rundberg/ansuz/internal/embed"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	provider embed.Provider
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithEmbeddingProvider overrides the embedding provider built from the
// configuration. Tests use it to substitute a deterministic fake.
func WithEmbeddingProvider(p embed.Provider) Option {
	return func(a *application) {
		a.provider = p
	}
}
