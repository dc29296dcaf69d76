// Package config loads the TOML configuration file and watches it for
// changes so a running service can pick up edits without a restart.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full service configuration.
type Config struct {
	Nextcloud Nextcloud `toml:"nextcloud"`
	Qdrant    Qdrant    `toml:"qdrant"`
	Embedding Embedding `toml:"embedding"`
	Sync      Sync      `toml:"sync"`
	Search    Search    `toml:"search"`
	Auth      Auth      `toml:"auth"`
	Metrics   Metrics   `toml:"metrics"`
	Verbose   bool      `toml:"verbose"`
}

// Nextcloud holds the upstream server settings.
type Nextcloud struct {
	// BaseURL is the Nextcloud server root, e.g. https://cloud.example.com.
	BaseURL string `toml:"base_url"`

	// Username and Password authenticate single-user (basic auth) mode.
	// Ignored when Auth.Mode is "oauth".
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Qdrant holds the vector store connection settings.
type Qdrant struct {
	URL        string `toml:"url"`
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection"`
}

// Embedding selects and configures the embedding backend.
type Embedding struct {
	// Provider is "ollama" or "hash".
	Provider string `toml:"provider"`

	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

// Sync tunes the background pipeline.
type Sync struct {
	// PollInterval is the scanner cycle interval.
	PollInterval duration `toml:"poll_interval"`

	// Workers is the processor pool size.
	Workers int `toml:"workers"`

	// StreamCapacity bounds the task queue.
	StreamCapacity int `toml:"stream_capacity"`

	// ChunkSize and ChunkOverlap are in words.
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
}

// Search tunes the query side.
type Search struct {
	// Algorithm is the default: semantic, keyword, fuzzy, hybrid or
	// bm25_hybrid.
	Algorithm string `toml:"algorithm"`

	// Fusion selects store-side fusion for bm25_hybrid: rrf or dbsf.
	Fusion string `toml:"fusion"`

	// Weights for client-side hybrid fusion.
	SemanticWeight float64 `toml:"semantic_weight"`
	KeywordWeight  float64 `toml:"keyword_weight"`
	FuzzyWeight    float64 `toml:"fuzzy_weight"`
}

// Auth selects the credential mode.
type Auth struct {
	// Mode is "basic" (single user) or "oauth" (multi user).
	Mode string `toml:"mode"`

	// OIDC settings, used in oauth mode.
	TokenURL     string `toml:"token_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`

	// DataDir holds the credentials database. Empty uses the default
	// under the user's home directory.
	DataDir string `toml:"data_dir"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Qdrant: Qdrant{
			URL:        "http://localhost:6333",
			Collection: "nextfind",
		},
		Embedding: Embedding{
			Provider: "ollama",
		},
		Sync: Sync{
			PollInterval:   duration{30 * time.Second},
			Workers:        4,
			StreamCapacity: 100,
		},
		Search: Search{
			Algorithm:      "hybrid",
			Fusion:         "rrf",
			SemanticWeight: 0.6,
			KeywordWeight:  0.3,
			FuzzyWeight:    0.1,
		},
		Auth: Auth{
			Mode: "basic",
		},
		Metrics: Metrics{
			Addr: ":9090",
		},
	}
}

// DefaultPath returns ~/.nextfind/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".nextfind", "config.toml"), nil
}

// Load reads the configuration file at path, layering it over the
// defaults. A missing file yields the defaults without error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// duration wraps time.Duration with TOML string parsing ("30s", "5m").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
