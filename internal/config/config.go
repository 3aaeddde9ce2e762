package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name    string `envconfig:"APP_NAME" default:"txsync"`
		Port    int    `envconfig:"PORT" default:"8080"`
		OwnerID string `envconfig:"OWNER_ID" required:"true"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"txsync"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AuthSecret  string        `envconfig:"AUTH_SECRET"`
		CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"*"`
	}

	Ingest struct {
		CategoryID    int64 `envconfig:"DEFAULT_CATEGORY_ID" default:"1"`
		SubcategoryID int64 `envconfig:"DEFAULT_SUBCATEGORY_ID" default:"1"`
		LookupWindow  int   `envconfig:"LOOKUP_WINDOW" default:"100"`
		ChunkSize     int   `envconfig:"CHUNK_SIZE" default:"10"`
	}

	Reconcile struct {
		PageSize        int           `envconfig:"PAGE_SIZE" default:"1000"`
		PageDelay       time.Duration `envconfig:"PAGE_DELAY" default:"500ms"`
		DeleteBatchSize int           `envconfig:"DELETE_BATCH_SIZE" default:"100"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"text"`
	}

	Sources struct {
		File string `envconfig:"SOURCES_FILE" default:"sources.yaml"`
		Dir  string `envconfig:"EXPORTS_DIR" default:"data/exports"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Logger builds the process logger from the Log section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
