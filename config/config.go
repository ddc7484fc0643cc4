// Copyright 2025 Scribelab
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the run configuration from environment variables.
//
// The program has no flag surface; everything is environment-driven.
// Backend connection groups are only validated for the backend that
// DB_TYPE selects, so unrelated groups may stay unset.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"

	"github.com/scribelab/docvec/core"
)

// Backend selector values recognized in DB_TYPE.
const (
	BackendPGVector  = "PGVECTOR"
	BackendSQLServer = "SQLSERVER"
	BackendElastic   = "ELASTIC"
	BackendRedis     = "REDIS"
	BackendQdrant    = "QDRANT"
	BackendBadger    = "BADGER"
	BackendDryRun    = "DRYRUN"
)

// RepoSource selects files from one git repository by glob patterns.
type RepoSource struct {
	Repo  string   `json:"repo"`
	Globs []string `json:"globs"`
}

// RepoSources decodes the REPO_SOURCES JSON list.
type RepoSources []RepoSource

func (r *RepoSources) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*r = nil
		return nil
	}
	var sources []RepoSource
	if err := json.Unmarshal(text, &sources); err != nil {
		return fmt.Errorf("REPO_SOURCES must be a JSON list of {repo, globs} objects: %w", err)
	}
	*r = sources
	return nil
}

// WebSources decodes the WEB_SOURCES JSON list.
type WebSources []string

func (w *WebSources) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*w = nil
		return nil
	}
	var urls []string
	if err := json.Unmarshal(text, &urls); err != nil {
		return fmt.Errorf("WEB_SOURCES must be a JSON list of URLs: %w", err)
	}
	*w = urls
	return nil
}

// PGVectorConfig connects the PGVECTOR backend.
type PGVectorConfig struct {
	URL        string `env:"URL"`
	Collection string `env:"COLLECTION_NAME"`
}

// SQLServerConfig connects the SQLSERVER backend.
type SQLServerConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"1433"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Database string `env:"DB"`
	Table    string `env:"TABLE"`
}

// ElasticConfig connects the ELASTIC backend.
type ElasticConfig struct {
	URL      string `env:"URL"`
	User     string `env:"USER" envDefault:"elastic"`
	Password string `env:"PASSWORD"`
	Index    string `env:"INDEX" envDefault:"docs"`
}

// RedisConfig connects the REDIS backend.
type RedisConfig struct {
	URL   string `env:"URL"`
	Index string `env:"INDEX" envDefault:"docs"`
}

// QdrantConfig connects the QDRANT backend.
type QdrantConfig struct {
	URL        string `env:"URL"`
	Collection string `env:"COLLECTION"`
}

// BadgerConfig locates the BADGER backend's data directory.
type BadgerConfig struct {
	Path string `env:"PATH"`
}

// Config is the full environment surface for one run, read once at
// startup and passed through constructors.
type Config struct {
	DBType       string `env:"DB_TYPE,notEmpty"`
	ChunkSize    int    `env:"CHUNK_SIZE,required"`
	ChunkOverlap int    `env:"CHUNK_OVERLAP,required"`
	TempDir      string `env:"TEMP_DIR"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"INFO"`

	RepoSources RepoSources `env:"REPO_SOURCES" envDefault:"[]"`
	WebSources  WebSources  `env:"WEB_SOURCES" envDefault:"[]"`

	EmbeddingHost   string `env:"EMBEDDING_HOST" envDefault:"http://localhost:11434"`
	EmbeddingModel  string `env:"EMBEDDING_MODEL,notEmpty"`
	EmbeddingAPIKey string `env:"EMBEDDING_API_KEY" envDefault:"none"`

	PGVector  PGVectorConfig  `envPrefix:"PGVECTOR_"`
	SQLServer SQLServerConfig `envPrefix:"SQLSERVER_"`
	Elastic   ElasticConfig   `envPrefix:"ELASTIC_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Qdrant    QdrantConfig    `envPrefix:"QDRANT_"`
	Badger    BadgerConfig    `envPrefix:"BADGER_"`
}

// Load reads and validates the configuration from the current
// environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.DBType = strings.ToUpper(strings.TrimSpace(cfg.DBType))
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks chunking parameters, the log level, the backend
// selector and the connection group of the selected backend.
func (c *Config) Validate() error {
	if err := core.ValidateChunking(c.ChunkSize, c.ChunkOverlap); err != nil {
		return err
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.DBType {
	case BackendPGVector:
		return requireAll(
			envVar{"PGVECTOR_URL", c.PGVector.URL},
			envVar{"PGVECTOR_COLLECTION_NAME", c.PGVector.Collection},
		)
	case BackendSQLServer:
		return requireAll(
			envVar{"SQLSERVER_HOST", c.SQLServer.Host},
			envVar{"SQLSERVER_USER", c.SQLServer.User},
			envVar{"SQLSERVER_PASSWORD", c.SQLServer.Password},
			envVar{"SQLSERVER_DB", c.SQLServer.Database},
			envVar{"SQLSERVER_TABLE", c.SQLServer.Table},
		)
	case BackendElastic:
		return requireAll(
			envVar{"ELASTIC_URL", c.Elastic.URL},
			envVar{"ELASTIC_PASSWORD", c.Elastic.Password},
		)
	case BackendRedis:
		return requireAll(
			envVar{"REDIS_URL", c.Redis.URL},
		)
	case BackendQdrant:
		return requireAll(
			envVar{"QDRANT_URL", c.Qdrant.URL},
			envVar{"QDRANT_COLLECTION", c.Qdrant.Collection},
		)
	case BackendBadger:
		return requireAll(
			envVar{"BADGER_PATH", c.Badger.Path},
		)
	case BackendDryRun:
		return nil
	default:
		return fmt.Errorf("%w: %q", core.ErrUnknownBackend, c.DBType)
	}
}

// ParseLogLevel maps a LOG_LEVEL name onto a slog level.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR", "CRITICAL":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: must be one of DEBUG, INFO, WARNING, ERROR, CRITICAL", name)
	}
}

type envVar struct {
	name  string
	value string
}

func requireAll(vars ...envVar) error {
	for _, v := range vars {
		if strings.TrimSpace(v.value) == "" {
			return fmt.Errorf("%s environment variable is required", v.name)
		}
	}
	return nil
}
