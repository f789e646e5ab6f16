package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Auth     AuthConfig     `yaml:"auth"`
	Dedup    DedupConfig    `yaml:"dedup"`
	Store    StoreConfig    `yaml:"store"`
	Postgres PostgresConfig `yaml:"postgres"`
	CORS     CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// WorkflowConfig - 웹훅 shared secret
// Secret이 비어 있으면 검사하지 않음 (개발용 기본값, 운영에서는 반드시 설정)
type WorkflowConfig struct {
	Secret       string `yaml:"secret"`
	SecretHeader string `yaml:"secretHeader"`
}

// AuthConfig - 티켓 조회/수정 API용 JWT (비어 있으면 인증 없음)
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

type DedupConfig struct {
	MaxAttempts int `yaml:"maxAttempts"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
}

type PostgresConfig struct {
	DatabaseURL string `yaml:"databaseUrl"`
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	SSLMode     string `yaml:"sslmode"`
}

// Configured - DSN 또는 PGUSER/PGDATABASE 조합이 있는지
func (p PostgresConfig) Configured() bool {
	return p.DatabaseURL != "" || (p.User != "" && p.Database != "")
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Workflow: WorkflowConfig{
			SecretHeader: "X-Workflow-Secret",
		},
		Dedup: DedupConfig{
			MaxAttempts: 5,
		},
		Postgres: PostgresConfig{
			Host:    "localhost",
			Port:    "5432",
			SSLMode: "disable",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load - 기본값 → YAML 파일(path가 있으면) → 환경변수 순으로 덮어씀
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Store.Driver == "" {
		if cfg.Postgres.Configured() {
			cfg.Store.Driver = StoreDriverPostgres
		} else {
			cfg.Store.Driver = StoreDriverMemory
		}
	}
	return cfg, cfg.validate()
}

func applyEnv(cfg *Config) error {
	cfg.Server.Addr = getenv("HTTP_ADDR", cfg.Server.Addr)
	cfg.Workflow.Secret = getenv("WORKFLOW_SECRET", cfg.Workflow.Secret)
	cfg.Workflow.SecretHeader = getenv("WORKFLOW_SECRET_HEADER", cfg.Workflow.SecretHeader)
	cfg.Auth.JWTSecret = getenv("TICKETS_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(getenv("TICKET_STORE", cfg.Store.Driver)))

	cfg.Postgres.DatabaseURL = getenv("DATABASE_URL", cfg.Postgres.DatabaseURL)
	cfg.Postgres.Host = getenv("PGHOST", cfg.Postgres.Host)
	cfg.Postgres.Port = getenv("PGPORT", cfg.Postgres.Port)
	cfg.Postgres.User = getenv("PGUSER", cfg.Postgres.User)
	cfg.Postgres.Password = getenv("PGPASSWORD", cfg.Postgres.Password)
	cfg.Postgres.Database = getenv("PGDATABASE", cfg.Postgres.Database)
	cfg.Postgres.SSLMode = getenv("PGSSLMODE", cfg.Postgres.SSLMode)

	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		cfg.CORS.AllowedOrigins = splitList(raw)
	}

	if raw := os.Getenv("SHUTDOWN_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: %w", raw, err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if raw := os.Getenv("DEDUP_MAX_ATTEMPTS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid DEDUP_MAX_ATTEMPTS %q: %w", raw, err)
		}
		cfg.Dedup.MaxAttempts = n
	}
	return nil
}

func (c Config) validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported TICKET_STORE: %q", c.Store.Driver)
	}
	if c.Dedup.MaxAttempts < 1 {
		return fmt.Errorf("dedup.maxAttempts must be >= 1, got %d", c.Dedup.MaxAttempts)
	}
	if strings.TrimSpace(c.Workflow.SecretHeader) == "" {
		return fmt.Errorf("workflow.secretHeader must not be empty")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
