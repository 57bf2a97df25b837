package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Storage backend names accepted in NTF_BACKEND.
const (
	BackendFiles    = "files"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMariaDB  = "mariadb"
)

type Config struct {
	DataDir   string // root for files backend and images (NTF_DATA_DIR)
	Backend   string // slot/secret backend, one of the Backend* constants
	Database  DatabaseConfig
	MariaDB   MariaDBConfig
	SQLite    SQLiteConfig
	Web       WebConfig
	LogLevel  string
	Defaults  Defaults
	Biometric BiometricConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 10)
	MaxIdleConns int    // Maximum idle connections (default 2)
}

type MariaDBConfig struct {
	DSN string // e.g. faces:faces@tcp(mariadb:3306)/faces
}

type SQLiteConfig struct {
	Path string // defaults to <data dir>/names-to-faces.db
}

type WebConfig struct {
	Host           string
	Port           int
	SessionSecret  string
	AllowedOrigins []string // extra CORS origins, localhost is always allowed
}

type BiometricConfig struct {
	Command string // external verifier, empty disables biometrics
}

// Defaults are the policy constants embedded in defaults.yaml.
type Defaults struct {
	Slots SlotDefaults  `yaml:"slots"`
	Image ImageDefaults `yaml:"image"`
	Auth  AuthDefaults  `yaml:"auth"`
}

type SlotDefaults struct {
	People   string `yaml:"people"`
	Password string `yaml:"password"`
}

type ImageDefaults struct {
	Quality         int `yaml:"quality"`
	MaxSize         int `yaml:"max_size"`
	PlaceholderSize int `yaml:"placeholder_size"`
}

type AuthDefaults struct {
	Reason           string `yaml:"reason"`
	BiometricCommand string `yaml:"biometric_command"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString returns the environment variable or the default when unset.
func envString(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

// envList splits a comma-separated environment variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for v := range strings.SplitSeq(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "names-to-faces")
	}
	return ".names-to-faces"
}

func Load() *Config {
	var defaults Defaults
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	defaults.Image.MaxSize = envInt("IMAGE_MAX_SIZE", defaults.Image.MaxSize)

	dataDir := envString("NTF_DATA_DIR", "")
	if dataDir == "" {
		dataDir = defaultDataDir()
	}

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = filepath.Join(dataDir, "names-to-faces.db")
	}

	backend := os.Getenv("NTF_BACKEND")
	if backend == "" {
		backend = BackendFiles
	}

	return &Config{
		DataDir: dataDir,
		Backend: backend,
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
		MariaDB: MariaDBConfig{
			DSN: os.Getenv("MARIADB_DSN"),
		},
		SQLite: SQLiteConfig{
			Path: sqlitePath,
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "127.0.0.1"),
			Port:           envInt("WEB_PORT", 8080),
			SessionSecret:  os.Getenv("WEB_SESSION_SECRET"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		LogLevel: os.Getenv("LOG_LEVEL"),
		Biometric: BiometricConfig{
			Command: envString("BIOMETRIC_COMMAND", defaults.Auth.BiometricCommand),
		},
		Defaults: defaults,
	}
}
