package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const defaultMaxUploadBytes = 10 << 20 // 10 MB

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	RateLimit   RateLimitConfig           `json:"rate_limit"`
}

type BasicConfig struct {
	ServerAddress  string `json:"server_address"`
	Mode           string `json:"mode"`
	UploadDir      string `json:"upload_dir"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
	// SessionTTL and CleanInterval are minutes; zero falls back to defaults.
	SessionTTL    int `json:"session_ttl"`
	CleanInterval int `json:"clean_interval"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type RateLimitConfig struct {
	UploadsPerMinute int `json:"per_minute"`
}

// Load reads configuration from the provided path (defaults to config.json)
// and applies environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.BasicConfig.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("max_upload_bytes must be positive")
	}

	for name, db := range cfg.Databases {
		if db.DSN != "" && !filepath.IsAbs(db.DSN) && db.DSN != ":memory:" {
			db.DSN = filepath.Join(filepath.Dir(absPath), db.DSN)
			cfg.Databases[name] = db
		}
	}

	return &cfg, nil
}

// applyEnv overrides file values with the recognized environment options.
func (c *Config) applyEnv() {
	if v := os.Getenv("HEICONV_UPLOAD_DIR"); v != "" {
		c.BasicConfig.UploadDir = v
	}
	if v := os.Getenv("HEICONV_MAX_CONTENT_LENGTH"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.BasicConfig.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("HEICONV_MODE"); v != "" {
		c.BasicConfig.Mode = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.BasicConfig.ServerAddress = ":" + v
	}
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = ":8090"
	}
	if c.BasicConfig.Mode == "" {
		c.BasicConfig.Mode = "release"
	}
	if c.BasicConfig.UploadDir == "" {
		c.BasicConfig.UploadDir = "./data/uploads"
	}
	if c.BasicConfig.MaxUploadBytes == 0 {
		c.BasicConfig.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.BasicConfig.SessionTTL <= 0 {
		c.BasicConfig.SessionTTL = 60
	}
	if c.BasicConfig.CleanInterval <= 0 {
		c.BasicConfig.CleanInterval = 10
	}
}

// RedisEnabled reports whether a redis host is configured.
func (c *Config) RedisEnabled() bool {
	return c != nil && c.Redis.Host != ""
}
