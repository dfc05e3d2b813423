package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration for the server and CLI.
// Values come from .stacks.toml, STACKS_* env vars (a .env file is loaded
// first), and CLI flags.
type Config struct {
	Port             string        `mapstructure:"port"`
	LogLevel         string        `mapstructure:"log_level"`
	DBPath           string        `mapstructure:"db_path"`
	DailySalt        string        `mapstructure:"daily_salt"`
	JWTSecret        string        `mapstructure:"jwt_secret"`
	JWTExpiresDays   int           `mapstructure:"jwt_expires_days"`
	CookieName       string        `mapstructure:"cookie_name"`
	AnonCookieName   string        `mapstructure:"anon_cookie_name"`
	SecureCookies    bool          `mapstructure:"secure_cookies"`
	ClientOrigin     string        `mapstructure:"client_origin"`
	WordsAllowedFile string        `mapstructure:"words_allowed_file"`
	WordsBannedFile  string        `mapstructure:"words_banned_file"`
	SaveDebounce     time.Duration `mapstructure:"save_debounce"`
	// SnapshotStore is "sqlite" or "memory".
	SnapshotStore string `mapstructure:"snapshot_store"`
}

// Init wires viper to the environment. Safe to call more than once.
func Init() {
	_ = godotenv.Load()
	viper.SetEnvPrefix("STACKS")
	viper.AutomaticEnv()
}

// ReadFile loads path into viper, or .stacks.toml from the working
// directory when path is empty. A missing default file is not an error; a
// missing explicit file, or one that fails to parse, is.
func ReadFile(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName(".stacks")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
	}
	err := viper.ReadInConfig()
	var nf viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &nf) {
		return nil
	}
	return fmt.Errorf("config: read %s: %w", viper.ConfigFileUsed(), err)
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("port", "5175")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("db_path", "data/stacks.db")
	viper.SetDefault("daily_salt", "stacks")
	viper.SetDefault("jwt_secret", "dev_secret_change_me")
	viper.SetDefault("jwt_expires_days", 14)
	viper.SetDefault("cookie_name", "stacks_token")
	viper.SetDefault("anon_cookie_name", "stacks_anon")
	viper.SetDefault("secure_cookies", false)
	viper.SetDefault("client_origin", "http://localhost:5173")
	viper.SetDefault("words_allowed_file", "")
	viper.SetDefault("words_banned_file", "")
	viper.SetDefault("save_debounce", "750ms")
	viper.SetDefault("snapshot_store", "sqlite")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	switch cfg.SnapshotStore {
	case "sqlite", "memory":
	default:
		return Config{}, fmt.Errorf("config: snapshot_store %q: want sqlite or memory", cfg.SnapshotStore)
	}
	if cfg.JWTExpiresDays <= 0 {
		cfg.JWTExpiresDays = 14
	}
	return cfg, nil
}

// JWTTTL is the lifetime of an issued auth token.
func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}
