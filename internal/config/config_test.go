package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// Tests share viper's global state and the process environment, so none
// of them run in parallel.

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Port", cfg.Port, "5175"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"DBPath", cfg.DBPath, "data/stacks.db"},
		{"JWTExpiresDays", cfg.JWTExpiresDays, 14},
		{"CookieName", cfg.CookieName, "stacks_token"},
		{"AnonCookieName", cfg.AnonCookieName, "stacks_anon"},
		{"SecureCookies", cfg.SecureCookies, false},
		{"SaveDebounce", cfg.SaveDebounce, 750 * time.Millisecond},
		{"WordsAllowedFile", cfg.WordsAllowedFile, ""},
		{"SnapshotStore", cfg.SnapshotStore, "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
	if got := cfg.JWTTTL(); got != 14*24*time.Hour {
		t.Errorf("JWTTTL() = %v", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	tests := []struct {
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{"STACKS_PORT", "9000", func(c Config) any { return c.Port }, "9000"},
		{"STACKS_DB_PATH", "/tmp/x.db", func(c Config) any { return c.DBPath }, "/tmp/x.db"},
		{"STACKS_JWT_EXPIRES_DAYS", "3", func(c Config) any { return c.JWTExpiresDays }, 3},
		{"STACKS_SECURE_COOKIES", "true", func(c Config) any { return c.SecureCookies }, true},
		{"STACKS_SAVE_DEBOUNCE", "2s", func(c Config) any { return c.SaveDebounce }, 2 * time.Second},
		{"STACKS_DAILY_SALT", "pepper", func(c Config) any { return c.DailySalt }, "pepper"},
	}
	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			viper.Reset()
			t.Setenv(tt.envKey, tt.envVal)
			Init()

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			if got := tt.field(cfg); got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestLoadClampsExpiry(t *testing.T) {
	viper.Reset()
	viper.Set("jwt_expires_days", 0)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.JWTExpiresDays != 14 {
		t.Errorf("JWTExpiresDays = %d, want 14", cfg.JWTExpiresDays)
	}
}

func TestLoadRejectsUnknownSnapshotStore(t *testing.T) {
	viper.Reset()
	viper.Set("snapshot_store", "redis")
	if _, err := Load(); err == nil {
		t.Error("Load() accepted snapshot_store=redis")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(good, []byte("port = \"7000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("port = = 7000\n[unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"no default file", "", false},
		{"valid file", good, false},
		{"malformed file", bad, true},
		{"missing explicit file", filepath.Join(dir, "nope.toml"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			err := ReadFile(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadFile(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}

	viper.Reset()
	if err := ReadFile(good); err != nil {
		t.Fatalf("ReadFile(good): %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Port != "7000" {
		t.Errorf("Port = %q, want 7000 from file", cfg.Port)
	}
}
