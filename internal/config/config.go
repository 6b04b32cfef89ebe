// internal/config/config.go
//
// Process configuration.
// Sources, lowest to highest precedence:
//   - built-in defaults (below);
//   - a .env file in the working directory (godotenv, loaded by the binaries);
//   - the environment (PORT, LOG_LEVEL, GRID_SIZE, ...);
//   - command-line flags, when a binary binds them with BindFlags.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/robalobadob/wordsearch/internal/game"
	"github.com/robalobadob/wordsearch/internal/store"
	"github.com/robalobadob/wordsearch/internal/words"
)

const devSecret = "dev_secret_change_me"

// Config is the resolved configuration of a binary.
type Config struct {
	Port         string
	LogLevel     string
	ClientOrigin string
	JWTSecret    string
	TokenTTL     time.Duration
	DailySalt    string
	GridSize     int
	WordsFile    string
	StoreDriver  string // memory | sqlite
	DBPath       string
}

// New returns a viper instance with defaults set and the environment bound.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", "5175")
	v.SetDefault("log_level", "info")
	v.SetDefault("client_origin", "http://localhost:5173")
	v.SetDefault("jwt_secret", devSecret)
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("daily_salt", "local_dev_salt")
	v.SetDefault("grid_size", 12)
	v.SetDefault("words_file", "")
	v.SetDefault("store_driver", "memory")
	v.SetDefault("db_path", store.MemoryDSN)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags registers the flags shared by the binaries on fs and binds
// them into v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.Int("grid-size", v.GetInt("grid_size"), "grid dimension")
	fs.String("words-file", v.GetString("words_file"), "YAML word list (built-in animals when empty)")
	fs.String("log-level", v.GetString("log_level"), "zerolog level")
	for key, flag := range map[string]string{
		"grid_size":  "grid-size",
		"words_file": "words-file",
		"log_level":  "log-level",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load resolves v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{
		Port:         v.GetString("port"),
		LogLevel:     v.GetString("log_level"),
		ClientOrigin: v.GetString("client_origin"),
		JWTSecret:    v.GetString("jwt_secret"),
		TokenTTL:     v.GetDuration("token_ttl"),
		DailySalt:    v.GetString("daily_salt"),
		GridSize:     v.GetInt("grid_size"),
		WordsFile:    v.GetString("words_file"),
		StoreDriver:  strings.ToLower(v.GetString("store_driver")),
		DBPath:       v.GetString("db_path"),
	}
	if c.GridSize <= 0 || c.GridSize > game.MaxSize {
		return nil, fmt.Errorf("config: GRID_SIZE must be in 1..%d, got %d", game.MaxSize, c.GridSize)
	}
	if c.TokenTTL <= 0 {
		return nil, fmt.Errorf("config: TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	switch c.StoreDriver {
	case "memory", "sqlite":
	default:
		return nil, fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	if c.JWTSecret == devSecret {
		log.Warn().Msg("JWT_SECRET not set; using development secret")
	}
	return c, nil
}

// ApplyLogLevel sets the global zerolog level from c.
func (c *Config) ApplyLogLevel() {
	if lvl, err := zerolog.ParseLevel(c.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}

// Words returns the configured word list: WORDS_FILE when set, otherwise
// the built-in list.
func (c *Config) Words() ([]words.Entry, error) {
	if c.WordsFile == "" {
		return words.Default()
	}
	return words.LoadFile(c.WordsFile)
}
