package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. CHEESE_PORT.
const EnvPrefix = "CHEESE"

// BindFlags registers server flags backed by cfg.
func BindFlags(fs *pflag.FlagSet, cfg *AppConfig) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", cfg.Bind, "address to bind to (env: CHEESE_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on (env: CHEESE_PORT)")
	fs.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "path to prepend to all URLs, for use behind reverse proxy (env: CHEESE_PREFIX)")
	fs.StringVar(&cfg.TLSCert, "tls-cert", cfg.TLSCert, "path to tls certificate (env: CHEESE_TLS_CERT)")
	fs.StringVar(&cfg.TLSKey, "tls-key", cfg.TLSKey, "path to tls keyfile (env: CHEESE_TLS_KEY)")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "redis:// URL for the move feed; empty disables it (env: CHEESE_REDIS_URL)")
	fs.StringVar(&cfg.FeedChannel, "feed-channel", cfg.FeedChannel, "redis pub/sub channel for accepted moves (env: CHEESE_FEED_CHANNEL)")
	fs.BoolVar(&cfg.TurnNotice, "turn-notice", cfg.TurnNotice, "answer off-turn moves with not_your_turn instead of dropping them (env: CHEESE_TURN_NOTICE)")
	fs.IntVar(&cfg.SendQueue, "send-queue", cfg.SendQueue, "outgoing frames buffered per connection (env: CHEESE_SEND_QUEUE)")
	fs.StringVar(&cfg.MessagesDir, "messages-dir", cfg.MessagesDir, "directory of yaml message overrides (env: CHEESE_MESSAGES_DIR)")
	fs.IntVar(&cfg.SquareSize, "square-size", cfg.SquareSize, "pixel size of one square in /board.png (env: CHEESE_SQUARE_SIZE)")
	fs.BoolVar(&cfg.Profile, "profile", cfg.Profile, "register net/http/pprof handlers (env: CHEESE_PROFILE)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "log debug events (env: CHEESE_VERBOSE)")
}

// ApplyEnv fills every flag the user did not set from CHEESE_* variables.
func ApplyEnv(fs *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var firstErr error
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("env for --%s: %w", f.Name, err)
			}
		}
	})
	return firstErr
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment. A
// missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
