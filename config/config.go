package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"git.pepabo.com/yukyan/gh-scope-collision/github/model"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is read once at startup and passed down explicitly.
type Config struct {
	Token        string
	Mode         model.Mode
	EventPath    string
	Host         string
	Timeout      time.Duration
	LogLevel     string
	OutputFormat string
	DryRun       bool
}

const (
	keyToken        = "token"
	keyMode         = "mode"
	keyEventPath    = "event_path"
	keyHost         = "host"
	keyServerURL    = "server_url"
	keyTimeout      = "timeout"
	keyLogLevel     = "log_level"
	keyOutputFormat = "output_format"
	keyDryRun       = "dry_run"
)

// RegisterFlags adds the command-line overrides to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("mode", "", "Collision handling for pull requests: warn or block (env COORD_MODE)")
	fs.String("event-path", "", "Path to the webhook event payload (env GITHUB_EVENT_PATH)")
	fs.String("host", "", "GitHub host (env GH_HOST, default derived from GITHUB_SERVER_URL)")
	fs.Duration("timeout", 0, "HTTP timeout for API calls (env COORD_TIMEOUT)")
	fs.String("log-level", "", "Log level: debug, info, warn, error (env COORD_LOG_LEVEL)")
	fs.String("output-format", "", "Report format: text or json (env COORD_OUTPUT_FORMAT)")
	fs.Bool("dry-run", false, "Render the collision comment without posting it (env COORD_DRY_RUN)")
}

// New returns a viper instance bound to the environment and, when fs is not nil, to its flags.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(keyMode, string(model.ModeWarn))
	v.SetDefault(keyTimeout, "30s")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyOutputFormat, "text")
	v.SetDefault(keyDryRun, false)

	envs := map[string][]string{
		keyToken:        {"GITHUB_TOKEN", "GH_TOKEN"},
		keyMode:         {"COORD_MODE"},
		keyEventPath:    {"GITHUB_EVENT_PATH"},
		keyHost:         {"GH_HOST"},
		keyServerURL:    {"GITHUB_SERVER_URL"},
		keyTimeout:      {"COORD_TIMEOUT"},
		keyLogLevel:     {"COORD_LOG_LEVEL"},
		keyOutputFormat: {"COORD_OUTPUT_FORMAT"},
		keyDryRun:       {"COORD_DRY_RUN"},
	}
	for key, names := range envs {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if fs == nil {
		return v, nil
	}

	flags := map[string]string{
		keyMode:         "mode",
		keyEventPath:    "event-path",
		keyHost:         "host",
		keyTimeout:      "timeout",
		keyLogLevel:     "log-level",
		keyOutputFormat: "output-format",
		keyDryRun:       "dry-run",
	}
	for key, name := range flags {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	return v, nil
}

// Load reads and validates the configuration. A missing token fails before anything else.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Token:        strings.TrimSpace(v.GetString(keyToken)),
		Mode:         model.ParseMode(v.GetString(keyMode)),
		EventPath:    v.GetString(keyEventPath),
		Host:         resolveHost(v.GetString(keyHost), v.GetString(keyServerURL)),
		LogLevel:     strings.ToLower(v.GetString(keyLogLevel)),
		OutputFormat: strings.ToLower(v.GetString(keyOutputFormat)),
		DryRun:       v.GetBool(keyDryRun),
	}

	if cfg.Token == "" {
		return cfg, fmt.Errorf("%w: missing GITHUB_TOKEN", model.ErrMisconfigured)
	}
	if cfg.EventPath == "" {
		return cfg, fmt.Errorf("%w: missing GITHUB_EVENT_PATH, cannot run in this environment", model.ErrMisconfigured)
	}
	if cfg.OutputFormat != "text" && cfg.OutputFormat != "json" {
		return cfg, fmt.Errorf("%w: invalid output format %q (use text or json)", model.ErrMisconfigured, cfg.OutputFormat)
	}

	timeout, err := parseTimeout(v.GetString(keyTimeout))
	if err != nil {
		return cfg, err
	}
	cfg.Timeout = timeout

	return cfg, nil
}

// A bare integer is taken as seconds.
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 30 * time.Second, nil
	}

	var d time.Duration
	if secs, err := strconv.Atoi(raw); err == nil {
		d = time.Duration(secs) * time.Second
	} else if d, err = time.ParseDuration(raw); err != nil {
		return 0, fmt.Errorf("%w: invalid COORD_TIMEOUT %q", model.ErrMisconfigured, raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: invalid COORD_TIMEOUT %q", model.ErrMisconfigured, raw)
	}
	return d, nil
}

func resolveHost(host, serverURL string) string {
	if host = strings.TrimSpace(host); host != "" {
		return host
	}
	if u, err := url.Parse(strings.TrimSpace(serverURL)); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return "github.com"
}
