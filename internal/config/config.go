// Package config loads the CLI flags and JSON5 config file piju starts
// from, and validates that every path it names actually exists before the
// rest of the application wires up against them.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/titanous/json5"
)

// Config holds every externally-configurable knob recognized by piju.
// Per the design notes, nothing outside this set is honored.
type Config struct {
	// ConfigPath is the JSON5 file this Config was loaded from (-c FILE,
	// default $HOME/.pijudrc, overridable by PIJU_CONFIG).
	ConfigPath string
	// DatabasePath is the sqlite file (-d FILE). Must already exist.
	DatabasePath string

	Cookies    string `json:"cookies,omitempty"`
	MusicDir   string `json:"music_dir"`
	DownloadDir string `json:"download_dir"`
	ServerName string `json:"server_name"`

	// Port the HTTP surface binds to. Not part of the JSON5 schema in §6,
	// but the teacher's config layer exposes a PORT override and the spec's
	// wire contract names port 5000 as the default, so this is honored as
	// an environment-only override for local development.
	Port int
}

const defaultPort = 5000

// fileSchema is the exact shape recognized in the JSON5 config file.
type fileSchema struct {
	Cookies     string `json:"cookies"`
	MusicDir    string `json:"music_dir"`
	DownloadDir string `json:"download_dir"`
	ServerName  string `json:"server_name"`
}

// Flags mirrors the -c/-d command line switches. Parsed separately from
// Load so cmd/piju can wire cobra around it while keeping this package
// testable without a CLI framework in the loop.
type Flags struct {
	ConfigPath   string
	DatabasePath string
}

// ParseFlags registers and parses -c/-d using pflag, matching the CLI
// surface names/semantics.
func ParseFlags(args []string) (Flags, error) {
	fs := pflag.NewFlagSet("piju", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to JSON5 config file")
	dbPath := fs.StringP("database", "d", "", "path to sqlite database file (must exist)")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	return Flags{ConfigPath: *configPath, DatabasePath: *dbPath}, nil
}

// Load resolves the config file path (flag > PIJU_CONFIG env var >
// $HOME/.pijudrc), parses it as JSON5, validates every path it names
// exists, and folds in the -d database path. It returns a BadInput-shaped
// error (wrapped, not an apierr.Error, since this runs before the apierr
// package's HTTP translation is wired) describing the first validation
// failure so main can exit non-zero with a readable message.
func Load(flags Flags) (*Config, error) {
	path := flags.ConfigPath
	if path == "" {
		path = os.Getenv("PIJU_CONFIG")
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving default config path: %w", err)
		}
		path = filepath.Join(home, ".pijudrc")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	var fs fileSchema
	if err := json5.Unmarshal(raw, &fs); err != nil {
		return nil, fmt.Errorf("parsing config file %q as JSON5: %w", path, err)
	}

	cfg := &Config{
		ConfigPath:   path,
		DatabasePath: flags.DatabasePath,
		Cookies:      fs.Cookies,
		MusicDir:     fs.MusicDir,
		DownloadDir:  fs.DownloadDir,
		ServerName:   fs.ServerName,
		Port:         getEnvAsInt("PIJU_PORT", defaultPort),
	}

	if cfg.MusicDir == "" {
		return nil, fmt.Errorf("config %q: music_dir is required", path)
	}
	if cfg.DownloadDir == "" {
		return nil, fmt.Errorf("config %q: download_dir is required", path)
	}
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("-d FILE (database path) is required")
	}

	for name, p := range map[string]string{
		"music_dir":     cfg.MusicDir,
		"download_dir":  cfg.DownloadDir,
		"cookies":       cfg.Cookies,
		"database path": cfg.DatabasePath,
	} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%s %q: %w", name, p, err)
		}
	}

	return cfg, nil
}

func getEnvAsInt(name string, defaultVal int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return defaultVal
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return defaultVal
	}
	return n
}
