package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/mischief/pkg/core"
)

const (
	// ConfigFile is the name of the configuration file looked up by FindRoot.
	ConfigFile = "mischief.yaml"
	// DefaultDataDir is the data directory used when none is configured.
	DefaultDataDir = "data"
	// DefaultListen is the HTTP listen address used when none is configured.
	DefaultListen = ":8000"
)

// DefaultPrincipals returns the principals seeded on first start.
func DefaultPrincipals() []core.Principal {
	return []core.Principal{
		{Name: "Harry", Credential: "harry_secret_key_123"},
		{Name: "Hermione", Credential: "hermione_secret_key_456"},
		{Name: "Ron", Credential: "ron_secret_key_789"},
		{Name: "Hagrid", Credential: "hagrid_secret_key_012"},
		{Name: core.DefaultAdministrator, Credential: "dumbledore_admin_key_999"},
	}
}

// Config is the on-disk configuration of a note store deployment.
type Config struct {
	DataDir       string           `yaml:"data_dir"`
	Administrator string           `yaml:"administrator"`
	Listen        string           `yaml:"listen"`
	ReadOnly      bool             `yaml:"read_only"`
	KeyFile       string           `yaml:"key_file,omitempty"`
	Principals    []core.Principal `yaml:"principals"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		DataDir:       DefaultDataDir,
		Administrator: core.DefaultAdministrator,
		Listen:        DefaultListen,
		Principals:    DefaultPrincipals(),
	}
}

// LoadConfig reads the YAML configuration at path. A missing file yields the
// defaults; fields absent from the file keep their default values. Relative
// paths in the file are resolved against the file's directory.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	if file.DataDir != "" {
		cfg.DataDir = resolve(base, file.DataDir)
	} else {
		cfg.DataDir = resolve(base, cfg.DataDir)
	}
	if file.KeyFile != "" {
		cfg.KeyFile = resolve(base, file.KeyFile)
	}
	if file.Administrator != "" {
		cfg.Administrator = file.Administrator
	}
	if file.Listen != "" {
		cfg.Listen = file.Listen
	}
	if file.Principals != nil {
		cfg.Principals = file.Principals
	}
	cfg.ReadOnly = file.ReadOnly

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the administrator and principal names are well formed
// and that principal names are unique.
func (c Config) Validate() error {
	if _, err := core.NormalizeName(c.Administrator); err != nil {
		return fmt.Errorf("administrator: %w", err)
	}
	seen := make(map[string]bool, len(c.Principals))
	credentials := make(map[string]bool, len(c.Principals))
	for i, p := range c.Principals {
		name, err := core.NormalizeName(p.Name)
		if err != nil {
			return fmt.Errorf("principal #%d: %w", i+1, err)
		}
		if p.Credential == "" {
			return fmt.Errorf("principal %q has no credential: %w", name, core.ErrInvalidArgument)
		}
		if seen[name] {
			return fmt.Errorf("principal %q: %w", name, core.ErrAlreadyExists)
		}
		if credentials[p.Credential] {
			return fmt.Errorf("principal %q reuses a credential: %w", name, core.ErrAlreadyExists)
		}
		seen[name] = true
		credentials[p.Credential] = true
	}
	return nil
}

// Options converts the configuration into functional options.
func (c Config) Options() []Option {
	opts := []Option{
		WithAdministrator(c.Administrator),
		WithPrincipals(c.Principals),
		WithReadOnly(c.ReadOnly),
	}
	if c.KeyFile != "" {
		opts = append(opts, WithKeyFile(c.KeyFile))
	}
	return opts
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
