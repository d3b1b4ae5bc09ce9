package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Loader loads Config from, in descending precedence: CLI flags bound via
// viper.BindPFlag, CONDUCTOR_* environment variables, a project
// .conductor/config.yaml, a user ~/.config/conductor/config.yaml, and
// finally the defaults set below — matching the teacher's Loader
// precedence order exactly.
type Loader struct {
	v          *viper.Viper
	configFile string
	mu         sync.Mutex
}

// NewLoader creates a Loader with a fresh viper instance.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// NewLoaderWithViper builds a Loader around an existing viper instance so
// a cobra command's PersistentFlags can be bound before Load runs.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// WithConfigFile pins Load to one explicit config file, bypassing the
// project/user search path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads configuration from every source and returns the merged
// Config.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.setDefaults()

	l.v.SetEnvPrefix("CONDUCTOR")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".conductor")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "conductor"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// ConfigFile returns the config file path actually used, if any.
func (l *Loader) ConfigFile() string {
	if l.configFile != "" {
		return l.configFile
	}
	return l.v.ConfigFileUsed()
}

// WriteDefault renders conductor's default configuration as YAML and
// writes it to path atomically via AtomicWrite, creating the project
// .conductor/config.yaml a user has not yet customized. It returns the
// written content's ETag so the caller (conductor config init) can report
// what it wrote without a second read.
func (l *Loader) WriteDefault(path string) (string, error) {
	defaults := Config{
		Log:       LogConfig{Level: "info", Format: "auto"},
		Discovery: DiscoveryConfig{ExtraSearchPaths: []string{}, Watch: false},
		Runtime:   RuntimeConfig{BroadcastCapacity: 1000, DefaultConcurrency: 4},
	}
	data, err := yaml.Marshal(defaults)
	if err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}
	if err := AtomicWrite(path, data); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return CalculateETag(data), nil
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("discovery.extra_search_paths", []string{})
	l.v.SetDefault("discovery.watch", false)

	l.v.SetDefault("runtime.broadcast_capacity", 1000)
	l.v.SetDefault("runtime.default_concurrency", 4)
}
