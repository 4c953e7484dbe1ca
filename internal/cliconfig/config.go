// Package cliconfig loads markql's outer-glue configuration (spec
// §6's CLI and HTTP agent), in ascending precedence: a YAML file
// located under the user's config home, environment variables, then
// command-line flags (applied by the caller after Load returns).
//
// The engine itself (lexer/parser/validator/executor, spec §4) takes
// no configuration beyond explicit call arguments — only the CLI and
// agent processes around it read this.
package cliconfig

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config is markql's outer-glue configuration.
type Config struct {
	TimeoutMs  int    `yaml:"timeout_ms"`
	Color      bool   `yaml:"color"`
	AgentPort  int    `yaml:"agent_port"`
	AgentToken string `yaml:"agent_token"`
}

// Default returns markql's built-in defaults, used when no config
// file exists and no environment variable or flag overrides a field.
func Default() Config {
	return Config{TimeoutMs: 30000, Color: true, AgentPort: 8080}
}

// Path resolves the default config file location under the XDG config
// home, the way aretext locates "aretext/config.yaml".
func Path() (string, error) {
	return xdg.ConfigFile(filepath.Join("markql", "config.yaml"))
}

// Load reads cfgPath (or the XDG default when cfgPath is empty),
// falling back to Default() when the file doesn't exist, then applies
// environment variable overrides.
func Load(cfgPath string) (Config, error) {
	cfg := Default()

	path := cfgPath
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MARKQL_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("MARKQL_COLOR"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Color = b
		}
	}
	if v := os.Getenv("MARKQL_AGENT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AgentPort = n
		}
	}
	if v := os.Getenv("MARKQL_AGENT_TOKEN"); v != "" {
		cfg.AgentToken = v
	}
}
