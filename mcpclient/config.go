package mcpclient

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig is one entry of mcp.yaml's servers map.
type ServerConfig struct {
	Transport   string            `yaml:"transport"`
	Command     string            `yaml:"command,omitempty"`
	Args        []string          `yaml:"args,omitempty"`
	URL         string            `yaml:"url,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	Cwd         string            `yaml:"cwd,omitempty"`
	Enabled     bool              `yaml:"enabled"`
	AutoConnect bool              `yaml:"auto_connect"`
	// BearerJWT, when set, signs a short-lived JWT with the referenced key
	// and attaches it as the HTTP transport's Authorization header instead
	// of a static header value.
	BearerJWT *JWTAuthConfig `yaml:"bearer_jwt,omitempty"`
}

// JWTAuthConfig configures client-side JWT signing for HTTP MCP servers
// that require a signed bearer token rather than a static API key.
type JWTAuthConfig struct {
	KeyPath  string        `yaml:"key_path"`
	KeyID    string        `yaml:"kid,omitempty"`
	Issuer   string        `yaml:"issuer,omitempty"`
	Audience string        `yaml:"audience,omitempty"`
	Subject  string        `yaml:"subject,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

// Settings holds the mcp.yaml settings block.
type Settings struct {
	AutoConnect       bool          `yaml:"auto_connect"`
	ReconnectAttempts int           `yaml:"reconnect_attempts"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	Timeout           time.Duration `yaml:"timeout"`
}

// Config is the full parsed mcp.yaml document.
type Config struct {
	Servers  map[string]ServerConfig `yaml:"servers"`
	Settings Settings                `yaml:"settings"`
}

func defaultSettings() Settings {
	return Settings{
		AutoConnect:       true,
		ReconnectAttempts: 5,
		ReconnectDelay:    2 * time.Second,
		Timeout:           30 * time.Second,
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)

func expandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

func expandServerConfig(c ServerConfig) ServerConfig {
	c.Command = expandEnv(c.Command)
	c.URL = expandEnv(c.URL)
	c.Cwd = expandEnv(c.Cwd)
	for i, a := range c.Args {
		c.Args[i] = expandEnv(a)
	}
	for k, v := range c.Headers {
		c.Headers[k] = expandEnv(v)
	}
	for k, v := range c.Env {
		c.Env[k] = expandEnv(v)
	}
	return c
}

// Load parses an mcp.yaml document from path, applying ${ENV} expansion to
// each server's command, args, url, cwd, headers and env values (other
// fields are left as written). A missing file is not an error — it yields an
// empty Config with default settings, since mcp.yaml is optional per §6.
func Load(path string) (*Config, error) {
	cfg := &Config{Servers: map[string]ServerConfig{}, Settings: defaultSettings()}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mcpclient: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("mcpclient: parse %s: %w", path, err)
	}
	if cfg.Servers == nil {
		cfg.Servers = map[string]ServerConfig{}
	}

	for name, sc := range cfg.Servers {
		cfg.Servers[name] = expandServerConfig(sc)
	}
	return cfg, nil
}

// Merge layers override's servers and settings on top of base — the
// project-level mcp.yaml wins per server name, matching the global/project
// layering the permission and config packages already use.
func Merge(base, override *Config) *Config {
	merged := &Config{Servers: map[string]ServerConfig{}, Settings: base.Settings}
	for name, sc := range base.Servers {
		merged.Servers[name] = sc
	}
	if override == nil {
		return merged
	}
	for name, sc := range override.Servers {
		merged.Servers[name] = sc
	}
	if (override.Settings != Settings{}) {
		merged.Settings = override.Settings
	}
	return merged
}
