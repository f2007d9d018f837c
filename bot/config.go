package bot

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "wallpostbot/core/config"
	coredatabase "wallpostbot/core/database"
	"wallpostbot/vk"
)

// MediaConfig controls local staging of incoming attachments.
type MediaConfig struct {
	// Dir is where attachments are staged before upload; empty means the
	// OS temp directory.
	Dir string `yaml:"dir" envconfig:"MEDIA_DIR"`
}

// Config is the full bot configuration: the shared core plus VK publishing,
// optional database, and media staging settings.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	VK       vk.Config           `yaml:"vk"`
	Database coredatabase.Config `yaml:"database"`
	Media    MediaConfig         `yaml:"media"`
}

// CoreConfig exposes the embedded core configuration for the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Core }

// LoadConfig reads the YAML file, overlays environment variables, and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.VK.Token) == "" {
		return nil, fmt.Errorf("vk.token is required")
	}
	if strings.TrimSpace(cfg.VK.GroupID) == "" {
		return nil, fmt.Errorf("vk.group_id is required")
	}
	return &cfg, nil
}
