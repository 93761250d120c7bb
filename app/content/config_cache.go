package content

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type ConfigCache struct {
	contentDir string
	cache      map[string]*Config
	mu         sync.RWMutex
}

func NewConfigCache(contentDir string) *ConfigCache {
	return &ConfigCache{
		contentDir: contentDir,
		cache:      make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.contentDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.contentDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		// Derive content type from filename (remove .yml extension)
		contentType := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := cc.LoadConfig(contentType)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "content_type", contentType, "mode", config.Source.Mode, "enabled", config.Settings.Enabled)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(contentType string) (*Config, error) {
	configFile := cc.getConfigFilePath(contentType)
	config, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	// Set content type from parameter
	config.Type = contentType

	if err := cc.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Type] = config

	return config, nil
}

func (cc *ConfigCache) GetConfig(contentType string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[contentType]
	if !ok {
		return nil, fmt.Errorf("content type config '%s' not found", contentType)
	}
	return config, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if config.Settings.PageSize == 0 {
		config.Settings.PageSize = 10
	}
	if config.Settings.CacheTTL == 0 {
		config.Settings.CacheTTL = 900
	}
	if config.Settings.ExcerptWords == 0 {
		config.Settings.ExcerptWords = DefaultExcerptWords
	}
	if config.Settings.Timeout == 0 {
		config.Settings.Timeout = 30
	}

	return &config, nil
}

func (cc *ConfigCache) validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	switch config.Source.Mode {
	case SourceModeFilesystem:
		if config.Source.Dir == "" {
			return fmt.Errorf("source dir is required in filesystem mode")
		}
	case SourceModeRemote:
		if config.Source.URL == "" {
			return fmt.Errorf("source URL is required in remote mode")
		}
	default:
		return fmt.Errorf("invalid source mode: %s", config.Source.Mode)
	}

	nonNegativeFields := map[string]int{
		"page size":     config.Settings.PageSize,
		"cache TTL":     config.Settings.CacheTTL,
		"excerpt words": config.Settings.ExcerptWords,
		"timeout":       config.Settings.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if config.Assets.Dir != "" && config.Assets.BasePath == "" {
		return fmt.Errorf("assets base_path is required when assets dir is set")
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(contentType string) string {
	return filepath.Join(cc.contentDir, contentType+".yml")
}
