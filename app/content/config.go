package content

import (
	"time"
)

// Configuration types for content type definitions loaded from
// <content-dir>/<type>.yml.

const (
	SourceModeFilesystem = "filesystem"
	SourceModeRemote     = "remote"
)

type Config struct {
	Type     string         // Derived from filename (without .yml extension)
	Source   ConfigSource   `yaml:"source"`
	Settings ConfigSettings `yaml:"settings"`
	Assets   ConfigAssets   `yaml:"assets"`
}

type ConfigSource struct {
	Mode     string `yaml:"mode"`
	Dir      string `yaml:"dir"`       // filesystem mode
	URL      string `yaml:"url"`       // remote mode
	TokenEnv string `yaml:"token_env"` // remote mode, env var holding the API token
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	PageSize        int  `yaml:"page_size"`
	CacheTTL        int  `yaml:"cache_ttl"` // seconds
	ExcerptWords    int  `yaml:"excerpt_words"`
	Timeout         int  `yaml:"timeout"` // seconds
	ExtractExternal bool `yaml:"extract_external"`
}

type ConfigAssets struct {
	Dir      string `yaml:"dir"`       // per-slug image asset root on disk
	BasePath string `yaml:"base_path"` // URL prefix rewritten into image sources
}

func (s *ConfigSettings) GetCacheTTL() time.Duration {
	if s.CacheTTL <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.CacheTTL) * time.Second
}

func (s *ConfigSettings) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}
