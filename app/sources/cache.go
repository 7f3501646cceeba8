package sources

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type Cache struct {
	sourcesDir string
	cache      map[string]*Config
	mu         sync.RWMutex
}

func NewCache(sourcesDir string) *Cache {
	return &Cache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*Config),
	}
}

// Run loads every *.yml file from the sources directory into the cache.
func (c *Cache) Run() error {
	if _, err := os.Stat(c.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := c.LoadConfig(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source configuration loaded", "source", name,
			"city", config.City, "strategy", config.Strategy, "enabled", config.Settings.Enabled)
	}

	return nil
}

// LoadConfig reads, validates and caches a single source configuration.
func (c *Cache) LoadConfig(name string) (*Config, error) {
	path := filepath.Join(c.sourcesDir, name+".yml")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	config.Name = name

	setDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c.mu.Lock()
	c.cache[name] = &config
	c.mu.Unlock()

	return &config, nil
}

func (c *Cache) GetConfig(name string) (*Config, error) {
	c.mu.RLock()
	config, ok := c.cache[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown source: %s", name)
	}
	return config, nil
}

func (c *Cache) GetConfigs() []*Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	configs := make([]*Config, 0, len(c.cache))
	for _, config := range c.cache {
		configs = append(configs, config)
	}
	return configs
}

func (c *Cache) GetConfigCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func setDefaults(config *Config) {
	if config.Settings.MaxLinksPerPage == 0 {
		config.Settings.MaxLinksPerPage = 40
	}
	if config.Settings.MaxTabs == 0 {
		config.Settings.MaxTabs = 5
	}
	if config.Settings.MaxCategories == 0 {
		config.Settings.MaxCategories = 6
	}
	if config.Settings.TableTitleCell == 0 {
		config.Settings.TableTitleCell = 1
	}
	if config.Settings.TableDateCell == 0 {
		config.Settings.TableDateCell = 2
	}
	if config.Settings.MinContentLen == 0 {
		config.Settings.MinContentLen = 50
	}
	if config.Selectors.DetailTitle == "" {
		config.Selectors.DetailTitle = "h2"
	}
}

func validate(config *Config) error {
	if config.City == "" {
		return fmt.Errorf("city is required")
	}

	switch config.Strategy {
	case StrategyRecursive:
		if config.Selectors.Links == "" {
			return fmt.Errorf("links selector is required for recursive sources")
		}
		if config.Selectors.Stop == "" {
			return fmt.Errorf("stop selector is required for recursive sources")
		}
	case StrategyListDetail:
		if config.SeedURL == "" {
			return fmt.Errorf("seed_url is required for listdetail sources")
		}
		if config.Selectors.Categories == "" {
			return fmt.Errorf("categories selector is required for listdetail sources")
		}
	default:
		return fmt.Errorf("unknown strategy: %q", config.Strategy)
	}

	if config.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	return nil
}
