package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ProjectConfig struct {
	Version         int          `yaml:"version"`
	AnnotationField string       `yaml:"annotation_field"`
	Delimiter       string       `yaml:"delimiter"`
	KeyMap          KeyMap       `yaml:"keymap"`
	Store           StoreConfig  `yaml:"store"`
	Neo4j           Neo4jConfig  `yaml:"neo4j"`
	Zotero          ZoteroConfig `yaml:"zotero"`
	Watch           WatchConfig  `yaml:"watch"`
}

type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type ZoteroConfig struct {
	LibraryID   string `yaml:"library_id"`
	LibraryType string `yaml:"library_type"`
	APIKey      string `yaml:"api_key"`
}

type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

const defaultDebounce = 500 * time.Millisecond

func (w WatchConfig) DebounceDuration() time.Duration {
	if w.Debounce == "" {
		return defaultDebounce
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return defaultDebounce
	}
	return d
}

// Default returns the configuration used when no project file exists.
func Default() *ProjectConfig {
	return &ProjectConfig{
		Version:         1,
		AnnotationField: DefaultAnnotationField,
		Delimiter:       TagDelimiter,
		KeyMap:          DefaultKeyMap(),
		Neo4j: Neo4jConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		Watch: WatchConfig{Debounce: defaultDebounce.String()},
	}
}

// LoadProjectConfig reads a project file over the defaults.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateProjectConfig(cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like LoadProjectConfig but falls back to Default when
// the file does not exist.
func LoadOrDefault(path string) (*ProjectConfig, error) {
	cfg, err := LoadProjectConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *ProjectConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding project config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing project config: %w", err)
	}
	return nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.AnnotationField) == "" {
		return fmt.Errorf("annotation field is required")
	}
	if cfg.Delimiter == "" {
		return fmt.Errorf("delimiter is required")
	}
	if err := ValidateKeyMap(cfg.KeyMap); err != nil {
		return err
	}
	switch cfg.Zotero.LibraryType {
	case "", "user", "group":
	default:
		return fmt.Errorf("zotero library type must be user or group: %s", cfg.Zotero.LibraryType)
	}
	return nil
}

// ValidateKeyMap enforces the index columns every key map must start with.
func ValidateKeyMap(km KeyMap) error {
	if len(km.ZoteroKeys) != len(km.CypherKeys) {
		return fmt.Errorf("keymap lists differ in length: %d zotero keys, %d cypher keys", len(km.ZoteroKeys), len(km.CypherKeys))
	}
	if len(km.ZoteroKeys) < 2 {
		return fmt.Errorf("keymap requires at least the Key and Title columns")
	}
	if km.ZoteroKeys[0] != "Key" || km.CypherKeys[0] != "zotero_key" {
		return fmt.Errorf("keymap must map Key to zotero_key first")
	}
	if km.ZoteroKeys[1] != "Title" || km.CypherKeys[1] != "title" {
		return fmt.Errorf("keymap must map Title to title second")
	}
	seen := make(map[string]struct{})
	for _, key := range km.CypherKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("keymap has an empty cypher key")
		}
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate cypher key: %s", key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Environment overrides, usually supplied through a .env file.
const (
	EnvStoreDSN      = "SCRIBL_STORE_DSN"
	EnvNeo4jURI      = "SCRIBL_NEO4J_URI"
	EnvNeo4jUsername = "SCRIBL_NEO4J_USERNAME"
	EnvNeo4jPassword = "SCRIBL_NEO4J_PASSWORD"
	EnvZoteroAPIKey  = "SCRIBL_ZOTERO_API_KEY"
)

// LoadEnv loads the given dotenv files into the process environment. Missing
// files are skipped.
func LoadEnv(paths ...string) error {
	var existing []string
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading env: %w", err)
	}
	return nil
}

func (c *ProjectConfig) ApplyEnv() {
	c.applyEnv(os.LookupEnv)
}

func (c *ProjectConfig) applyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvStoreDSN, &c.Store.DSN},
		{EnvNeo4jURI, &c.Neo4j.URI},
		{EnvNeo4jUsername, &c.Neo4j.Username},
		{EnvNeo4jPassword, &c.Neo4j.Password},
		{EnvZoteroAPIKey, &c.Zotero.APIKey},
	}
	for _, o := range overrides {
		if value, ok := lookup(o.key); ok && value != "" {
			*o.target = value
		}
	}
}
