package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/propdash-cli/internal/analysis"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DefaultDomain string `mapstructure:"default_domain" yaml:"default_domain"`

	// Loader defaults
	Delimiter  string `mapstructure:"delimiter" yaml:"delimiter"`
	Encoding   string `mapstructure:"encoding" yaml:"encoding"`
	SheetName  string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex int    `mapstructure:"sheet_index" yaml:"sheet_index"`

	// Cleaning; current_year 0 follows the clock
	CurrentYear int `mapstructure:"current_year" yaml:"current_year"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogOutput string `mapstructure:"log_output" yaml:"log_output"`

	ServeAddr string `mapstructure:"serve_addr" yaml:"serve_addr"`
	ExportDir string `mapstructure:"export_dir" yaml:"export_dir"`

	// ExtraAliases maps a field key or canonical header to additional source headers.
	ExtraAliases map[string][]string `mapstructure:"extra_aliases" yaml:"extra_aliases,omitempty"`
}

// Dir returns ~/.propdash.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".propdash"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.propdash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults. A .env file in
// the working directory is loaded into the environment first; existing
// variables win.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PROPDASH")
	v.AutomaticEnv()

	v.SetDefault("default_domain", "for-sale")
	v.SetDefault("delimiter", "")
	v.SetDefault("encoding", "auto")
	v.SetDefault("sheet_name", "")
	v.SetDefault("sheet_index", 1)
	v.SetDefault("current_year", 0)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_output", "stderr")
	v.SetDefault("serve_addr", ":8080")
	v.SetDefault("export_dir", ".")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// A missing file is fine; a malformed one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Keys lists the settable scalar keys in display order.
func Keys() []string {
	return []string{
		"default_domain", "delimiter", "encoding", "sheet_name", "sheet_index", "current_year",
		"log_level", "log_format", "log_output", "serve_addr", "export_dir",
	}
}

// Set assigns one key from its string form. extra_aliases takes
// "field=alias1,alias2" and appends to that field's list.
func (c *Global) Set(key, val string) error {
	switch key {
	case "default_domain":
		d, err := analysis.ParseDomain(val)
		if err != nil {
			return err
		}
		c.DefaultDomain = string(d)
	case "delimiter":
		if val == `\t` || val == "tab" {
			val = "\t"
		}
		if len([]rune(val)) > 1 {
			return fmt.Errorf("invalid delimiter %q: want a single character", val)
		}
		c.Delimiter = val
	case "encoding":
		switch strings.ToLower(val) {
		case "auto", "utf-8", "utf8", "gb18030", "gbk", "gb2312":
			c.Encoding = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid encoding: %s (use auto, utf-8 or gb18030)", val)
		}
	case "sheet_name":
		c.SheetName = val
	case "sheet_index", "current_year":
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid %s: %s", key, val)
		}
		if key == "sheet_index" {
			c.SheetIndex = n
		} else {
			c.CurrentYear = n
		}
	case "log_level":
		switch val {
		case "debug", "info", "warn", "error":
			c.LogLevel = val
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		if val != "console" && val != "json" {
			return fmt.Errorf("invalid log_format: %s (use console or json)", val)
		}
		c.LogFormat = val
	case "log_output":
		c.LogOutput = val
	case "serve_addr":
		c.ServeAddr = val
	case "export_dir":
		c.ExportDir = val
	case "extra_aliases":
		field, list, ok := strings.Cut(val, "=")
		if !ok || strings.TrimSpace(field) == "" {
			return fmt.Errorf("invalid extra_aliases %q: want field=alias1,alias2", val)
		}
		if c.ExtraAliases == nil {
			c.ExtraAliases = map[string][]string{}
		}
		field = strings.TrimSpace(field)
		for _, a := range strings.Split(list, ",") {
			if a = strings.TrimSpace(a); a != "" {
				c.ExtraAliases[field] = append(c.ExtraAliases[field], a)
			}
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// Get renders a key for display.
func (c *Global) Get(key string) string {
	switch key {
	case "default_domain":
		return c.DefaultDomain
	case "delimiter":
		if c.Delimiter == "\t" {
			return `\t`
		}
		return c.Delimiter
	case "encoding":
		return c.Encoding
	case "sheet_name":
		return c.SheetName
	case "sheet_index":
		return strconv.Itoa(c.SheetIndex)
	case "current_year":
		return strconv.Itoa(c.CurrentYear)
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_output":
		return c.LogOutput
	case "serve_addr":
		return c.ServeAddr
	case "export_dir":
		return c.ExportDir
	case "extra_aliases":
		keys := make([]string, 0, len(c.ExtraAliases))
		for k := range c.ExtraAliases {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+strings.Join(c.ExtraAliases[k], ","))
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// DelimiterRune returns the configured delimiter or 0 for sniffing.
func (c *Global) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return 0
}
