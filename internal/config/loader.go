package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
)

// FileEnv names the environment variable holding the config file path.
const FileEnv = "WORKSPACE_CONFIG"

// Load reads configuration. If path is empty, the file named by
// WORKSPACE_CONFIG is used when set. For each field the environment value
// wins over the file value, which wins over the default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(FileEnv)
	}

	var tree *toml.Tree
	if path != "" {
		t, err := toml.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config load: %s: %w", path, err)
		}
		tree = t
	}

	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(cfg).Elem(), tree, nil); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields. prefix is the TOML table
// path of v.
func loadStruct(v reflect.Value, tree *toml.Tree, prefix []string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		key := field.Tag.Get("toml")
		if key == "" {
			key = strings.ToLower(field.Name)
		}
		path := append(append([]string(nil), prefix...), key)

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, tree, path); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		source := envName
		value := ""
		if envName != "" {
			value = os.Getenv(envName)
			if value == "" && envAlt != "" {
				value = os.Getenv(envAlt)
			}
		}

		if value == "" && tree != nil && tree.HasPath(path) {
			value = tomlString(tree.GetPath(path))
			source = strings.Join(path, ".")
		}

		if value == "" {
			if required {
				return fmt.Errorf("required setting %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", source, value, err)
		}
	}

	return nil
}

// tomlString renders a decoded TOML value in the same text form the
// environment uses, so both pass through setField.
func tomlString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []interface{}:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = tomlString(e)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(x)
	}
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Workspace validation
	if c.Workspace.HistoryCapacity < 1 {
		errs = append(errs, "WORKSPACE_HISTORY_CAPACITY must be at least 1")
	}
	if c.Workspace.MaxUploadBytes <= 0 {
		errs = append(errs, "WORKSPACE_MAX_UPLOAD_BYTES must be positive")
	}
	if c.Workspace.MaxConcurrentImports <= 0 {
		errs = append(errs, "WORKSPACE_MAX_CONCURRENT_IMPORTS must be positive")
	}
	if c.Workspace.ImportWait <= 0 {
		errs = append(errs, "WORKSPACE_IMPORT_WAIT must be positive")
	}
	if c.Workspace.SeedDir != "" {
		if info, err := os.Stat(c.Workspace.SeedDir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Sprintf("WORKSPACE_SEED_DIR (%q) must be an existing directory", c.Workspace.SeedDir))
		}
	}

	// Database validation, only when a database is configured
	if c.Database.UsesDatabase() {
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
	}

	// Rate limit validation
	if c.Rate.Enabled {
		if c.Rate.RequestsPerMinute <= 0 {
			errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
		}
		if c.Rate.Burst <= 0 {
			errs = append(errs, "RATE_LIMIT_BURST must be positive when rate limiting is enabled")
		}
		if c.Rate.UploadLimit <= 0 {
			errs = append(errs, "RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
		}
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "API_KEYS must be set when SECURITY_REQUIRE_API_KEY is true")
	}

	// Audit validation
	if c.Audit.Retention <= 0 {
		errs = append(errs, "AUDIT_RETENTION must be positive")
	}
	if c.Audit.MemoryCapacity <= 0 {
		errs = append(errs, "AUDIT_MEMORY_CAPACITY must be positive")
	}
	if c.Audit.CheckInterval <= 0 {
		errs = append(errs, "AUDIT_CHECK_INTERVAL must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.New("validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	dbURL := ""
	if c.Database.UsesDatabase() {
		dbURL = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Workspace: {HistoryCapacity: %d, SeedDir: %q, MaxUploadBytes: %d}, ",
		c.Workspace.HistoryCapacity, c.Workspace.SeedDir, c.Workspace.MaxUploadBytes)
	fmt.Fprintf(&b, "Database: {URL: %q, MaxConns: %d, MinConns: %d}, ",
		dbURL, c.Database.MaxConns, c.Database.MinConns)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d, Burst: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.Burst)
	fmt.Fprintf(&b, "Security: {RequireAPIKey: %v, APIKeys: %d configured}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys))
	fmt.Fprintf(&b, "Audit: {Retention: %s, MemoryCapacity: %d}, ",
		c.Audit.Retention, c.Audit.MemoryCapacity)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
