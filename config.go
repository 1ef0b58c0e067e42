package fixturesql

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/magiconair/properties"
)

// Property file names under env/<layer>/
const (
	dbPropertiesName  = "db"
	webPropertiesName = "web"
)

// db.properties keys
const (
	keyDBDriver           = "db_driver"
	keyDBConnectionString = "db_connection_string"
	keyDBCommandTimeout   = "db_command_timeout"
	keyDBBatchSeparator   = "db_batch_separator"
)

// web.properties keys
const (
	keyBrowser        = "browser"
	keyHeadless       = "headless"
	keySlowMo         = "slow_mo"
	keyViewportWidth  = "viewport_width"
	keyViewportHeight = "viewport_height"
	keyBaseURL        = "base_url"
)

// Defaults for unset keys
const (
	DefaultDBDriver         = driverSQLServer
	DefaultConnectionString = "Server=localhost;Database=mydb;Integrated Security=true;TrustServerCertificate=true;"
	DefaultBrowser          = "chromium"
	DefaultViewportWidth    = 1280
	DefaultViewportHeight   = 720
)

// supportedBrowsers lists the accepted browser values
var supportedBrowsers = []string{"chromium", "firefox", "webkit"}

// DBConfig holds the store settings from db.properties.
type DBConfig struct {
	Driver           string
	ConnectionString string
	CommandTimeout   time.Duration
	BatchSeparator   string
}

// WebConfig holds the browser and API settings from web.properties.
type WebConfig struct {
	Browser        string
	Headless       bool
	SlowMo         float64 // milliseconds
	ViewportWidth  int
	ViewportHeight int
	BaseURL        string
}

// RequireBaseURL returns the base URL or a *ConfigurationError when it is not configured.
func (c WebConfig) RequireBaseURL() (string, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return "", &ConfigurationError{Key: keyBaseURL, Source: layerPath(webPropertiesName, "local")}
	}
	return c.BaseURL, nil
}

// LoadDBConfig reads env/default/db.properties and env/local/db.properties under root.
// Later layers win, and environment variables (DB_DRIVER, DB_CONNECTION_STRING, ...) win over files.
func LoadDBConfig(root string) (DBConfig, error) {
	props, err := loadLayeredProperties(root, dbPropertiesName)
	if err != nil {
		return DBConfig{}, err
	}

	timeoutSeconds, err := props.getInt(keyDBCommandTimeout, int(DefaultCommandTimeout/time.Second))
	if err != nil {
		return DBConfig{}, err
	}
	if timeoutSeconds < 0 {
		return DBConfig{}, props.invalid(keyDBCommandTimeout, errors.New("must not be negative"))
	}

	return DBConfig{
		Driver:           props.getString(keyDBDriver, DefaultDBDriver),
		ConnectionString: props.getString(keyDBConnectionString, DefaultConnectionString),
		CommandTimeout:   time.Duration(timeoutSeconds) * time.Second,
		BatchSeparator:   props.getString(keyDBBatchSeparator, DefaultBatchSeparator),
	}, nil
}

// LoadWebConfig reads env/default/web.properties and env/local/web.properties under root.
// Environment variables are the key upper-cased with a WEB_ prefix, e.g. WEB_BASE_URL.
func LoadWebConfig(root string) (WebConfig, error) {
	props, err := loadLayeredProperties(root, webPropertiesName)
	if err != nil {
		return WebConfig{}, err
	}

	cfg := WebConfig{
		Browser: strings.ToLower(props.getString(keyBrowser, DefaultBrowser)),
		BaseURL: props.getString(keyBaseURL, ""),
	}
	if !slices.Contains(supportedBrowsers, cfg.Browser) {
		return WebConfig{}, props.invalid(keyBrowser,
			fmt.Errorf("must be one of %s", strings.Join(supportedBrowsers, ", ")))
	}
	if cfg.Headless, err = props.getBool(keyHeadless, false); err != nil {
		return WebConfig{}, err
	}
	if cfg.SlowMo, err = props.getFloat(keySlowMo, 0); err != nil {
		return WebConfig{}, err
	}
	if cfg.ViewportWidth, err = props.getInt(keyViewportWidth, DefaultViewportWidth); err != nil {
		return WebConfig{}, err
	}
	if cfg.ViewportHeight, err = props.getInt(keyViewportHeight, DefaultViewportHeight); err != nil {
		return WebConfig{}, err
	}
	return cfg, nil
}

// setting is one resolved key with the place it came from
type setting struct {
	value  string
	source string
}

// layeredProperties is the merged view of one property file name across layers
type layeredProperties struct {
	name     string
	settings map[string]setting
}

func layerPath(name, layer string) string {
	return filepath.Join("env", layer, name+".properties")
}

// loadLayeredProperties merges env/default then env/local for name. Missing files are skipped.
// <root>/.env is loaded into the environment first without overriding variables already set.
func loadLayeredProperties(root, name string) (*layeredProperties, error) {
	if root == "" {
		root = "."
	}

	dotenv := filepath.Join(root, ".env")
	if fileExists(dotenv) {
		if err := godotenv.Load(dotenv); err != nil {
			return nil, &ConfigurationError{Key: ".env", Source: dotenv, Err: err}
		}
	}

	lp := &layeredProperties{name: name, settings: make(map[string]setting)}
	loader := &properties.Loader{Encoding: properties.UTF8}
	for _, layer := range []string{"default", "local"} {
		path := filepath.Join(root, layerPath(name, layer))
		if !fileExists(path) {
			continue
		}
		p, err := loader.LoadFile(path)
		if err != nil {
			return nil, &ConfigurationError{Key: name, Source: path, Err: err}
		}
		for _, key := range p.Keys() {
			value, _ := p.Get(key)
			lp.settings[normalizeKey(key)] = setting{value: strings.TrimSpace(value), source: path}
		}
	}
	return lp, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// envName returns the environment variable overriding key: the key upper-cased,
// prefixed with the file name unless it already starts with it.
func (lp *layeredProperties) envName(key string) string {
	name := strings.ToUpper(key)
	prefix := strings.ToUpper(lp.name) + "_"
	if !strings.HasPrefix(name, prefix) {
		name = prefix + name
	}
	return name
}

// lookup resolves key from the environment, then the files
func (lp *layeredProperties) lookup(key string) (setting, bool) {
	env := lp.envName(key)
	if v, ok := os.LookupEnv(env); ok {
		return setting{value: strings.TrimSpace(v), source: "$" + env}, true
	}
	s, ok := lp.settings[key]
	return s, ok
}

func (lp *layeredProperties) getString(key, def string) string {
	s, ok := lp.lookup(key)
	if !ok || s.value == "" {
		return def
	}
	return s.value
}

func (lp *layeredProperties) invalid(key string, err error) error {
	s, _ := lp.lookup(key)
	return &ConfigurationError{Key: key, Value: s.value, Source: s.source, Err: err}
}

func (lp *layeredProperties) getInt(key string, def int) (int, error) {
	s, ok := lp.lookup(key)
	if !ok || s.value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s.value)
	if err != nil {
		return 0, &ConfigurationError{Key: key, Value: s.value, Source: s.source, Err: err}
	}
	return n, nil
}

func (lp *layeredProperties) getFloat(key string, def float64) (float64, error) {
	s, ok := lp.lookup(key)
	if !ok || s.value == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s.value, 64)
	if err != nil {
		return 0, &ConfigurationError{Key: key, Value: s.value, Source: s.source, Err: err}
	}
	return f, nil
}

func (lp *layeredProperties) getBool(key string, def bool) (bool, error) {
	s, ok := lp.lookup(key)
	if !ok || s.value == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s.value)
	if err != nil {
		return false, &ConfigurationError{Key: key, Value: s.value, Source: s.source, Err: err}
	}
	return b, nil
}
