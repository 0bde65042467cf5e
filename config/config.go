package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	TokenTTLHours      int
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis backs the page cache and the token blacklist
	RedisEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Site behaviour
	LoginURL               string
	MediaRoot              string
	MediaURL               string
	PostsPerPage           int
	IndexCacheSeconds      int
	MetricsIntervalSeconds int
	// Admins
	AdminUsernames []string
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: environment (.env included) > config/config.json > defaults
	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Printf("ignoring invalid config/config.json: %v", err)
	}

	// .env never overrides variables already present in the process environment
	_ = godotenv.Load()
	applyEnvOverrides(&cfg)
	// defaults fill only what is still unset, so the driver chosen above picks its port
	applyDefaults(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Set replaces the cached configuration after filling defaults.
// Tests and tools that assemble an AppConfig themselves use it instead of Load.
func Set(c AppConfig) AppConfig {
	applyDefaults(&c)
	cfg = c
	loaded = true
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// fileConfig mirrors the grouped sections of config/config.json.
type fileConfig struct {
	App struct {
		AppPort            string
		JWTSecret          string
		TokenTTLHours      int
		RateLimitPerMinute int
		AllowedOrigins     []string
		GinMode            string
		GinPath            string
	} `json:"app"`
	Database struct {
		Driver      string
		DatabaseURI string
		DBHost      string
		DBPort      string
		DBUser      string
		DBPassword  string
		DBName      string
	} `json:"database"`
	Redis struct {
		Enabled       bool
		RedisHost     string
		RedisPort     int
		RedisDB       int
		RedisPassword string
	} `json:"redis"`
	Log struct {
		Level      string
		Path       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
		Compress   bool
	} `json:"log"`
	Site struct {
		LoginURL               string
		MediaRoot              string
		MediaURL               string
		PostsPerPage           int
		IndexCacheSeconds      int
		MetricsIntervalSeconds int
	} `json:"site"`
	Admin struct {
		Usernames []string
	} `json:"admin"`
}

// loadJSONConfig reads grouped JSON sections into out if the file is present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil // silently ignore missing file
	}

	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return err
	}

	app, db, rds, lg, site := fc.App, fc.Database, fc.Redis, fc.Log, fc.Site
	*out = AppConfig{
		AppPort:                app.AppPort,
		JWTSecret:              app.JWTSecret,
		TokenTTLHours:          app.TokenTTLHours,
		RateLimitPerMinute:     app.RateLimitPerMinute,
		AllowedOrigins:         app.AllowedOrigins,
		GinMode:                app.GinMode,
		GinPath:                app.GinPath,
		DBDriver:               strings.ToLower(db.Driver),
		DatabaseURI:            db.DatabaseURI,
		DBHost:                 db.DBHost,
		DBPort:                 db.DBPort,
		DBUser:                 db.DBUser,
		DBPassword:             db.DBPassword,
		DBName:                 db.DBName,
		RedisEnabled:           rds.Enabled,
		RedisHost:              rds.RedisHost,
		RedisPort:              rds.RedisPort,
		RedisDB:                rds.RedisDB,
		RedisPassword:          rds.RedisPassword,
		LogLevel:               lg.Level,
		LogPath:                lg.Path,
		LogMaxSizeMB:           lg.MaxSizeMB,
		LogMaxBackups:          lg.MaxBackups,
		LogMaxAgeDays:          lg.MaxAgeDays,
		LogCompress:            lg.Compress,
		LoginURL:               site.LoginURL,
		MediaRoot:              site.MediaRoot,
		MediaURL:               site.MediaURL,
		PostsPerPage:           site.PostsPerPage,
		IndexCacheSeconds:      site.IndexCacheSeconds,
		MetricsIntervalSeconds: site.MetricsIntervalSeconds,
		AdminUsernames:         fc.Admin.Usernames,
	}
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.TokenTTLHours == 0 {
		c.TokenTTLHours = 72
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		switch c.DBDriver {
		case "postgres":
			c.DBPort = "5432"
		default:
			c.DBPort = "3306"
		}
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "yatube"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.LoginURL == "" {
		c.LoginURL = "/auth/login/"
	}
	if c.MediaRoot == "" {
		c.MediaRoot = "media"
	}
	if c.MediaURL == "" {
		c.MediaURL = "/media"
	}
	if c.PostsPerPage == 0 {
		c.PostsPerPage = 10
	}
	if c.IndexCacheSeconds == 0 {
		c.IndexCacheSeconds = 20
	}
	if c.MetricsIntervalSeconds == 0 {
		c.MetricsIntervalSeconds = 15
	}
}

type envBinding struct {
	key   string
	apply func(c *AppConfig, v string)
}

func str(dst func(*AppConfig) *string) func(*AppConfig, string) {
	return func(c *AppConfig, v string) { *dst(c) = v }
}

func num(dst func(*AppConfig) *int) func(*AppConfig, string) {
	return func(c *AppConfig, v string) { *dst(c) = mustParseInt(v) }
}

func flag(dst func(*AppConfig) *bool) func(*AppConfig, string) {
	return func(c *AppConfig, v string) { *dst(c) = v == "true" }
}

func list(dst func(*AppConfig) *[]string) func(*AppConfig, string) {
	return func(c *AppConfig, v string) { *dst(c) = splitAndTrim(v) }
}

var envBindings = []envBinding{
	{"APP_PORT", str(func(c *AppConfig) *string { return &c.AppPort })},
	{"JWT_SECRET", str(func(c *AppConfig) *string { return &c.JWTSecret })},
	{"TOKEN_TTL_HOURS", num(func(c *AppConfig) *int { return &c.TokenTTLHours })},
	{"GIN_MODE", str(func(c *AppConfig) *string { return &c.GinMode })},
	{"GIN_PATH", str(func(c *AppConfig) *string { return &c.GinPath })},
	{"RATE_LIMIT_PER_MINUTE", num(func(c *AppConfig) *int { return &c.RateLimitPerMinute })},
	{"CORS_ALLOWED_ORIGINS", list(func(c *AppConfig) *[]string { return &c.AllowedOrigins })},
	{"DB_DRIVER", func(c *AppConfig, v string) { c.DBDriver = strings.ToLower(v) }},
	{"DATABASE_URI", str(func(c *AppConfig) *string { return &c.DatabaseURI })},
	{"DB_HOST", str(func(c *AppConfig) *string { return &c.DBHost })},
	{"DB_PORT", str(func(c *AppConfig) *string { return &c.DBPort })},
	{"DB_USER", str(func(c *AppConfig) *string { return &c.DBUser })},
	{"DB_PASSWORD", str(func(c *AppConfig) *string { return &c.DBPassword })},
	{"DB_NAME", str(func(c *AppConfig) *string { return &c.DBName })},
	{"REDIS_ENABLED", flag(func(c *AppConfig) *bool { return &c.RedisEnabled })},
	{"REDIS_HOST", str(func(c *AppConfig) *string { return &c.RedisHost })},
	{"REDIS_PORT", num(func(c *AppConfig) *int { return &c.RedisPort })},
	{"REDIS_DB", num(func(c *AppConfig) *int { return &c.RedisDB })},
	{"REDIS_PASSWORD", str(func(c *AppConfig) *string { return &c.RedisPassword })},
	{"LOG_LEVEL", str(func(c *AppConfig) *string { return &c.LogLevel })},
	{"LOG_PATH", str(func(c *AppConfig) *string { return &c.LogPath })},
	{"LOG_MAX_SIZE_MB", num(func(c *AppConfig) *int { return &c.LogMaxSizeMB })},
	{"LOG_MAX_BACKUPS", num(func(c *AppConfig) *int { return &c.LogMaxBackups })},
	{"LOG_MAX_AGE_DAYS", num(func(c *AppConfig) *int { return &c.LogMaxAgeDays })},
	{"LOG_COMPRESS", flag(func(c *AppConfig) *bool { return &c.LogCompress })},
	{"LOGIN_URL", str(func(c *AppConfig) *string { return &c.LoginURL })},
	{"MEDIA_ROOT", str(func(c *AppConfig) *string { return &c.MediaRoot })},
	{"MEDIA_URL", str(func(c *AppConfig) *string { return &c.MediaURL })},
	{"POSTS_PER_PAGE", num(func(c *AppConfig) *int { return &c.PostsPerPage })},
	{"INDEX_CACHE_SECONDS", num(func(c *AppConfig) *int { return &c.IndexCacheSeconds })},
	{"METRICS_INTERVAL_SECONDS", num(func(c *AppConfig) *int { return &c.MetricsIntervalSeconds })},
	{"ADMIN_USERNAMES", list(func(c *AppConfig) *[]string { return &c.AdminUsernames })},
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	for _, b := range envBindings {
		if v := getEnv(b.key, ""); v != "" {
			b.apply(c, v)
		}
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
