package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FallbackURL is the Etendo Classic base URL used when neither
// ETENDO_CLASSIC_URL nor NEXT_PUBLIC_API_BASE_URL is set.
const FallbackURL = "http://localhost:8080/etendo"

const (
	defaultAppPort       = ":3000"
	defaultCacheDuration = time.Hour
	defaultERPCacheTTL   = 60 * time.Second
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	AppPort  string `mapstructure:"APP_PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// --- Etendo Classic ---
	ClassicURL       string        `mapstructure:"ETENDO_CLASSIC_URL"`
	PublicAPIBaseURL string        `mapstructure:"NEXT_PUBLIC_API_BASE_URL"`
	CacheDuration    time.Duration `mapstructure:"CACHE_DURATION"`
	ERPCacheTTL      time.Duration `mapstructure:"ERP_CACHE_TTL"`
	// comma separated entity names whose datasource responses may be cached
	DatasourceCacheEntities string `mapstructure:"DATASOURCE_CACHE_ENTITIES"`
	ProcessDefinitions      string `mapstructure:"PROCESS_DEFINITIONS"`

	// --- Redis ---
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// --- Postgres ---
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBScheme   string `mapstructure:"DB_SCHEME"`

	// --- S3 ---
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`
	S3PathStyle bool   `mapstructure:"S3_PATH_STYLE"`

	// --- Auth / debug ---
	AuthJWTSecret     string `mapstructure:"AUTH_JWT_SECRET"`
	DebugERPRequests  bool   `mapstructure:"DEBUG_ERP_REQUESTS"`
	DebugPasswordHash string `mapstructure:"DEBUG_PASSWORD_HASH"`
}

// String implements fmt.Stringer with secrets masked.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  AppEnv: %s\n", c.AppEnv))
	sb.WriteString(fmt.Sprintf("  AppPort: %s\n", c.AppPort))
	sb.WriteString(fmt.Sprintf("  LogLevel: %s\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("  ClassicURL: %s\n", c.ERPBaseURL()))
	sb.WriteString(fmt.Sprintf("  CacheDuration: %s\n", c.CacheDuration))
	sb.WriteString(fmt.Sprintf("  ERPCacheTTL: %s\n", c.ERPCacheTTL))
	sb.WriteString(fmt.Sprintf("  DatasourceCacheEntities: %s\n", c.DatasourceCacheEntities))
	sb.WriteString(fmt.Sprintf("  ProcessDefinitions: %s\n", c.ProcessDefinitions))

	sb.WriteString(fmt.Sprintf("  RedisAddr: %s\n", c.RedisAddr))
	sb.WriteString(fmt.Sprintf("  RedisDB: %d\n", c.RedisDB))
	sb.WriteString(fmt.Sprintf("  RedisPassword: %s\n", mask(c.RedisPassword)))

	sb.WriteString(fmt.Sprintf("  DBHost: %s\n", c.DBHost))
	sb.WriteString(fmt.Sprintf("  DBPort: %d\n", c.DBPort))
	sb.WriteString(fmt.Sprintf("  DBUser: %s\n", c.DBUser))
	sb.WriteString(fmt.Sprintf("  DBName: %s\n", c.DBName))
	sb.WriteString(fmt.Sprintf("  DBScheme: %s\n", c.DBScheme))
	sb.WriteString(fmt.Sprintf("  DBPassword: %s\n", mask(c.DBPassword)))

	sb.WriteString(fmt.Sprintf("  S3Endpoint: %s\n", c.S3Endpoint))
	sb.WriteString(fmt.Sprintf("  S3Region: %s\n", c.S3Region))
	sb.WriteString(fmt.Sprintf("  S3Bucket: %s\n", c.S3Bucket))
	sb.WriteString(fmt.Sprintf("  S3AccessKey: %s\n", mask(c.S3AccessKey)))
	sb.WriteString(fmt.Sprintf("  S3SecretKey: %s\n", mask(c.S3SecretKey)))
	sb.WriteString(fmt.Sprintf("  S3UseSSL: %v\n", c.S3UseSSL))
	sb.WriteString(fmt.Sprintf("  S3PathStyle: %v\n", c.S3PathStyle))

	sb.WriteString(fmt.Sprintf("  AuthJWTSecret: %s\n", mask(c.AuthJWTSecret)))
	sb.WriteString(fmt.Sprintf("  DebugERPRequests: %v\n", c.DebugERPRequests))
	sb.WriteString(fmt.Sprintf("  DebugPasswordHash: %s\n", mask(c.DebugPasswordHash)))

	return sb.String()
}

func mask(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "********"
}

// LoadFromEnv reads the configuration from environment variables,
// loading .env first when it exists (local development).
func LoadFromEnv() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", defaultAppPort)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CACHE_DURATION", defaultCacheDuration)
	v.SetDefault("ERP_CACHE_TTL", defaultERPCacheTTL)
	v.SetDefault("DB_SCHEME", "public")

	keys := []string{
		"APP_ENV", "APP_PORT", "LOG_LEVEL",
		"ETENDO_CLASSIC_URL", "NEXT_PUBLIC_API_BASE_URL",
		"CACHE_DURATION", "ERP_CACHE_TTL", "DATASOURCE_CACHE_ENTITIES", "PROCESS_DEFINITIONS",
		"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SCHEME",
		"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
		"S3_USE_SSL", "S3_PATH_STYLE",
		"AUTH_JWT_SECRET", "DEBUG_ERP_REQUESTS", "DEBUG_PASSWORD_HASH",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.CacheDuration < 0 {
		return nil, fmt.Errorf("CACHE_DURATION must be >= 0, got %s", cfg.CacheDuration)
	}
	return &cfg, nil
}

// ERPBaseURL resolves the Etendo Classic base URL: ETENDO_CLASSIC_URL,
// then NEXT_PUBLIC_API_BASE_URL, then FallbackURL.
func (c *Config) ERPBaseURL() string {
	return ResolveBaseURL(c.ClassicURL, c.PublicAPIBaseURL)
}

// ResolveBaseURL returns the first non-blank candidate without its trailing
// slash, or FallbackURL.
func ResolveBaseURL(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return strings.TrimRight(c, "/")
		}
	}
	return FallbackURL
}

// CachedEntities returns DATASOURCE_CACHE_ENTITIES as a set.
func (c *Config) CachedEntities() map[string]bool {
	out := make(map[string]bool)
	for _, e := range strings.Split(c.DatasourceCacheEntities, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out[e] = true
		}
	}
	return out
}

func (c *Config) HasRedis() bool    { return c.RedisAddr != "" }
func (c *Config) HasPostgres() bool { return c.DBHost != "" }
func (c *Config) HasS3() bool       { return c.S3Endpoint != "" && c.S3Bucket != "" }

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
