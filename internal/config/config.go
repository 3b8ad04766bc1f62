// Package config loads application configuration from an optional config
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validDrivers   = []string{"mysql", "postgres", "sqlite"}
)

// Config holds application level configuration.
type Config struct {
	Env         string
	LogLevel    string
	ServerPort  string
	SwaggerHost string
	CORSOrigins []string

	DBDriver string
	DBDSN    string

	RedisAddr string
	RedisDB   int
	RedisPass string

	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration
	CookieSecure       bool

	UploadTempDir string
	UploadMaxSize int64

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicURL       string

	RateLimitRPS float64
}

// Load builds Config from the given config file (may be empty) and the
// environment. Environment variables always win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Env:         v.GetString("app.env"),
		LogLevel:    v.GetString("app.log_level"),
		ServerPort:  v.GetString("server.port"),
		SwaggerHost: v.GetString("server.swagger_host"),
		CORSOrigins: splitList(v.GetString("server.cors_origin")),

		DBDriver: v.GetString("db.driver"),
		DBDSN:    v.GetString("db.dsn"),

		RedisAddr: v.GetString("redis.addr"),
		RedisDB:   v.GetInt("redis.db"),
		RedisPass: v.GetString("redis.password"),

		AccessTokenSecret:  v.GetString("jwt.access_secret"),
		AccessTokenExpiry:  v.GetDuration("jwt.access_expiry"),
		RefreshTokenSecret: v.GetString("jwt.refresh_secret"),
		RefreshTokenExpiry: v.GetDuration("jwt.refresh_expiry"),
		CookieSecure:       v.GetBool("jwt.cookie_secure"),

		UploadTempDir: v.GetString("upload.temp_dir"),
		UploadMaxSize: v.GetInt64("upload.max_size") << 20,

		S3Bucket:          v.GetString("s3.bucket"),
		S3Region:          v.GetString("s3.region"),
		S3Endpoint:        v.GetString("s3.endpoint"),
		S3AccessKeyID:     v.GetString("s3.access_key_id"),
		S3SecretAccessKey: v.GetString("s3.secret_access_key"),
		S3PublicURL:       strings.TrimRight(v.GetString("s3.public_url"), "/"),

		RateLimitRPS: v.GetFloat64("server.rate_limit_rps"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.port", "8000")
	v.SetDefault("server.cors_origin", "http://localhost:3000")
	v.SetDefault("server.rate_limit_rps", 5)

	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.dsn", "user:password@tcp(localhost:3306)/vidtube?charset=utf8mb4&parseTime=True&loc=Local")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.access_expiry", "24h")
	v.SetDefault("jwt.refresh_expiry", "240h")
	v.SetDefault("jwt.cookie_secure", true)

	v.SetDefault("upload.temp_dir", "./public/temp")
	v.SetDefault("upload.max_size", 10)

	v.SetDefault("s3.region", "us-east-1")
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.log_level", "LOG_LEVEL")

	v.BindEnv("server.port", "SERVER_PORT", "PORT")
	v.BindEnv("server.swagger_host", "SWAGGER_HOST")
	v.BindEnv("server.cors_origin", "CORS_ORIGIN")
	v.BindEnv("server.rate_limit_rps", "RATE_LIMIT_RPS")

	v.BindEnv("db.driver", "DB_DRIVER")
	v.BindEnv("db.dsn", "DB_DSN")

	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	v.BindEnv("jwt.access_secret", "ACCESS_TOKEN_SECRET")
	v.BindEnv("jwt.access_expiry", "ACCESS_TOKEN_EXPIRY")
	v.BindEnv("jwt.refresh_secret", "REFRESH_TOKEN_SECRET")
	v.BindEnv("jwt.refresh_expiry", "REFRESH_TOKEN_EXPIRY")
	v.BindEnv("jwt.cookie_secure", "COOKIE_SECURE")

	v.BindEnv("upload.temp_dir", "UPLOAD_TEMP_DIR")
	v.BindEnv("upload.max_size", "UPLOAD_MAX_SIZE")

	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("s3.public_url", "S3_PUBLIC_URL")
}

// Validate reports the first configuration problem that would keep the
// server from working.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}

	if !slices.Contains(validDrivers, c.DBDriver) {
		return fmt.Errorf("invalid db driver %q", c.DBDriver)
	}

	if c.DBDSN == "" {
		return errors.New("db.dsn can't be empty")
	}

	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("both ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}

	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}

	if c.AccessTokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		return errors.New("token expiries must be bigger than 0")
	}

	if c.UploadMaxSize <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if c.S3Bucket == "" {
		return errors.New("s3.bucket can't be empty")
	}

	// Browsers drop credentialed responses that allow any origin.
	if len(c.CORSOrigins) == 0 || slices.Contains(c.CORSOrigins, "*") {
		return errors.New("server.cors_origin must list explicit origins")
	}

	if c.RateLimitRPS <= 0 {
		return errors.New("server.rate_limit_rps must be bigger than 0")
	}

	return nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
