package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	JWT        JWTConfig
	S3         S3Config
	Log        LogConfig
	Recognizer RecognizerConfig
	CORS       CORSConfig
	Pipeline   PipelineConfig
	Email      EmailConfig
	Master     MasterConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	// APIKeyHash is the bcrypt hash the auth middleware checks bearer
	// keys against. Empty disables auth (development).
	APIKeyHash string `mapstructure:"api_key_hash"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Configured reports whether a database host is set. The pipeline and
// the stateless endpoints run without one.
func (d *DBConfig) Configured() bool {
	return d.Host != ""
}

// JWTConfig holds signing settings for artifact download tokens.
type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	ArtifactExpiry time.Duration `mapstructure:"artifact_expiry"`
	Issuer         string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RecognizerProviderConfig holds settings for a single photo
// recognition provider.
type RecognizerProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// RecognizerConfig holds photo recognition settings with primary and
// secondary providers.
type RecognizerConfig struct {
	Primary   RecognizerProviderConfig `mapstructure:"primary"`
	Secondary RecognizerProviderConfig `mapstructure:"secondary"`
	BatchSize int                      `mapstructure:"batch_size"`
}

// SecondaryConfig returns the secondary provider config, or nil if not
// configured.
func (r *RecognizerConfig) SecondaryConfig() *RecognizerProviderConfig {
	if r.Secondary.Provider != "" {
		return &r.Secondary
	}
	return nil
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PipelineConfig holds pipeline run settings.
type PipelineConfig struct {
	Concurrency   int    `mapstructure:"concurrency"`
	PhotosPerPage int    `mapstructure:"photos_per_page"`
	OutputDir     string `mapstructure:"output_dir"`
	Title         string `mapstructure:"title"`
	// FontName and FontPath configure the PDF text font. Japanese
	// output needs a TrueType font; the built-in default only covers
	// Latin text.
	FontName string `mapstructure:"font_name"`
	FontPath string `mapstructure:"font_path"`
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	BaseURL     string `mapstructure:"base_url"`
}

// MasterConfig holds hierarchy master locations.
type MasterConfig struct {
	Path string `mapstructure:"path"`
	Dir  string `mapstructure:"dir"`
}

// Load reads configuration from environment variables with the DAICHO_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DAICHO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.api_key_hash", "")

	// DB defaults
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "daicho")
	v.SetDefault("db.password", "daicho_secret")
	v.SetDefault("db.name", "daicho_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.artifact_expiry", "15m")
	v.SetDefault("jwt.issuer", "daicho")

	// S3 defaults
	v.SetDefault("s3.region", "ap-northeast-1")
	v.SetDefault("s3.bucket", "daicho-artifacts")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Recognizer defaults
	v.SetDefault("recognizer.primary.provider", "claude")
	v.SetDefault("recognizer.primary.api_key", "")
	v.SetDefault("recognizer.primary.default_model", "")
	v.SetDefault("recognizer.primary.timeout_secs", 120)
	v.SetDefault("recognizer.secondary.provider", "")
	v.SetDefault("recognizer.secondary.api_key", "")
	v.SetDefault("recognizer.secondary.default_model", "")
	v.SetDefault("recognizer.secondary.timeout_secs", 120)
	v.SetDefault("recognizer.batch_size", 5)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Pipeline defaults
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.photos_per_page", 3)
	v.SetDefault("pipeline.output_dir", "output")
	v.SetDefault("pipeline.title", "工事写真台帳")
	v.SetDefault("pipeline.font_name", "")
	v.SetDefault("pipeline.font_path", "")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-northeast-1")
	v.SetDefault("email.from_address", "noreply@daicho.local")
	v.SetDefault("email.from_name", "daicho")
	v.SetDefault("email.base_url", "http://localhost:8080")

	// Master defaults
	v.SetDefault("master.path", "")
	v.SetDefault("master.dir", "masters")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":          "DAICHO_SERVER_PORT",
		"server.read_timeout":  "DAICHO_SERVER_READ_TIMEOUT",
		"server.write_timeout": "DAICHO_SERVER_WRITE_TIMEOUT",
		"server.environment":   "DAICHO_SERVER_ENVIRONMENT",
		"server.api_key_hash":  "DAICHO_SERVER_API_KEY_HASH",
		"db.host":              "DAICHO_DB_HOST",
		"db.port":              "DAICHO_DB_PORT",
		"db.user":              "DAICHO_DB_USER",
		"db.password":          "DAICHO_DB_PASSWORD",
		"db.name":              "DAICHO_DB_NAME",
		"db.sslmode":           "DAICHO_DB_SSLMODE",
		"db.max_open":          "DAICHO_DB_MAX_OPEN",
		"db.max_idle":          "DAICHO_DB_MAX_IDLE",
		"jwt.secret":           "DAICHO_JWT_SECRET",
		"jwt.artifact_expiry":  "DAICHO_JWT_ARTIFACT_EXPIRY",
		"jwt.issuer":           "DAICHO_JWT_ISSUER",
		"s3.region":            "DAICHO_S3_REGION",
		"s3.bucket":            "DAICHO_S3_BUCKET",
		"s3.endpoint":          "DAICHO_S3_ENDPOINT",
		"s3.access_key":        "DAICHO_S3_ACCESS_KEY",
		"s3.secret_key":        "DAICHO_S3_SECRET_KEY",
		"s3.max_file_size_mb":  "DAICHO_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":    "DAICHO_S3_PRESIGN_EXPIRY",
		"log.level":            "DAICHO_LOG_LEVEL",
		"log.format":           "DAICHO_LOG_FORMAT",
		"cors.allowed_origins": "DAICHO_CORS_ALLOWED_ORIGINS",
		"recognizer.primary.provider":        "DAICHO_RECOGNIZER_PRIMARY_PROVIDER",
		"recognizer.primary.api_key":         "DAICHO_RECOGNIZER_PRIMARY_API_KEY",
		"recognizer.primary.default_model":   "DAICHO_RECOGNIZER_PRIMARY_DEFAULT_MODEL",
		"recognizer.primary.timeout_secs":    "DAICHO_RECOGNIZER_PRIMARY_TIMEOUT_SECS",
		"recognizer.secondary.provider":      "DAICHO_RECOGNIZER_SECONDARY_PROVIDER",
		"recognizer.secondary.api_key":       "DAICHO_RECOGNIZER_SECONDARY_API_KEY",
		"recognizer.secondary.default_model": "DAICHO_RECOGNIZER_SECONDARY_DEFAULT_MODEL",
		"recognizer.secondary.timeout_secs":  "DAICHO_RECOGNIZER_SECONDARY_TIMEOUT_SECS",
		"recognizer.batch_size":              "DAICHO_RECOGNIZER_BATCH_SIZE",
		"pipeline.concurrency":               "DAICHO_PIPELINE_CONCURRENCY",
		"pipeline.photos_per_page":           "DAICHO_PIPELINE_PHOTOS_PER_PAGE",
		"pipeline.output_dir":                "DAICHO_PIPELINE_OUTPUT_DIR",
		"pipeline.title":                     "DAICHO_PIPELINE_TITLE",
		"email.provider":                     "DAICHO_EMAIL_PROVIDER",
		"email.region":                       "DAICHO_EMAIL_REGION",
		"email.from_address":                 "DAICHO_EMAIL_FROM_ADDRESS",
		"email.from_name":                    "DAICHO_EMAIL_FROM_NAME",
		"email.base_url":                     "DAICHO_EMAIL_BASE_URL",
		"master.path":                        "DAICHO_MASTER_PATH",
		"master.dir":                         "DAICHO_MASTER_DIR",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DAICHO_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DAICHO_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		APIKeyHash:   v.GetString("server.api_key_hash"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:         v.GetString("jwt.secret"),
		ArtifactExpiry: v.GetDuration("jwt.artifact_expiry"),
		Issuer:         v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Recognizer = RecognizerConfig{
		Primary: RecognizerProviderConfig{
			Provider:     v.GetString("recognizer.primary.provider"),
			APIKey:       v.GetString("recognizer.primary.api_key"),
			DefaultModel: v.GetString("recognizer.primary.default_model"),
			TimeoutSecs:  v.GetInt("recognizer.primary.timeout_secs"),
		},
		Secondary: RecognizerProviderConfig{
			Provider:     v.GetString("recognizer.secondary.provider"),
			APIKey:       v.GetString("recognizer.secondary.api_key"),
			DefaultModel: v.GetString("recognizer.secondary.default_model"),
			TimeoutSecs:  v.GetInt("recognizer.secondary.timeout_secs"),
		},
		BatchSize: v.GetInt("recognizer.batch_size"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Pipeline = PipelineConfig{
		Concurrency:   v.GetInt("pipeline.concurrency"),
		PhotosPerPage: v.GetInt("pipeline.photos_per_page"),
		OutputDir:     v.GetString("pipeline.output_dir"),
		Title:         v.GetString("pipeline.title"),
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		BaseURL:     v.GetString("email.base_url"),
	}

	cfg.Master = MasterConfig{
		Path: v.GetString("master.path"),
		Dir:  v.GetString("master.dir"),
	}

	return cfg, nil
}
