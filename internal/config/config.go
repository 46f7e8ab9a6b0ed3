package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
		// BaseURL is the externally visible origin used when building
		// capability links in notification emails.
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`

	Database struct {
		// Driver: postgres, mysql or sqlite.
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		ReplyTo      string `yaml:"reply_to"`
		// Disabled swaps the SMTP dialer for a no-op provider.
		Disabled bool `yaml:"disabled"`
	} `yaml:"email"`

	JWT struct {
		Secret string `yaml:"secret"`
		// TTL in minutes.
		TTL int `yaml:"ttl"`
	} `yaml:"jwt"`

	Storage struct {
		Type      string `yaml:"type"`       // local or s3
		BasePath  string `yaml:"base_path"`  // for local storage
		Bucket    string `yaml:"bucket"`     // for s3
		Region    string `yaml:"region"`     // for s3
		AccessKey string `yaml:"access_key"` // for s3
		SecretKey string `yaml:"secret_key"` // for s3
		Endpoint  string `yaml:"endpoint"`   // for s3-compatible stores
	} `yaml:"storage"`

	Upload struct {
		MaxSize int64 `yaml:"max_size"` // bytes
		// CleanupFiles controls whether submission files are removed
		// from storage when their rows are deleted.
		CleanupFiles bool `yaml:"cleanup_files"`
	} `yaml:"upload"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

// LoadConfig reads config.yaml, or builds the config from environment
// variables when DATABASE_URL is set (test mode).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.Driver = envOr("DATABASE_DRIVER", "postgres")
	cfg.Database.DSN = dbURL
	cfg.Server.Env = envOr("SERVER_ENV", "test")
	cfg.Server.Port, _ = strconv.Atoi(envOr("SERVER_PORT", "4000"))
	cfg.Server.BaseURL = envOr("BASE_URL", "http://localhost:4000")
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.Email.Disabled = true
	cfg.Email.FromEmail = "talky@localhost"
	cfg.Email.FromName = "Talky"

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = envOr("FILE_PATH", "./files")

	cfg.Upload.MaxSize = 16 * 1024 * 1024
	cfg.Upload.CleanupFiles = true

	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:4000"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./files"
	}
	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = 16 * 1024 * 1024 // matches the historical deployment limit
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 60
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetConfig returns the loaded config, loading it on first use.
func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
