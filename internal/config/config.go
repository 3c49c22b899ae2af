package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	DBDSN    string
	MediaDir string
	LogFile  string

	// MinIO is used for order images when an endpoint is set; otherwise
	// uploads land under MediaDir.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	PublicURL      string

	StrictAnswers bool
	TimeZone      string
}

// Load reads an optional borgo.yaml (./ or ./configs) and lets environment
// variables override it.
func Load() Config {
	v := viper.New()
	v.SetConfigName("borgo")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("db_dsn", "borgo.db") // sqlite file in project root
	v.SetDefault("media_dir", "./web/media")
	v.SetDefault("log_file", "./borgo.log")
	v.SetDefault("minio_bucket", "order-images")
	v.SetDefault("strict_answers", false)
	v.SetDefault("time_zone", "Europe/Rome")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("[config] ignoring unreadable config file: %v", err)
		}
	}

	cfg := Config{
		Port:           v.GetString("port"),
		DBDSN:          v.GetString("db_dsn"),
		MediaDir:       v.GetString("media_dir"),
		LogFile:        v.GetString("log_file"),
		MinioEndpoint:  v.GetString("minio_endpoint"),
		MinioAccessKey: v.GetString("minio_access_key"),
		MinioSecretKey: v.GetString("minio_secret_key"),
		MinioBucket:    v.GetString("minio_bucket"),
		MinioUseSSL:    v.GetBool("minio_use_ssl"),
		PublicURL:      v.GetString("public_url"),
		StrictAnswers:  v.GetBool("strict_answers"),
		TimeZone:       v.GetString("time_zone"),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s MINIO=%t STRICT_ANSWERS=%t TZ=%s",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.MinioEndpoint != "", cfg.StrictAnswers, cfg.TimeZone)
	return cfg
}

// Location resolves TimeZone, falling back to the host zone.
func (c Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Printf("[config] unknown TIME_ZONE %q, using local time: %v", c.TimeZone, err)
		return time.Local
	}
	return loc
}
