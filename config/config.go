package config

import (
	"errors"
	"io/fs"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Redis
		Upload
		Reconcile
		Telemetry
		RateLimit
		Log
		Global
	}

	HTTP struct {
		Host        string
		Port        int
		CORSOrigins []string
	}
	Database struct {
		Driver     string // postgres | sqlite
		URL        string
		Host       string
		User       string
		Password   string
		Name       string
		Port       string
		SQLitePath string
		LogLevel   string // silent | error | warn | info
	}
	Redis struct {
		Addr     string // empty disables redis locks
		Password string
		DB       int
		LockTTL  time.Duration
	}
	Upload struct {
		Dir      string
		MaxBytes int64
	}
	Reconcile struct {
		Enabled  bool
		Schedule string // Cron format: "*/15 * * * *" = every 15 minutes
	}
	Telemetry struct {
		OTLPEndpoint string
		ServiceName  string
	}
	RateLimit struct {
		RPS   float64 // 0 disables
		Burst int
	}
	Log struct {
		Level  string
		Format string // text | json
	}
	Global struct {
		ShutdownTimeout time.Duration
	}
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// LoadEnv loads .env into the process environment. A missing file is fine.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
}

func New() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 3001)
	v.SetDefault("web_origin", "http://localhost:5173")
	v.SetDefault("cors_origins", "")

	v.SetDefault("db_driver", DriverPostgres)
	v.SetDefault("database_url", "")
	v.SetDefault("db_host", "127.0.0.1")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "toolbank")
	v.SetDefault("db_port", "5432")
	v.SetDefault("sqlite_path", "./toolbank.db")
	v.SetDefault("db_log_level", "warn")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("lock_ttl", "10s")

	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("upload_max_bytes", 5<<20) // 5 MiB

	v.SetDefault("reconcile_enabled", true)
	v.SetDefault("reconcile_schedule", "*/15 * * * *")

	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_service_name", "toolbank")

	v.SetDefault("rate_limit_rps", 0)
	v.SetDefault("rate_limit_burst", 20)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("shutdown_timeout", "10s")

	return &Config{
		HTTP: HTTP{
			Host:        v.GetString("HOST"),
			Port:        v.GetInt("PORT"),
			CORSOrigins: origins(v.GetString("WEB_ORIGIN"), v.GetString("CORS_ORIGINS")),
		},
		Database: Database{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			URL:        v.GetString("DATABASE_URL"),
			Host:       v.GetString("DB_HOST"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			Name:       v.GetString("DB_NAME"),
			Port:       v.GetString("DB_PORT"),
			SQLitePath: v.GetString("SQLITE_PATH"),
			LogLevel:   v.GetString("DB_LOG_LEVEL"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			LockTTL:  v.GetDuration("LOCK_TTL"),
		},
		Upload: Upload{
			Dir:      v.GetString("UPLOAD_DIR"),
			MaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
		},
		Reconcile: Reconcile{
			Enabled:  v.GetBool("RECONCILE_ENABLED"),
			Schedule: v.GetString("RECONCILE_SCHEDULE"),
		},
		Telemetry: Telemetry{
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
		},
		RateLimit: RateLimit{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Log: Log{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Global: Global{
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.HTTP.Host, strconv.Itoa(c.HTTP.Port))
}

// origins merges WEB_ORIGIN and the comma separated CORS_ORIGINS, dropping
// blanks and duplicates.
func origins(web, csv string) []string {
	seen := map[string]bool{}
	var out []string
	for _, o := range append([]string{web}, strings.Split(csv, ",")...) {
		if s := strings.TrimSpace(o); s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
