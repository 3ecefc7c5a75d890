package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	MongoURI      string
	MongoDatabase string

	ServerPort  string
	WebPort     string
	APIBaseURL  string
	CORSOrigins []string

	AppEnv   string
	LogLevel string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	return &Config{
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "todo_user"),
		DBPassword:    getEnv("DB_PASSWORD", "todo_pass"),
		DBName:        getEnv("DB_NAME", "todo_db"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "todo-app"),
		ServerPort:    getEnv("SERVER_PORT", "3000"),
		WebPort:       getEnv("WEB_PORT", "9090"),
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:3000/api/todos"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
		AppEnv:        strings.ToLower(getEnv("APP_ENV", EnvProduction)),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

// Development reports whether error details may be exposed to clients.
func (c *Config) Development() bool {
	return c.AppEnv == EnvDevelopment
}

// PostgresDSN is the keyword/value DSN used by gorm.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// MigrationURL is the same database in the pgx5:// form golang-migrate expects.
func (c *Config) MigrationURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Validate rejects configurations the servers cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
		return fmt.Errorf("invalid API_BASE_URL: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
