package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings, populated from the environment.
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBName      string `envconfig:"DB_NAME" default:"pixelmart"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	JWTSecret            string `envconfig:"JWT_SECRET" default:"devsecret"`
	AdminBootstrapSecret string `envconfig:"ADMIN_BOOTSTRAP_SECRET"`

	AppURL                  string `envconfig:"APP_URL" default:"http://localhost:3000"`
	PasswordResetExpMinutes int    `envconfig:"PASSWORD_RESET_EXP_MINUTES" default:"30"`
}

var (
	once sync.Once
	cfg  Config
)

// Get loads the configuration on first use. A missing .env file is fine;
// real deployments set the environment directly.
func Get() Config {
	once.Do(func() {
		_ = godotenv.Load()
		if err := envconfig.Process("", &cfg); err != nil {
			log.Fatalf("config: %v", err)
		}
	})
	return cfg
}

// DSN returns the Postgres connection string. DATABASE_URL wins when set.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
