package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// SeedAccount is an account loaded into the terminal at start-up
type SeedAccount struct {
	CardID  string `mapstructure:"card_id"`
	PIN     string `mapstructure:"pin"`
	Balance string `mapstructure:"balance"`
}

// Load reads the config file at path (if present) and binds environment overrides.
// Values are read back through viper by the packages that need them.
func Load(path string) {
	if path != "" {
		viper.SetConfigFile(path)
	}
	viper.AutomaticEnv()

	viper.BindEnv("server.port", "PORT")

	viper.BindEnv("database.enabled", "DATABASE_ENABLED")
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_minutes", "JWT_EXPIRY_MINUTES")

	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("hsm.pin_pepper", "HSM_PIN_PEPPER")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("jwt.secret_key", "dev-secret-key-change-in-production")
	viper.SetDefault("jwt.expiry_minutes", 5)
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}
}

// SeedAccounts returns the accounts listed under the "accounts" key
func SeedAccounts() ([]SeedAccount, error) {
	var accounts []SeedAccount
	if err := viper.UnmarshalKey("accounts", &accounts); err != nil {
		return nil, fmt.Errorf("invalid accounts config: %w", err)
	}
	return accounts, nil
}

// TokenExpiry returns the lifetime of session tokens
func TokenExpiry() time.Duration {
	return time.Duration(viper.GetInt("jwt.expiry_minutes")) * time.Minute
}
