// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	BaseURL        string        `mapstructure:"BASE_URL"`
	PageSize       int           `mapstructure:"PAGE_SIZE"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LikeDedupe     bool          `mapstructure:"LIKE_DEDUPE"`
	Port           string        `mapstructure:"PORT"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() *Config {
	// .env is optional; environment wins over it either way
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if errors.As(err, &notFoundErr) {
			log.Println("Config file not found; using environment variables and defaults")
		} else {
			log.Fatalf("Error reading config file: %s", err)
		}
	}

	// Set default values
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("PAGE_SIZE", 5)
	viper.SetDefault("REQUEST_TIMEOUT", 15*time.Second)
	viper.SetDefault("LIKE_DEDUPE", false)
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode config into struct, %v", err)
	}

	return &config
}
