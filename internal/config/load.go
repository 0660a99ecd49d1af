package config

import (
	"log"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Skotchmaster/zone_service/pkg/config"
)

// Load reads .env when present, then the environment, and stops the process
// when the result does not validate.
func Load() pkgconfig.Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := pkgconfig.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}
