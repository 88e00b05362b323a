package config

import (
	"os"

	"github.com/joho/godotenv"
)

// loadDotEnv reads a .env file in development. Production deployments set
// real environment variables and never ship a .env file.
func loadDotEnv() {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}
}
