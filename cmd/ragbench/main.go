package main

import (
	"github.com/joho/godotenv"

	"ragbench/internal/cli"
)

func main() {
	// Load .env file if it exists (for API keys)
	_ = godotenv.Load()

	cli.Execute()
}
