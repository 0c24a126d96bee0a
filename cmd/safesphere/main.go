package main

import (
	"os"

	"github.com/joho/godotenv"

	"safesphere/internal/cli"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	os.Exit(cli.Execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
