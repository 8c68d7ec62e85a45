package main

import (
	"github.com/joho/godotenv"

	"github.com/mcoot/placeledger/internal/cli"
)

func main() {
	_ = godotenv.Load()
	cli.Execute()
}
