package main

import (
	"log"

	"github.com/harsh16kumar/jobpilot/cmd"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
