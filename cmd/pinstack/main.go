package main

import (
	"log"

	"github.com/pinstack/pinstack/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ pinstack failed to start: %v", err)
	}
}
