package main

import (
	"fmt"
	"os"

	"currents/cmd/handlers"
	"currents/internal/logger"
)

func main() {
	level := os.Getenv("CURRENTS_LOG_LEVEL")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level != "" {
		logger.InitWithLevel(level)
	} else {
		logger.Init()
	}

	if err := handlers.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
