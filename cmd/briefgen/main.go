package main

import (
	"briefgen/cmd/handlers"
	"briefgen/internal/logger"
)

func main() {
	logger.Init() // Initialize the logger
	handlers.Execute()
}
