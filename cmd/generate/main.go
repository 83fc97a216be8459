package main

import (
	"log"

	"github.com/rxtech-lab/pnl-downloader/internal/config"
)

// outputDir receives the config schema and the sample config.
const outputDir = "./config"

func main() {
	schemaPath, samplePath, err := config.WriteSchemaFiles(outputDir)
	if err != nil {
		log.Fatalf("Failed to generate config schema: %v", err)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)
	log.Printf("Sample config available at %s", samplePath)
}
