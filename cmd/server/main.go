// Package main provides the country masks HTTP server.
package main

import (
	"flag"
	"fmt"

	log "github.com/sirupsen/logrus"

	"go.ngs.io/countrymasks/internal/adapter/store/maskfile"
	"go.ngs.io/countrymasks/internal/config"
	"go.ngs.io/countrymasks/internal/domain"
	httpHandler "go.ngs.io/countrymasks/internal/http"
	"go.ngs.io/countrymasks/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("countrymasks-server version %s\n", version)
		return
	}

	if err := config.LoadDotEnv(); err != nil {
		log.Warnf("Warning: %v", err)
	}
	if err := config.ConfigureLogging(config.GetEnv("LOG_LEVEL", "info")); err != nil {
		log.Fatalf("Invalid LOG_LEVEL: %v", err)
	}

	// Load configuration from environment.
	port := config.GetEnv("PORT", "8080")
	maskPath := config.GetEnv("MASK_FILE", maskfile.FileName(domain.KindFractional, domain.Res05Deg.Name))
	allowedOrigins := config.GetEnv("CORS_ALLOWED_ORIGINS", "")

	log.Infof("Starting country masks server...")
	log.Infof("Port: %s", port)
	log.Infof("Mask file: %s", maskPath)

	set, err := maskfile.Read(maskPath)
	if err != nil {
		log.Fatalf("Failed to load mask file: %v", err)
	}
	log.WithFields(log.Fields{
		"kind":       set.Kind,
		"resolution": set.Resolution,
		"countries":  len(set.Countries),
		"groups":     len(set.Groups),
	}).Info("Mask dataset loaded")

	lookupUC := usecase.NewLookupUseCase(set)

	// Setup router.
	router := httpHandler.SetupRouter(lookupUC, allowedOrigins)

	// Start server.
	addr := fmt.Sprintf(":%s", port)
	log.Infof("Server listening on %s", addr)
	log.Infof("Health check: http://localhost:%s/health", port)
	log.Infof("API endpoints:")
	log.Infof("  - GET /v1/dataset")
	log.Infof("  - GET /v1/countries")
	log.Infof("  - GET /v1/countries/:code")
	log.Infof("  - GET /v1/masks/lookup")

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Country Masks Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  countrymasks-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  MASK_FILE               Mask dataset to serve (default: countrymasks_fractional_0.5deg.nc)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  LOG_LEVEL               debug, info, warn or error (default: info)")
	fmt.Println()
	fmt.Println("Variables may also be set in a .env file in the working directory.")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Serve the 5 arc-minute fractional masks on port 3000")
	fmt.Println("  PORT=3000 MASK_FILE=countrymasks_fractional_5arcmin.nc countrymasks-server")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                    Health check")
	fmt.Println("  GET /v1/dataset                Dataset metadata")
	fmt.Println("  GET /v1/countries              List countries with cell counts and areas")
	fmt.Println("  GET /v1/countries/:code        Country or group details")
	fmt.Println("  GET /v1/masks/lookup           Mask values at a lat/lon point")
	fmt.Println()
}
