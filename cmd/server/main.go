package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/waveprint/waveprint/pkg/logger"
	"github.com/waveprint/waveprint/pkg/models"
	"github.com/waveprint/waveprint/pkg/waveprint"
)

var (
	port           int
	dbPath         string
	algorithm      int
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("WAVEPRINT_DB_PATH", "waveprint.sqlite3"), "Path to SQLite catalog")
	flag.IntVar(&algorithm, "algorithm", int(models.AlgorithmDefault), "Fingerprint algorithm id (0-3)")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	service, err := waveprint.NewService(
		waveprint.WithDBPath(dbPath),
		waveprint.WithAlgorithm(models.Algorithm(algorithm)),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		Algorithm:      models.Algorithm(algorithm),
		AllowedOrigins: origins,
	}

	server := NewServer(service, config)

	addr := fmt.Sprintf(":%d", config.Port)
	logger.Infof("WavePrint API listening on %s (algorithm %d, catalog %s)", addr, algorithm, dbPath)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.setupRoutes(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
