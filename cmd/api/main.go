package main

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/AmevinLS/bigdata-reservation/internal/app"
	"github.com/AmevinLS/bigdata-reservation/internal/clock"
	"github.com/AmevinLS/bigdata-reservation/internal/storage/cassandra"
	transporthttp "github.com/AmevinLS/bigdata-reservation/internal/transport/http"
	"github.com/AmevinLS/bigdata-reservation/schema"
)

const (
	defaultPort        = "8080"
	defaultHosts       = "127.0.0.1"
	defaultKeyspace    = "library"
	defaultCORSOrigins = "http://localhost:5173,http://127.0.0.1:5173"
	shutdownTimeout    = 10 * time.Second
)

func main() {
	logger := log.Default()
	loadEnvFile(logger)

	port := envOrDefault(logger, "PORT", defaultPort)
	hosts := parseCSV(envOrDefault(logger, "CASSANDRA_HOSTS", defaultHosts))
	keyspace := envOrDefault(logger, "CASSANDRA_KEYSPACE", defaultKeyspace)
	corsOrigins := parseCSV(envOrDefault(logger, "CORS_ORIGINS", defaultCORSOrigins))

	storageCfg := cassandra.Config{
		Hosts:    hosts,
		Keyspace: keyspace,
	}
	if raw := os.Getenv("CASSANDRA_TIMEOUT_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			log.Fatalf("invalid CASSANDRA_TIMEOUT_MS %q", raw)
		}
		storageCfg.Timeout = time.Duration(ms) * time.Millisecond
	}

	limit := 0
	if raw := os.Getenv("RESERVATION_LIMIT"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			log.Fatalf("invalid RESERVATION_LIMIT %q", raw)
		}
		limit = parsed
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bare, err := cassandra.OpenBare(storageCfg)
	if err != nil {
		log.Fatalf("connect to cassandra: %v", err)
	}
	if err := schema.Apply(startupCtx, bare, keyspace, 1); err != nil {
		bare.Close()
		log.Fatalf("apply schema: %v", err)
	}
	bare.Close()

	session, err := cassandra.Open(storageCfg)
	if err != nil {
		log.Fatalf("connect to keyspace %s: %v", keyspace, err)
	}
	defer session.Close()

	resRepo := cassandra.NewReservationRepository(session)
	bookRepo := cassandra.NewBookRepository(session)
	adminRepo := cassandra.NewAdminRepository(session)

	queue := app.NewPropagationQueue(resRepo, logger)
	queue.Start()

	var resOpts []app.ReservationServiceOption
	if limit > 0 {
		resOpts = append(resOpts, app.WithReservationLimit(limit))
	}
	resSvc := app.NewReservationService(resRepo, queue, clock.NewSystem(), resOpts...)
	catalogSvc := app.NewCatalogService(bookRepo)
	adminSvc := app.NewAdminService(adminRepo)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/make_reservation", transporthttp.HandleMakeReservation(resSvc))
	mux.Handle("/update_reservation", transporthttp.HandleUpdateReservation(resSvc))
	mux.Handle("/view_reservation", transporthttp.HandleViewReservation(resSvc))
	mux.Handle("/list_reservations", transporthttp.HandleListReservations(resSvc))
	mux.Handle("/books", transporthttp.HandleBooks(catalogSvc))
	mux.Handle("/clear", transporthttp.HandleClear(adminSvc))
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(transporthttp.CORS(corsOrigins, mux), logger)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	log.Printf("api listening on :%s (keyspace=%s hosts=%s)", port, keyspace, strings.Join(hosts, ","))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	// Let in-flight propagation land before dropping the session.
	if err := queue.Close(shutdownCtx); err != nil {
		log.Printf("propagation queue drain: %v", err)
	}
	log.Printf("server stopped")
}

func envOrDefault(logger *log.Logger, key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	logger.Printf("WARN: %s not set, using default %q", key, fallback)
	return fallback
}

func parseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// loadEnvFile loads KEY=VALUE pairs from the nearest .env up the directory
// tree without overriding variables already set in the environment.
func loadEnvFile(logger *log.Logger) {
	path := findEnvFile()
	if path == "" {
		return
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Printf("WARN: failed to open %s: %v", path, err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = trimQuotes(strings.TrimSpace(value))
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			logger.Printf("WARN: failed to set %s from env file", key)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Printf("WARN: failed to read %s: %v", path, err)
		return
	}
	logger.Printf("loaded env from %s", path)
}

func findEnvFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i < 6; i++ {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func trimQuotes(value string) string {
	if len(value) < 2 {
		return value
	}
	if (value[0] == '"' && value[len(value)-1] == '"') ||
		(value[0] == '\'' && value[len(value)-1] == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}
