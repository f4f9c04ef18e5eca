package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cbodonnell/arena/pkg/api"
	"github.com/cbodonnell/arena/pkg/log"
	"github.com/cbodonnell/arena/pkg/network"
	"github.com/cbodonnell/arena/pkg/repositories"
	"github.com/cbodonnell/arena/pkg/version"
	"github.com/cbodonnell/arena/pkg/workers"
)

func main() {
	port := flag.Int("port", network.DefaultServerPort, "UDP port to listen on")
	mapPath := flag.String("map", "", "Built-in map name or path to a map file (.map or .map.zst)")
	maxKills := flag.Int("max-kills", network.DefaultMaxKills, "Kills needed to win a match")
	idleTimeout := flag.Duration("idle-timeout", 0, "Remove participants not heard from within this duration (0 disables)")
	apiPort := flag.Int("api-port", 0, "HTTP port of the status API (0 disables)")
	migrations := flag.String("migrations", "./migrations", "Directory holding the sqlite and postgres migrations")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting arena server version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connStr := os.Getenv("ARENA_DATABASE_URL")
	if connStr == "" {
		connStr = "memory://"
	}

	u, err := url.Parse(connStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse connection string: %v", err))
	}

	var repository repositories.Repository
	switch u.Scheme {
	case "memory":
		repository = repositories.NewMemoryRepository()
	case "sqlite":
		repository, err = repositories.NewSQLiteRepository(ctx, u.Host+u.Path, filepath.Join(*migrations, "sqlite"))
		if err != nil {
			panic(fmt.Sprintf("Failed to create SQLite repository: %v", err))
		}
	case "postgres", "postgresql":
		repository, err = repositories.NewPostgresRepository(ctx, u.String(), filepath.Join(*migrations, "postgres"))
		if err != nil {
			panic(fmt.Sprintf("Failed to create Postgres repository: %v", err))
		}
	default:
		panic(fmt.Sprintf("Unknown database type %s", u.Scheme))
	}
	defer repository.Close(context.Background())

	server := network.NewServer(network.NewServerOptions{
		Port:        *port,
		MapPath:     *mapPath,
		MaxKills:    *maxKills,
		IdleTimeout: *idleTimeout,
	})

	matchResultWorker := workers.NewMatchResultWorker(workers.NewMatchResultWorkerOptions{
		Repository: repository,
		ResultChan: server.Results(),
	})
	go matchResultWorker.Start(ctx)

	if *apiPort > 0 {
		apiServer := api.NewAPIServer(api.NewAPIServerOptions{
			Port:       *apiPort,
			Session:    server,
			Repository: repository,
		})
		go func() {
			if err := apiServer.Start(); err != nil {
				log.Error("%v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := apiServer.Stop(shutdownCtx); err != nil {
				log.Error("Failed to stop API server: %v", err)
			}
		}()
	}

	log.Info("Starting session server")
	if err := server.Start(ctx); err != nil {
		log.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
