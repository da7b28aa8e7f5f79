// Package main runs the gymplan MCP server over stdio, on behalf of one user.
// The same MCP server is mounted on the main backend at /mcp over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"

	"github.com/go-redis/redis/v8"

	"github.com/2beens/gymplan/internal/config"
	"github.com/2beens/gymplan/internal/db"
	"github.com/2beens/gymplan/internal/docstore"
	"github.com/2beens/gymplan/internal/history"
	"github.com/2beens/gymplan/internal/mcp"
	"github.com/2beens/gymplan/internal/plan"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	userID := flag.String("user", "", "uid of the user whose plan and history are served")
	flag.Parse()

	if *userID == "" {
		log.Fatalln("user id not specified, use -user")
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         os.Getenv("GYMPLAN_DB_USER"),
		DBPassword:     os.Getenv("GYMPLAN_DB_PASS"),
		SSLMode:        cfg.PostgresSSLMode,
		TracingEnabled: false,
	})
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer dbPool.Close()

	var backend docstore.Backend
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: os.Getenv("GYMPLAN_REDIS_PASS"),
		})
		defer rdb.Close()
		backend = docstore.NewRedisBackend(rdb)
	case config.StoreBackendMemory:
		log.Fatalln("memory store backend has nothing to serve from a separate process")
	default:
		backend = docstore.NewPostgresBackend(dbPool)
	}

	planService := plan.NewService(plan.NewServiceParams{
		Store: docstore.NewStore(backend, docstore.Config{
			UserCollection:        cfg.UserCollection,
			WorkoutsSubcollection: cfg.WorkoutsSubcollection,
			DocumentID:            cfg.DocumentID,
			MaxConflictRetries:    cfg.MaxConflictRetries,
		}, nil),
		MaxTabs:       cfg.MaxTabs,
		SyncQueueSize: cfg.SyncQueueSize,
	})
	defer func() {
		if err := planService.Close(ctx); err != nil {
			log.Printf("close plan service: %v", err)
		}
	}()

	contextService := mcp.NewContextService(planService, history.NewRepo(dbPool))
	server := mcp.NewServer(contextService, "stdio")

	if err := mcp.ServeStdio(server, *userID); err != nil {
		log.Fatal(err)
	}
}
