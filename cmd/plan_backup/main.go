package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/2beens/gymplan/internal/backup"
	"github.com/2beens/gymplan/internal/config"
	"github.com/2beens/gymplan/internal/db"
	"github.com/2beens/gymplan/internal/docstore"
	"github.com/2beens/gymplan/pkg"
)

// plan documents google drive backup cmd

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	credentialsFile := flag.String(
		"gd-creds",
		"./gymplan-drive-credentials.json",
		"google drive service account credentials json",
	)
	logsPath := flag.String("logs-path", "/var/log/gymplan/plan-backup.log", "backup logs file path (empty for stdout)")
	dryRun := flag.Bool("dry-run", false, "take the snapshot and log its size, do not upload")
	flag.Parse()

	loggingSetup(*logsPath)

	log.Println("starting plan documents backup ...")

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	source, cleanup, err := documentSource(ctx, cfg)
	if err != nil {
		log.Fatalf("open documents backend: %v", err)
	}
	defer cleanup()

	now := time.Now()
	if *dryRun {
		snapshot, err := backup.TakeSnapshot(ctx, source, now)
		if err != nil {
			log.Fatalf("take snapshot: %v", err)
		}
		log.Printf("dry run, snapshot has %d documents", len(snapshot.Documents))
		return
	}

	if *credentialsFile == "" {
		log.Fatalln("google drive credentials json not specified")
	}
	if exists, err := pkg.PathExists(*credentialsFile, false); err != nil || !exists {
		log.Fatalf("google drive credentials json [%s] not found: %v", *credentialsFile, err)
	}
	credentialsFileBytes, err := os.ReadFile(*credentialsFile)
	if err != nil {
		log.Fatalf("unable to read credentials file: %v", err)
	}

	exporter, err := backup.NewDriveExporter(ctx, credentialsFileBytes, source, nil)
	if err != nil {
		log.Fatalf("failed to create google drive exporter: %s", err)
	}

	fileID, err := exporter.Export(ctx, now)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	log.Printf("backup done, file id: %s", fileID)
}

type backend interface {
	Load(ctx context.Context, key docstore.Key) (*docstore.Document, int64, error)
	Keys(ctx context.Context) ([]docstore.Key, error)
}

func documentSource(ctx context.Context, cfg *config.Config) (backend, func(), error) {
	if cfg.StoreBackend == config.StoreBackendRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: os.Getenv("GYMPLAN_REDIS_PASS"),
		})
		return docstore.NewRedisBackend(rdb), func() { _ = rdb.Close() }, nil
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     os.Getenv("GYMPLAN_DB_USER"),
		DBPassword: os.Getenv("GYMPLAN_DB_PASS"),
		SSLMode:    cfg.PostgresSSLMode,
	})
	if err != nil {
		return nil, nil, err
	}
	return docstore.NewPostgresBackend(dbPool), dbPool.Close, nil
}

func loggingSetup(logFileName string) {
	if logFileName == "" {
		log.SetOutput(os.Stdout)
		return
	}

	if !strings.HasSuffix(logFileName, ".log") {
		logFileName += ".log"
	}

	log.SetOutput(&lumberjack.Logger{
		Filename:   logFileName,
		MaxSize:    50,    // megabytes
		LocalTime:  false, // false -> use UTC
		Compress:   true,  // disabled by default
		MaxBackups: 30,
	})
}
