package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/melodix/server/internal/cron"
	"github.com/melodix/server/internal/palette"
	"github.com/melodix/server/internal/push"
	"github.com/melodix/server/internal/repository"
	"github.com/melodix/server/internal/service"
	"github.com/melodix/server/internal/storage"
	"github.com/melodix/server/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	log.Println("Starting melodix engine...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := repository.Connect(context.Background(), cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.ConnectTimeout)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			log.Printf("Store close failed: %v", err)
		}
	}()
	log.Println("Store connected successfully")

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	maintenance, albums := initServices(cfg, store, redisClient)

	cronManager := cron.NewManager(maintenance, albums, cfg.Maintenance.StatsSchedule, cfg.Maintenance.ReapSchedule)
	if err := cronManager.Start(); err != nil {
		log.Fatalf("Failed to start cron manager: %v", err)
	}
	defer cronManager.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down melodix engine...")
}

func initRedis(cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// Push delivery degrades to logged failures; the engine still runs.
		log.Printf("Redis ping failed, push signals will degrade: %v", err)
	} else {
		log.Println("Redis connected successfully")
	}
	return client
}

func initServices(cfg *config.Config, store *repository.Store, redisClient *redis.Client) (*service.MaintenanceService, *service.AlbumService) {
	songs := store.Songs()
	playlists := store.Playlists()
	albums := store.Albums()
	users := store.Users()
	artists := store.Artists()
	notifications := store.Notifications()
	refs := store.Refs()

	notifier := push.NewRedisNotifier(redisClient)
	extractor := palette.NewHTTPExtractor(cfg.Storage.RequestTimeout)
	deleter := storage.NewHTTPDeleter(cfg.Storage.Endpoint, cfg.Storage.Token, cfg.Storage.RequestTimeout)
	cleaner := storage.NewCleaner(deleter, cfg.Storage.DefaultsFolder)

	notificationService := service.NewNotificationService(notifications, users, artists, notifier)
	songService := service.NewSongService(songs, playlists, albums, users, artists, refs, notificationService, extractor, cleaner)
	albumService := service.NewAlbumService(albums, refs, extractor, cleaner)
	maintenanceService := service.NewMaintenanceService(playlists, songs, users, songService, notificationService, extractor)

	return maintenanceService, albumService
}
