package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ChengYu2002/juxin-website-backend/internal/api"
	"github.com/ChengYu2002/juxin-website-backend/internal/cache"
	"github.com/ChengYu2002/juxin-website-backend/internal/config"
	"github.com/ChengYu2002/juxin-website-backend/internal/db"
	"github.com/ChengYu2002/juxin-website-backend/internal/email"
	"github.com/ChengYu2002/juxin-website-backend/internal/geo"
	"github.com/ChengYu2002/juxin-website-backend/internal/services"
	"github.com/ChengYu2002/juxin-website-backend/internal/storage"
	"github.com/ChengYu2002/juxin-website-backend/internal/tasks"
)

func main() {
	mode := flag.String("m", "all", "run mode: api, bg, or all")
	flag.Parse()

	cfg, err := config.Load(*mode)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client, database, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := db.Disconnect(cfg, client); err != nil {
			log.Printf("Failed to disconnect MongoDB: %v", err)
		}
	}()

	ctx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	inquiryService := services.NewInquiryService(database, cfg)
	productService := services.NewProductService(database, cfg)
	if err := inquiryService.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to ensure inquiry indexes: %v", err)
	}
	if err := productService.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to ensure product indexes: %v", err)
	}
	cancelIndexes()

	rdb, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	objectStorage, err := storage.NewObjectStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// With Redis present, duplicate-submission state survives restarts and is
	// shared across instances.
	dedupStore := services.NewRedisDedupStore(rdb, cfg.InquiryDedupWindow)

	taskClient := tasks.NewClient(rdb)
	defer taskClient.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	if *mode == "api" || *mode == "all" {
		router := api.SetupRouter(cfg, database, dedupStore, objectStorage, taskClient)
		srv := &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: router,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("API server listening on :%s", cfg.ApiPort)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("API server failed: %v", err)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-stop
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("API server shutdown error: %v", err)
			}
		}()
	}

	if *mode == "bg" || *mode == "all" {
		mailer := email.NewInquiryMailer(cfg, email.NewSender(cfg))
		geoClient := geo.NewLookupClient(cfg)
		processor := tasks.NewTaskProcessor(cfg, inquiryService, geoClient, mailer, objectStorage)

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Println("Background worker starting")
			if err := tasks.SetupServer(rdb, processor); err != nil {
				log.Fatalf("Background worker failed: %v", err)
			}
		}()
	}

	wg.Wait()
	log.Println("Shutdown complete")
}
