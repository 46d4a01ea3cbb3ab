package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/StrateZone/Web-sub000/internal/booking"
	"github.com/StrateZone/Web-sub000/internal/config"
	"github.com/StrateZone/Web-sub000/internal/history"
	"github.com/StrateZone/Web-sub000/internal/httpx"
	kafkax "github.com/StrateZone/Web-sub000/internal/kafka"
	"github.com/StrateZone/Web-sub000/internal/postgres"
	"github.com/StrateZone/Web-sub000/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	repo := &booking.HistoryRepo{DB: db}
	svc := &history.Service{
		Repo:        repo,
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-history",
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.HistoryGroup, booking.TopicCheckout, cfg.HistoryWorkers)
	go func() {
		log.Printf("history consumer started: group=%s topic=%s workers=%d", cfg.HistoryGroup, booking.TopicCheckout, cfg.HistoryWorkers)
		if err := cons.Start(ctx, svc.HandleCheckoutEvent); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// Read side
	router := httpx.NewRouter()
	(&httpx.HistoryHandler{Repo: repo}).Register(router)
	srv := &http.Server{Addr: getenv("HISTORY_HTTP_ADDR", ":8082"), Handler: router}
	go func() {
		log.Printf("HTTP listening at %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down history...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
