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

	"github.com/StrateZone/Web-sub000/internal/backend"
	"github.com/StrateZone/Web-sub000/internal/booking"
	"github.com/StrateZone/Web-sub000/internal/cart"
	"github.com/StrateZone/Web-sub000/internal/config"
	"github.com/StrateZone/Web-sub000/internal/httpx"
	kafkax "github.com/StrateZone/Web-sub000/internal/kafka"
	"github.com/StrateZone/Web-sub000/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc := cfg.Location()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Backend
	be := backend.New(cfg.BackendURL, cfg.BackendTimeout, loc)
	cartCfg := cart.Config{
		MergeTolerance:  cfg.MergeTolerance,
		InvitationShare: cfg.InvitationShare,
		Location:        loc,
	}
	if cfg.SettingsFromBackend {
		cartCfg = withRemoteSettings(ctx, be, cartCfg)
	}

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, booking.TopicCheckout, 1024)
	prod.Start(ctx)

	router := httpx.NewRouter()
	ch := &httpx.CartHandler{
		Store:        redisx.NewCartStore(rdb, cfg.CartTTL),
		Cart:         cartCfg,
		Backend:      be,
		Events:       &booking.Emitter{P: prod, Producer: cfg.ServiceName},
		Redis:        rdb,
		CloseWarning: cfg.CloseStartWarning,
		Location:     loc,
		// room for the decisions and the cart writes around the backend call
		CheckoutTimeout: cfg.BackendTimeout + 5*time.Second,
	}
	ch.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	cancel()
	prod.WaitClosed()
}

// withRemoteSettings overrides the env values with the backend's system
// settings when it has them. Failures keep the env values.
func withRemoteSettings(ctx context.Context, be *backend.Client, c cart.Config) cart.Config {
	s, err := be.Settings(ctx)
	if err != nil {
		log.Printf("settings: keeping local values: %v", err)
		return c
	}
	if p := s.AppointmentSharePercentage; p > 0 && p <= 100 {
		c.InvitationShare = p / 100
	}
	if s.MergeToleranceMinutes > 0 {
		c.MergeTolerance = time.Duration(s.MergeToleranceMinutes) * time.Minute
	}
	log.Printf("settings: share=%.2f merge_tolerance=%s", c.InvitationShare, c.MergeTolerance)
	return c
}
