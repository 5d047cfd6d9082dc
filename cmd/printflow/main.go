package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	httpAdapter "github.com/fabworks/printflow/internal/adapter/http"
	"github.com/fabworks/printflow/internal/adapter/notify"
	"github.com/fabworks/printflow/internal/adapter/sqlite"
	"github.com/fabworks/printflow/internal/auditor"
	"github.com/fabworks/printflow/internal/config"
	"github.com/fabworks/printflow/internal/custody"
	"github.com/fabworks/printflow/internal/domain"
	"github.com/fabworks/printflow/internal/pathauth"
	"github.com/fabworks/printflow/internal/pricing"
	"github.com/fabworks/printflow/internal/token"
)

func main() {
	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	log.Printf("starting printflow on port %d", cfg.Port)
	log.Printf("database: %s", cfg.DBPath)
	log.Printf("storage base: %s", cfg.StorageBase)

	auth, err := pathauth.New(cfg.StorageBase, cfg.Denylist)
	if err != nil {
		log.Fatalf("failed to initialize path authority: %v", err)
	}
	if err := auth.EnsureRoots(); err != nil {
		log.Fatalf("failed to create storage layout: %v", err)
	}

	repo, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer repo.Close()

	files := custody.New(auth)
	tokens := token.NewService([]byte(cfg.TokenSecret), cfg.TokenValidity)
	calc := pricing.NewCalculator(printerTable(cfg), minimumCharge(cfg))
	mailer := notify.NewMailer(cfg.Mail, cfg.PublicURL)

	svc := domain.NewStateMachine(repo, files, tokens, calc, mailer)

	aud := auditor.New(repo, cfg.AuditInterval)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := httpAdapter.NewServer(svc, addr, cfg.StaffKey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go aud.Run(ctx)

	go func() {
		log.Printf("HTTP server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	sig := <-sigCh
	log.Printf("received signal %v, shutting down", sig)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("shutdown complete")
}

func printerTable(cfg *config.Config) map[string]pricing.Printer {
	if len(cfg.Printers) == 0 {
		return pricing.DefaultPrinters()
	}
	table := make(map[string]pricing.Printer, len(cfg.Printers))
	for key, p := range cfg.Printers {
		table[key] = pricing.Printer{
			RatePerGram: decimal.NewFromFloat(p.RateGram),
			Type:        p.Type,
			DisplayName: p.DisplayName,
		}
	}
	return table
}

func minimumCharge(cfg *config.Config) decimal.Decimal {
	if cfg.MinimumCharge == "" {
		return pricing.DefaultMinimumCharge
	}
	min, err := decimal.NewFromString(cfg.MinimumCharge)
	if err != nil {
		log.Fatalf("invalid minimum_charge %q: %v", cfg.MinimumCharge, err)
	}
	return min
}
