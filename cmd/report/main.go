package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/db"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/config"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/ledger"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/pipeline"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/repository"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/pkg/llm"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/pkg/search"
)

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(config.Dir())
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	var store ledger.Store
	if os.Getenv("REDIS_URL") != "" {
		if err := db.ConnectRedis(); err != nil {
			log.Fatalf("error connecting to Redis: %v", err)
		}
		defer db.CloseRedis()
		store = ledger.NewRedisStore(db.Redis)
	} else {
		stateDir := os.Getenv("ALFRED_STATE_DIR")
		if stateDir == "" {
			stateDir = "./state"
		}
		if err := os.MkdirAll(stateDir, 0o755); err != nil {
			log.Fatalf("error creating state dir: %v", err)
		}
		store = ledger.NewFileStore(stateDir)
	}
	led := ledger.New(store, cfg.Ranker.Dedupe.RetainDays)

	deps := pipeline.Deps{}
	if key := os.Getenv("BRAVE_API_KEY"); key != "" {
		deps.News = search.NewBraveNewsClient(key)
		deps.Web = search.NewBraveWebClient(key)
	}
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		deps.MarketNews = search.NewFinnhubClient(key)
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		client := llm.NewAnthropicClient(key)
		deps.Summarizer = client
		deps.Fallback = client
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		client := llm.NewOpenAIClient(key)
		deps.Summarizer = client
		deps.Fallback = client
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report := pipeline.New(cfg, led, deps).Run(ctx)

	payload, err := json.Marshal(report)
	if err != nil {
		log.Fatalf("error encoding report: %v", err)
	}

	if os.Getenv("DATABASE_URL") != "" {
		if err := db.Connect(); err != nil {
			slog.Error("error connecting to DB, report not archived", "error", err)
		} else {
			defer db.Close()
			repo := repository.NewReportRepository(db.DB)
			if err := repo.Save(report.Date, payload); err != nil {
				slog.Error("error archiving report", "error", err, "date", report.Date)
			} else {
				slog.Info("report archived", "date", report.Date)
			}
		}
	}

	outPath := os.Getenv("REPORT_OUT")
	if outPath == "" {
		outPath = "./report.json"
	}
	if err := os.WriteFile(outPath, payload, 0o644); err != nil {
		log.Fatalf("error writing report file: %v", err)
	}

	slog.Info("report written",
		"path", outPath,
		"date", report.Date,
		"sections", len(report.Sections),
		"warnings", len(report.Warnings))
}
