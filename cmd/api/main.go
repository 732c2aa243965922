package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/smsledger/internal/account"
	accountStore "github.com/MrJamesThe3rd/smsledger/internal/account/store"
	"github.com/MrJamesThe3rd/smsledger/internal/cache"
	"github.com/MrJamesThe3rd/smsledger/internal/config"
	"github.com/MrJamesThe3rd/smsledger/internal/database"
	"github.com/MrJamesThe3rd/smsledger/internal/extraction"
	smsHttp "github.com/MrJamesThe3rd/smsledger/internal/http"
	accountHandler "github.com/MrJamesThe3rd/smsledger/internal/http/account"
	matchingHandler "github.com/MrJamesThe3rd/smsledger/internal/http/matching"
	merchantsHandler "github.com/MrJamesThe3rd/smsledger/internal/http/merchants"
	resolutionHandler "github.com/MrJamesThe3rd/smsledger/internal/http/resolution"
	sendersHandler "github.com/MrJamesThe3rd/smsledger/internal/http/senders"
	smsHandler "github.com/MrJamesThe3rd/smsledger/internal/http/sms"
	txHandler "github.com/MrJamesThe3rd/smsledger/internal/http/transaction"
	"github.com/MrJamesThe3rd/smsledger/internal/importer"
	"github.com/MrJamesThe3rd/smsledger/internal/ingest"
	"github.com/MrJamesThe3rd/smsledger/internal/llm"
	"github.com/MrJamesThe3rd/smsledger/internal/logger"
	"github.com/MrJamesThe3rd/smsledger/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/smsledger/internal/matching/store"
	"github.com/MrJamesThe3rd/smsledger/internal/merchant"
	merchantCache "github.com/MrJamesThe3rd/smsledger/internal/merchant/cache"
	merchantStore "github.com/MrJamesThe3rd/smsledger/internal/merchant/store"
	"github.com/MrJamesThe3rd/smsledger/internal/notify"
	"github.com/MrJamesThe3rd/smsledger/internal/resolution"
	"github.com/MrJamesThe3rd/smsledger/internal/screen"
	screenStore "github.com/MrJamesThe3rd/smsledger/internal/screen/store"
	"github.com/MrJamesThe3rd/smsledger/internal/transaction"
	txStore "github.com/MrJamesThe3rd/smsledger/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty).With().Str("app", cfg.App.Name).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logger.WithContext(ctx, log)

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	var (
		merchantRepo merchant.Repository = merchantStore.New(db)
		notifier                         = notify.Multi{notify.NewLog(log)}
	)

	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()

		merchantRepo = merchantCache.New(merchantRepo, rdb, cfg.Redis.CacheTTL)
		notifier = append(notifier, notify.NewRedis(rdb, cfg.Redis.NoticeChannel))
	} else {
		log.Warn().Msg("no redis configured, merchant cache and notice channel disabled")
	}

	llmClient, err := llm.New(ctx, llm.Config{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		OllamaURL: cfg.LLM.OllamaURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create llm client")
	}

	var extractors []extraction.Extractor
	if llmClient != nil {
		extractors = append(extractors, extraction.NewLLMExtractor(llmClient, cfg.LLM.Timeout, cfg.App.HomeCurrency))
	} else {
		log.Warn().Msg("no llm provider configured, using regex extraction only")
	}

	extractors = append(extractors, extraction.NewRegexExtractor())

	registry := screen.NewRegistry(screenStore.New(db), slices.Concat(screen.BuiltinSenders, cfg.Senders.Extra))
	if err := registry.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load approved senders")
	}

	var (
		transactionService = transaction.NewService(txStore.New(db))
		merchantService    = merchant.NewService(merchantRepo)
		matchingService    = matching.NewService(matchingStore.New(db))
		resolutionService  = resolution.NewService(transactionService, merchantService, matchingService, notifier)
		accountService     = account.NewService(accountStore.New(db), registry)
	)

	processor := ingest.NewProcessor(ingest.Deps{
		Senders:   registry,
		Extractor: extraction.NewChain(extractors...),
		Recorder:  transactionService,
		Memory:    merchantService,
		Patterns:  matchingService,
		Resolver:  resolutionService,
		Notifier:  notifier,
		Window:    cfg.App.DedupWindow,
	})

	queue := ingest.NewQueue(processor, ingest.QueueConfig{
		Size:       cfg.App.QueueSize,
		Workers:    cfg.App.Workers,
		MaxRetries: cfg.App.MaxRetries,
		Backoff:    time.Second,
	}, log)

	workerCtx, cancelWorkers := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancelWorkers()

	queue.Start(workerCtx)

	importService := importer.NewService(queue, time.Local)

	router := smsHttp.New(
		log,
		[]byte(cfg.Auth.JWTSecret),
		smsHandler.NewHandler(queue, importService),
		txHandler.NewHandler(transactionService),
		resolutionHandler.NewHandler(resolutionService),
		sendersHandler.NewHandler(registry),
		merchantsHandler.NewHandler(merchantService),
		matchingHandler.NewHandler(matchingService),
		accountHandler.NewHandler(accountService),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	if err := queue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("queue did not drain before timeout")
	}

	cancelWorkers()
}
