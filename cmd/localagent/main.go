package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"localagent/internal/ai"
	"localagent/internal/config"
	"localagent/internal/db"
	"localagent/internal/embedcache"
	"localagent/internal/filestore"
	"localagent/internal/handler"
	"localagent/internal/index"
	"localagent/internal/job"
	"localagent/internal/repo"
	"localagent/internal/schedule"
	"localagent/internal/search"
	"localagent/internal/service"
	"localagent/internal/vectorstore"
	"localagent/internal/websearch"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "localagent",
		Short: "local document indexing and unified search server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run localagent server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.DB)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	rootLogger := logutil.GetLogger(context.Background())
	rootLogger.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	userRepo := repo.NewUserRepo(conn)
	fileRepo := repo.NewFileRepo(conn)
	queryRepo := repo.NewQueryRepo(conn)
	eventRepo := repo.NewEventRepo(conn)

	store, err := vectorstore.New(conn, cfg.VectorStore)
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}

	provider, err := ai.NewProvider(cfg.Embedding.Provider, cfg.Embedding.Data)
	if err != nil {
		return fmt.Errorf("init embedding provider: %w", err)
	}
	embedder := ai.NewEmbedder(provider, cfg.Embedding.Model)
	if cfg.Embedding.CacheSize > 0 {
		ttl := time.Duration(cfg.Embedding.CacheTTLMinutes) * time.Minute
		if ttl <= 0 {
			ttl = time.Hour
		}
		embedder = embedcache.WrapLRUCacheToEmbedder(embedder, cfg.Embedding.CacheSize, ttl)
	}

	pipeline := index.NewPipeline(fileRepo, embedder, store,
		index.WithChunking(cfg.Chunking.TargetTokens, cfg.Chunking.OverlapTokens),
		index.WithEmbedBatchSize(cfg.Embedding.BatchSize),
	)
	retriever := search.NewRetriever(embedder, store)
	searcher := websearch.NewSearcher(cfg.WebSearch.ExaAPIKey, cfg.WebSearch.SerperAPIKey)

	localStore, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": cfg.Upload.Dir},
	})
	if err != nil {
		return fmt.Errorf("init upload store: %w", err)
	}
	var archiveStore filestore.Store
	if cfg.Upload.Archive.Type != "" {
		archiveStore, err = filestore.New(cfg.Upload.Archive)
		if err != nil {
			return fmt.Errorf("init archive store: %w", err)
		}
	}

	roots := append([]string{}, cfg.Roots...)
	roots = append(roots, cfg.Upload.Dir)
	indexService := service.NewIndexService(pipeline, eventRepo, roots)
	searchService := service.NewSearchService(retriever, searcher, userRepo, queryRepo, eventRepo)
	webSearchService := service.NewWebSearchService(searcher, userRepo, eventRepo)
	uploadService := service.NewUploadService(localStore, archiveStore, indexService)
	healthService := service.NewHealthService(store,
		cfg.Embedding.Provider != "",
		cfg.WebSearch.ExaAPIKey != "" || cfg.WebSearch.SerperAPIKey != "")

	router := handler.NewRouter(handler.RouterDeps{
		Index:       handler.NewIndexHandler(indexService),
		Search:      handler.NewSearchHandler(searchService),
		WebSearch:   handler.NewWebSearchHandler(webSearchService),
		Upload:      handler.NewUploadHandler(uploadService),
		Health:      handler.NewHealthHandler(healthService),
		CORSOrigins: cfg.CORSOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewScheduler()
	if cfg.Reindex.Spec != "" {
		if err := scheduler.AddJob(job.NewReindexJob(indexService), cfg.Reindex.Spec); err != nil {
			return fmt.Errorf("schedule reindex: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: router}
	rootLogger.Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			rootLogger.Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	rootLogger.Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
