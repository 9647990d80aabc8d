package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/lexhq/lex-backend/internal/config"
	"github.com/lexhq/lex-backend/internal/handler"
	"github.com/lexhq/lex-backend/internal/identity"
	analysisservice "github.com/lexhq/lex-backend/internal/service/analysis"
	"github.com/lexhq/lex-backend/internal/service/conversation"
	"github.com/lexhq/lex-backend/internal/service/extract"
	"github.com/lexhq/lex-backend/internal/service/orchestrator"
	"github.com/lexhq/lex-backend/internal/service/quota"
	"github.com/lexhq/lex-backend/internal/service/retrieval"
	"github.com/lexhq/lex-backend/internal/service/sessioncache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Session cache: Redis when reachable, otherwise in-process memory.
	var sessions sessioncache.Store
	redisStore := sessioncache.NewRedisStore(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.TTL)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := redisStore.Ping(pingCtx); err != nil {
		log.Printf("warning: redis unreachable at %s: %v", cfg.Cache.Addr, err)
		log.Println("falling back to in-memory session cache, sessions will not survive restarts")
		sessions = sessioncache.NewMemoryStore(cfg.Cache.TTL)
	} else {
		log.Printf("session cache connected to redis at %s", cfg.Cache.Addr)
		sessions = redisStore
	}
	cancel()

	// Account directory: SQLite when configured, otherwise accept any
	// authenticated user id.
	var directory identity.Directory = identity.AllowAll{}
	if cfg.Accounts.DBPath != "" {
		sqlDir, err := identity.NewSQLite(cfg.Accounts.DBPath)
		if err != nil {
			log.Fatalf("failed to open accounts database %s: %v", cfg.Accounts.DBPath, err)
		}
		defer sqlDir.Close()
		directory = sqlDir
		log.Printf("account directory loaded from %s", cfg.Accounts.DBPath)
	} else {
		log.Println("ACCOUNTS_DB_PATH not set, accepting any authenticated user")
	}

	// Analyzer model behind the call governor.
	var chatModel model.ChatModel
	if cfg.Analyzer.Enabled() {
		chatModel, err = cfg.Analyzer.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize analyzer model: %v", err)
			log.Println("continuing without analysis, check the Ark environment variables")
		} else {
			log.Printf("analyzer model %s initialized", cfg.Analyzer.Model)
		}
	} else {
		log.Println("ark credentials not configured, analysis requests will be rejected")
	}
	governor := quota.New(cfg.Quota.MaxCalls, cfg.Quota.Period)
	analyzer := analysisservice.NewService(chatModel, governor)

	// Semantic index. Without it analysis requests are rejected as
	// unavailable rather than generated without context.
	var retriever *retrieval.Service
	if cfg.Index.Enabled() {
		index, err := retrieval.NewWeaviateIndex(cfg.Index.Host, cfg.Index.Scheme, cfg.Index.APIKey, cfg.Index.ClassName)
		if err != nil {
			log.Fatalf("failed to initialize semantic index client: %v", err)
		}
		embedder := retrieval.NewOllamaEmbedder(cfg.Chat.BaseURL, cfg.Chat.EmbeddingModel)
		retriever = retrieval.NewService(embedder, index, cfg.Index.TopK)
		log.Printf("semantic index connected to %s://%s class=%s", cfg.Index.Scheme, cfg.Index.Host, cfg.Index.ClassName)
	} else {
		log.Println("WEAVIATE_HOST not set, analysis requests will be rejected")
	}

	extractor := extract.New(
		extract.Config{MinDigitalText: cfg.Extract.MinDigitalText},
		extract.NewFitzRasterizer(),
		extract.NewTesseractEngine(cfg.Extract.OCRLanguage),
	)

	chatter := conversation.NewService(conversation.NewOllamaChatter(cfg.Chat.BaseURL, cfg.Chat.Model))

	orch := orchestrator.New(extractor, retriever, analyzer, chatter, sessions, directory)
	router := handler.NewRouter(orch, cfg.Auth.JWTSecret, cfg.Server.AllowedOrigins)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Lex backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
