package bootstrap

import (
	"context"
	"log"

	"ai-slidegen-be/internal/config"
	"ai-slidegen-be/internal/controller"
	"ai-slidegen-be/internal/handler"
	"ai-slidegen-be/internal/pkg/logger"
	"ai-slidegen-be/internal/repository/memory"
	"ai-slidegen-be/internal/service"
	"ai-slidegen-be/internal/websocket"
	"ai-slidegen-be/pkg/cache"
	"ai-slidegen-be/pkg/llm"
	"ai-slidegen-be/pkg/llm/local"
	"ai-slidegen-be/pkg/llm/mistral"
	"ai-slidegen-be/pkg/llm/ollama"
	"ai-slidegen-be/pkg/llm/openai"
	llmrouter "ai-slidegen-be/pkg/llm/router"
	"ai-slidegen-be/pkg/ocr"
	"ai-slidegen-be/pkg/slides"

	pktNats "ai-slidegen-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	PresentationController controller.IPresentationController

	// Background Services (Exposed for main.go to run)
	ProgressConsumerService service.IProgressConsumerService

	// WebSockets & Progress
	ProgressHandler *handler.ProgressHandler
	WebSocketHub    *websocket.Hub
}

// NewContainer wires the pipeline. db may be nil unless the postgres cache
// backend is selected.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/progress.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Slide Cache
	cacheManager := cache.NewManager(newCacheStore(cfg, db, rdb))

	// 4. Model Router
	modelRouter := newModelRouter(cfg)

	processor := slides.NewProcessor(cacheManager, modelRouter, slides.Config{
		BatchSize:         cfg.Ai.BatchSize,
		EnrichmentEnabled: cfg.Ai.Enrichment,
		MinQuality:        cfg.Ai.MinQuality,
		MaxCost:           cfg.Ai.MaxCostUSD,
	})

	ocrClient := ocr.NewMistralClient(cfg.Keys.Mistral, "", cfg.Ai.OCRModel)
	processRepo := memory.NewProcessRepository()

	// 5. Services
	presentationService := service.NewPresentationService(
		ocrClient,
		processor,
		processRepo,
		pubSub,
		sysLogger,
	)

	progressConsumer := service.NewProgressConsumerService(pubSub, wsHub, natsPub)

	// 6. Handlers & Controllers
	progressHandler := handler.NewProgressHandler(wsHub, wsLogger)

	return &Container{
		PresentationController:  controller.NewPresentationController(presentationService),
		ProgressConsumerService: progressConsumer,
		ProgressHandler:         progressHandler,
		WebSocketHub:            wsHub,
	}
}

// newCacheStore picks the slide cache backend. Anything unrecognized falls
// back to in-memory so a misconfigured box still serves requests.
func newCacheStore(cfg *config.Config, db *gorm.DB, rdb *redis.Client) cache.Store {
	switch cfg.Cache.Backend {
	case "redis":
		log.Printf("[INFO] Using slide cache backend: REDIS")
		return cache.NewRedisStore(rdb)
	case "postgres":
		if db == nil {
			log.Printf("[WARN] Postgres cache backend selected but no DB connection, falling back to memory")
			break
		}
		store, err := cache.NewPostgresStore(db)
		if err != nil {
			log.Printf("[WARN] Failed to initialize postgres cache store: %v, falling back to memory", err)
			break
		}
		log.Printf("[INFO] Using slide cache backend: POSTGRES")
		return store
	}
	log.Printf("[INFO] Using slide cache backend: MEMORY")
	return cache.NewMemoryStore()
}

// newModelRouter registers every provider that has credentials. A provider
// without credentials is skipped, which keeps its models out of selection.
func newModelRouter(cfg *config.Config) *llmrouter.Router {
	r := llmrouter.NewRouter(local.NewPassthroughProvider())

	if cfg.Keys.Mistral != "" {
		r.RegisterProvider("mistral", mistral.NewMistralProvider(cfg.Keys.Mistral, "", ""))
		r.RegisterModel(llm.ModelConfig{
			Name:                  "mistral-large-latest",
			Provider:              "mistral",
			CostPerThousandInput:  0.008,
			CostPerThousandOutput: 0.024,
			MaxTokens:             4096,
			QualityScore:          0.9,
		})
		r.RegisterModel(llm.ModelConfig{
			Name:                  "mistral-small-latest",
			Provider:              "mistral",
			CostPerThousandInput:  0.001,
			CostPerThousandOutput: 0.003,
			MaxTokens:             4096,
			QualityScore:          0.7,
		})
		log.Printf("[INFO] Registered LLM provider: MISTRAL")
	}

	if cfg.Keys.OpenAI != "" {
		r.RegisterProvider("openai", openai.NewOpenAIProvider(cfg.Keys.OpenAI, "", ""))
		r.RegisterModel(llm.ModelConfig{
			Name:                  "gpt-4o",
			Provider:              "openai",
			CostPerThousandInput:  0.0025,
			CostPerThousandOutput: 0.01,
			MaxTokens:             4096,
			QualityScore:          0.95,
		})
		r.RegisterModel(llm.ModelConfig{
			Name:                  "gpt-4o-mini",
			Provider:              "openai",
			CostPerThousandInput:  0.00015,
			CostPerThousandOutput: 0.0006,
			MaxTokens:             4096,
			QualityScore:          0.75,
		})
		log.Printf("[INFO] Registered LLM provider: OPENAI")
	}

	if cfg.Ai.OllamaBaseURL != "" {
		r.RegisterProvider("ollama", ollama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel))
		r.RegisterModel(llm.ModelConfig{
			Name:         cfg.Ai.OllamaModel,
			Provider:     "ollama",
			MaxTokens:    4096,
			QualityScore: 0.5,
		})
		log.Printf("[INFO] Registered LLM provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	return r
}
