package main

import (
	"log"

	api "mailflow-backend/cmd/api"
	authdomain "mailflow-backend/internal/auth/domain"
	authrepo "mailflow-backend/internal/auth/repository"
	authusecase "mailflow-backend/internal/auth/usecase"
	maildelivery "mailflow-backend/internal/mail/delivery"
	maildomain "mailflow-backend/internal/mail/domain"
	mailrepo "mailflow-backend/internal/mail/repository"
	"mailflow-backend/internal/mail/scheduler"
	mailusecase "mailflow-backend/internal/mail/usecase"
	"mailflow-backend/pkg/ai"
	"mailflow-backend/pkg/aurinko"
	"mailflow-backend/pkg/config"
	"mailflow-backend/pkg/database"
	"mailflow-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zl := logger.New()
	defer zl.Sync()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{}, &authdomain.RefreshToken{},
		&maildomain.Account{}, &maildomain.Thread{}, &maildomain.Email{},
		&maildomain.EmailAddress{}, &maildomain.EmailAttachment{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authrepo.NewUserRepository(db)
	accountRepo := mailrepo.NewAccountRepository(db)
	threadRepo := mailrepo.NewThreadRepository(db)
	emailRepo := mailrepo.NewEmailRepository(db)

	// Mail provider client
	providerClient := aurinko.NewClient(cfg.AurinkoBaseURL, cfg.AurinkoClientID, cfg.AurinkoClientSecret)

	// AI services. The composer is optional for the API to come up; the
	// embedder being absent just makes search lexical-only.
	aiCfg := ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	}
	composer, err := ai.NewComposerService(aiCfg)
	if err != nil {
		log.Fatal("Failed to initialize AI composer:", err)
	}
	embedder, err := ai.NewEmbedderService(aiCfg)
	if err != nil {
		zl.Warn("embedder unavailable, search runs lexical-only", zap.Error(err))
		embedder = nil
	}

	// Initialize usecases
	authUsecase := authusecase.NewAuthUsecase(userRepo, cfg)
	indexWriter := mailusecase.NewIndexWriter(accountRepo, embedder)
	normalizer := mailusecase.NewNormalizer(emailRepo, threadRepo, indexWriter, cfg.SyncConcurrency)
	syncUsecase := mailusecase.NewSyncUsecase(providerClient, accountRepo, normalizer,
		cfg.SyncDaysWithin, cfg.SyncBodyType, cfg.SyncReadinessAttempts)
	accountUsecase := mailusecase.NewAccountUsecase(providerClient, accountRepo, cfg.AurinkoReturnURL)
	mailUsecase := mailusecase.NewMailUsecase(accountRepo, threadRepo, emailRepo, providerClient, indexWriter)

	// Handlers
	mailHandler := maildelivery.NewMailHandler(accountUsecase, mailUsecase, syncUsecase)
	aiHandler := maildelivery.NewAIHandler(composer)

	// Background incremental sync
	syncScheduler := scheduler.NewSyncScheduler(accountRepo, syncUsecase, cfg.SyncInterval)
	syncScheduler.Start()
	defer syncScheduler.Stop()

	// Setup router
	r := gin.Default()
	api.SetupRoutes(r, authUsecase, mailHandler, aiHandler)

	zl.Info("server listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
