package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adilzhm/meetmate/bot"
	"github.com/adilzhm/meetmate/chat"
	"github.com/adilzhm/meetmate/config"
	"github.com/adilzhm/meetmate/db"
	"github.com/adilzhm/meetmate/handlers"
	"github.com/adilzhm/meetmate/repositories"
	api "github.com/adilzhm/meetmate/routes"
	"github.com/adilzhm/meetmate/services"
	"github.com/adilzhm/meetmate/storage"
	"github.com/adilzhm/meetmate/verification"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
)

const sweepInterval = 60 * time.Second // How often the expired-request sweeper runs

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Redis хранит одноразовые коды привязки Telegram
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	codeStore := verification.NewRedisCodeStore(redisClient)
	logger.Info("redis code store initialized", slog.String("addr", cfg.RedisAddr))

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Инициализация WebSocket Hub
	wsHub := chat.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	profileRepo := repositories.NewPostgresProfileRepository(dbConn)
	interestRepo := repositories.NewPostgresInterestRepository(dbConn)
	catalogRepo := repositories.NewPostgresCatalogRepository(dbConn)
	requestRepo := repositories.NewPostgresRequestRepository(dbConn)
	participationRepo := repositories.NewPostgresParticipationRepository(dbConn)
	favoriteRepo := repositories.NewPostgresFavoriteRepository(dbConn)
	reviewRepo := repositories.NewPostgresReviewRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	chatRepo := repositories.NewPostgresChatRepository(dbConn)
	moderationRepo := repositories.NewPostgresModerationRepository(dbConn)
	logger.Info("repositories initialized")

	// Telegram-бот опционален: без токена уведомления идут только на сайт
	var (
		tgClient   *bot.Client
		tgNotifier services.TelegramSender
	)
	if cfg.TelegramBotToken != "" {
		tgClient, err = bot.NewClient(cfg.TelegramBotToken)
		if err != nil {
			logger.Error("failed to initialize telegram bot", slog.Any("error", err))
			os.Exit(1)
		}
		tgNotifier = bot.NewNotifier(tgClient)
		logger.Info("telegram client initialized")
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN not set, telegram integration disabled")
	}

	// Инициализация сервисов
	emailService := services.NewEmailService(cfg)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, tgNotifier, emailService, logger)
	authService := services.NewAuthService(dbConn, userRepo, profileRepo, moderationRepo, codeStore, emailService)
	userService := services.NewUserService(userRepo, profileRepo, interestRepo, cloudflareUploader)
	catalogService := services.NewCatalogService(catalogRepo)
	requestService := services.NewRequestService(requestRepo, participationRepo, catalogRepo, notificationService, cloudflareUploader, logger)
	participationService := services.NewParticipationService(participationRepo, requestRepo, userRepo, moderationRepo, requestService, notificationService)
	favoriteService := services.NewFavoriteService(favoriteRepo, requestRepo, cloudflareUploader)
	reviewService := services.NewReviewService(reviewRepo, requestRepo, participationRepo, profileRepo, notificationService)
	chatService := services.NewChatService(chatRepo, userRepo, notificationService)
	moderationService := services.NewModerationService(moderationRepo, userRepo, requestRepo, notificationService)
	logger.Info("services initialized")

	// Входящие сообщения из вебсокета сохраняем и рассылаем в комнату
	wsHub.OnMessage = func(room string, senderID int, inbound chat.InboundMessage) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		roomID, err := chat.ParseRoomName(room)
		if err != nil {
			return
		}

		switch inbound.Type {
		case "message":
			message, err := chatService.SendMessage(ctx, roomID, senderID, services.SendMessageInput{Content: inbound.Content})
			if err != nil {
				logger.Warn("failed to save websocket message", slog.Any("error", err))
				return
			}
			wsHub.BroadcastToRoom(room, chat.WebSocketMessage{Type: "message", Payload: message, RoomID: room})
		case "typing":
			wsHub.BroadcastToRoom(room, chat.WebSocketMessage{Type: "typing", Payload: senderID, RoomID: room})
		case "read":
			if err := chatService.MarkRead(ctx, roomID, senderID); err == nil {
				wsHub.BroadcastToRoom(room, chat.WebSocketMessage{Type: "read", Payload: senderID, RoomID: room})
			}
		}
	}

	// Контекст фоновых задач, отменяется при завершении процесса
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// Планировщик закрытия просроченных заявок и напоминаний о сегодняшних
	sweepAndRemind := func() {
		if n, err := requestService.SweepExpired(appCtx); err != nil {
			logger.Error("sweeper: run failed", slog.Any("error", err))
		} else if n > 0 {
			logger.Info("sweeper: expired requests completed", slog.Int64("count", n))
		}
		if n, err := requestService.SendReminders(appCtx); err != nil {
			logger.Error("sweeper: reminder run failed", slog.Any("error", err))
		} else if n > 0 {
			logger.Info("sweeper: activity reminders sent", slog.Int("count", n))
		}
	}
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		logger.Info("expired-request sweeper started", slog.Duration("interval", sweepInterval))

		sweepAndRemind()
		for {
			select {
			case <-appCtx.Done():
				return
			case <-ticker.C:
				sweepAndRemind()
			}
		}
	}()

	// Цикл Telegram-бота
	if tgClient != nil {
		tgBot := bot.New(tgClient, authService, userRepo, codeStore, logger)
		go tgBot.Run(appCtx)
	}

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService, reviewService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	requestHandler := handlers.NewRequestHandler(requestService, participationService, favoriteService, reviewService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	chatHandler := handlers.NewChatHandler(chatService)
	moderationHandler := handlers.NewModerationHandler(moderationService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, chatService)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		userHandler,
		catalogHandler,
		requestHandler,
		reviewHandler,
		notificationHandler,
		chatHandler,
		moderationHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancelApp()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
