package routes

import (
	"github.com/adilzhm/meetmate/handlers"
	"github.com/adilzhm/meetmate/middleware"
	"github.com/adilzhm/meetmate/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes собирает все маршруты приложения поверх переданного роутера.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	catalogHandler *handlers.CatalogHandler,
	requestHandler *handlers.RequestHandler,
	reviewHandler *handlers.ReviewHandler,
	notificationHandler *handlers.NotificationHandler,
	chatHandler *handlers.ChatHandler,
	moderationHandler *handlers.ModerationHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticator(jwtSecret)
	moderatorOnly := middleware.Authorize(models.RoleModerator)

	// Аутентификация
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)
	router.Get("/auth/check-username", authHandler.CheckUsername)
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/auth/telegram/link", authHandler.LinkTelegram)
	})

	// Каталог: категории и активности
	router.Route("/catalog", func(r chi.Router) {
		r.Get("/categories", catalogHandler.ListCategories)
		r.Get("/activities", catalogHandler.ListActivities)
		r.Get("/activities/{id}", catalogHandler.GetActivity)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(moderatorOnly)
			r.Post("/categories", catalogHandler.CreateCategory)
			r.Post("/activities", catalogHandler.CreateActivity)
			r.Put("/activities/{id}", catalogHandler.UpdateActivity)
		})
	})

	// Пользователи и профили
	router.Route("/users", func(r chi.Router) {
		r.Get("/{id}", userHandler.GetUserByID)
		r.Get("/{id}/interests", userHandler.ListInterests)
		r.Get("/{id}/reviews", userHandler.ListUserReviews)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{id}/like", userHandler.LikeProfile)
			r.Delete("/{id}/like", userHandler.UnlikeProfile)
		})
	})

	router.Route("/me", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", userHandler.GetMe)
		r.Put("/profile", userHandler.UpdateProfile)
		r.Post("/profile/photo", userHandler.UploadProfilePhoto)
		r.Post("/interests", userHandler.AddInterest)
		r.Put("/interests/{id}", userHandler.UpdateInterest)
		r.Delete("/interests/{id}", userHandler.RemoveInterest)
		r.Get("/participations", requestHandler.ListMyParticipations)
		r.Get("/favorites", requestHandler.ListFavorites)
	})

	// Заявки
	router.Route("/requests", func(r chi.Router) {
		r.Get("/", requestHandler.List)
		r.Get("/{id}", requestHandler.GetByID)
		r.Get("/{id}/participants", requestHandler.ListParticipants)
		r.Get("/{id}/reviews", requestHandler.ListRequestReviews)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", requestHandler.Create)
			r.Put("/{id}", requestHandler.Update)
			r.Post("/{id}/cancel", requestHandler.Cancel)
			r.Delete("/{id}", requestHandler.Delete)
			r.Post("/{id}/photo", requestHandler.UploadPhoto)

			r.Post("/{id}/join", requestHandler.Join)
			r.Post("/{id}/leave", requestHandler.Leave)
			r.Delete("/{id}/participants/{userID}", requestHandler.ExcludeParticipant)

			r.Post("/{id}/favorite", requestHandler.AddFavorite)
			r.Delete("/{id}/favorite", requestHandler.RemoveFavorite)
		})
	})

	// Отзывы
	router.Route("/reviews", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/", reviewHandler.Create)
		r.Delete("/{id}", reviewHandler.Delete)
	})

	// Уведомления
	router.Route("/notifications", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", notificationHandler.List)
		r.Get("/unread-count", notificationHandler.UnreadCount)
		r.Post("/{id}/read", notificationHandler.MarkRead)
		r.Post("/read-all", notificationHandler.MarkAllRead)
	})

	// Чаты
	router.Route("/chats", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/", chatHandler.OpenRoom)
		r.Get("/", chatHandler.ListRooms)
		r.Get("/{id}", chatHandler.GetRoom)
		r.Get("/{id}/messages", chatHandler.ListMessages)
		r.Post("/{id}/messages", chatHandler.SendMessage)
		r.Post("/{id}/read", chatHandler.MarkRead)
	})

	// WebSocket чата: токен приходит query-параметром
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/ws/chats/{id}", webSocketHandler.ServeWs)
	})

	// Модерация
	router.Route("/moderation", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/complaints", moderationHandler.CreateComplaint)

		r.Group(func(r chi.Router) {
			r.Use(moderatorOnly)
			r.Get("/complaints", moderationHandler.ListComplaints)
			r.Post("/complaints/{id}/resolve", moderationHandler.ResolveComplaint)
			r.Post("/bans", moderationHandler.BanUser)
			r.Delete("/bans/users/{id}", moderationHandler.UnbanUser)
			r.Get("/bans/users/{id}", moderationHandler.ListUserBans)
		})
	})
}
