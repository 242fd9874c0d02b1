package routes

import (
	"time"

	"collab-service/internal/adapters/storage"
	"collab-service/internal/api/handlers"
	"collab-service/internal/api/middleware"
	"collab-service/internal/repositories/postgres"
	"collab-service/internal/services"
	"collab-service/internal/websocket"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Router struct {
	engine              *gin.Engine
	wsHandler           *handlers.WebSocketHandler
	authHandler         *handlers.AuthHandler
	userHandler         *handlers.UserHandler
	channelHandler      *handlers.ChannelHandler
	messageHandler      *handlers.MessageHandler
	notificationHandler *handlers.NotificationHandler
	rateLimitMW         *middleware.RateLimitMiddleware
	authMW              *middleware.AuthMiddleware
}

func NewRouter(
	hub *websocket.Hub,
	notifier *websocket.Notifier,
	redisService *services.RedisService,
	db *gorm.DB,
	tokens *services.TokenService,
	producer sarama.SyncProducer,
	kafkaTopic string,
	files *storage.MinIOClient,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogAPI())

	userRepo := postgres.NewUserRepository(db)
	channelRepo := postgres.NewChannelRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	userService := services.NewUserService(userRepo, tokens)
	channelService := services.NewChannelService(channelRepo)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, notifier)
	chatService := services.NewChatService(messageRepo, channelRepo, userRepo, notificationService, hub)
	if producer != nil {
		chatService = chatService.WithKafka(producer, kafkaTopic)
	}
	if files != nil {
		chatService = chatService.WithFileStorage(files)
	}

	gate := websocket.NewGate(tokens, channelService)

	return &Router{
		engine:              engine,
		wsHandler:           handlers.NewWebSocketHandler(hub, gate, messageRepo, redisService),
		authHandler:         handlers.NewAuthHandler(userService),
		userHandler:         handlers.NewUserHandler(userService, redisService),
		channelHandler:      handlers.NewChannelHandler(channelService),
		messageHandler:      handlers.NewMessageHandler(chatService),
		notificationHandler: handlers.NewNotificationHandler(notificationService),
		rateLimitMW:         middleware.NewRateLimitMiddleware(redisService),
		authMW:              middleware.NewAuthMiddleware(tokens),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// WebSocket endpoints authenticate via the token query parameter and
	// close with application codes instead of HTTP statuses.
	r.engine.GET("/ws/chat/:channel_id", r.wsHandler.HandleChatWS)
	r.engine.GET("/api/ws/notifications", r.wsHandler.HandleNotificationsWS)

	api := r.engine.Group("/api")

	// Public routes
	authRoutes := api.Group("/auth")
	authRoutes.Use(r.rateLimitMW.RateLimitIP(50, time.Minute))
	{
		authRoutes.POST("/register", r.authHandler.Register)
		authRoutes.POST("/login", r.authHandler.Login)
	}

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		users := auth.Group("/users")
		users.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			users.GET("/me", r.userHandler.GetProfile)
			users.PUT("/me", r.userHandler.UpdateProfile)
			users.GET("/search", r.userHandler.SearchUsers)
			users.GET("/:id/online", r.userHandler.GetOnlineStatus)
		}

		channels := auth.Group("/channels")
		channels.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			channels.GET("", r.channelHandler.ListChannels)
			channels.POST("", r.channelHandler.CreateChannel)
			channels.GET("/:id", r.channelHandler.GetChannel)
			channels.POST("/:id/join", r.channelHandler.JoinChannel)
			channels.POST("/:id/leave", r.channelHandler.LeaveChannel)
			channels.GET("/:id/members", r.channelHandler.ListMembers)
		}

		chat := auth.Group("/chat")
		chat.Use(r.rateLimitMW.RateLimit(200, time.Minute))
		{
			chat.GET("/channels/:id/messages", r.messageHandler.ListMessages)
			chat.POST("/channels/:id/messages", r.messageHandler.SendMessage)
			chat.POST("/channels/:id/files", r.messageHandler.UploadFile)
		}

		notifications := auth.Group("/notifications")
		notifications.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			notifications.GET("", r.notificationHandler.ListNotifications)
			notifications.GET("/unread-count", r.notificationHandler.UnreadCount)
			notifications.PUT("/:id/read", r.notificationHandler.MarkRead)
			notifications.PUT("/read-all", r.notificationHandler.MarkAllRead)
			notifications.GET("/preferences", r.notificationHandler.GetPreferences)
			notifications.PUT("/preferences", r.notificationHandler.UpdatePreferences)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
