package main

import (
	"fmt"
	"log"
	"net/http"

	"routemeet/backend/internal/auth"
	"routemeet/backend/internal/config"
	"routemeet/backend/internal/database"
	"routemeet/backend/internal/handler"
	"routemeet/backend/internal/mailer"
	"routemeet/backend/internal/verifycode"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "routemeet/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           RouteMeet API
// @version         1.0
// @description     This is the API for the RouteMeet service.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	// Password-reset codes live in redis with a TTL
	cache, err := verifycode.NewRedisCache(config.AppConfig.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer cache.Close()

	handler.Setup(verifycode.NewStore(cache), mailer.New(config.AppConfig))

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Auth routes
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", handler.RegisterUser)
		authRoutes.POST("/login", handler.LoginUser)
		authRoutes.POST("/password-reset/request", handler.RequestPasswordReset)
		authRoutes.POST("/password-reset/confirm", handler.ConfirmPasswordReset)
	}

	// User routes (protected)
	userRoutes := router.Group("/users")
	userRoutes.Use(auth.AuthMiddleware())
	{
		userRoutes.GET("", handler.SearchUsers) // Must be before /:id
		userRoutes.GET("/me", handler.GetMe)
		userRoutes.GET("/:id", handler.GetUserByID)
		userRoutes.GET("/:id/likes", handler.GetUserLikes)
	}

	// Admin routes (protected, admin role required)
	adminRoutes := router.Group("/admin")
	adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
	{
		adminRoutes.GET("/users", handler.ListAllUsers)
	}

	// Friendship routes (protected)
	friendshipRoutes := router.Group("/friendship")
	friendshipRoutes.Use(auth.AuthMiddleware())
	{
		friendshipRoutes.GET("", handler.GetFriendships)
		friendshipRoutes.GET("/status/:a/:b", handler.GetFriendshipStatus)
		friendshipRoutes.POST("/request", handler.SendFriendRequest)
		friendshipRoutes.DELETE("/request", handler.CancelFriendRequest)
		friendshipRoutes.PUT("/accept/:other", handler.AcceptFriendRequest)
		friendshipRoutes.DELETE("/friendship", handler.RemoveFriendship)
		friendshipRoutes.POST("/block", handler.BlockUser)
		friendshipRoutes.POST("/unblock", handler.UnblockUser)
		friendshipRoutes.GET("/friends/:user", handler.GetFriends)
		friendshipRoutes.GET("/pending", handler.GetPendingRequests)
		friendshipRoutes.GET("/blocked", handler.GetBlockedUsers)
	}

	// Event routes: reads are public with optional auth (authenticated
	// viewers get blocked-pair filtering), mutations require auth
	eventReads := router.Group("/events")
	eventReads.Use(auth.OptionalAuthMiddleware())
	{
		eventReads.GET("", handler.GetEvents)
		eventReads.GET("/user/:id", handler.GetUserEvents)
		eventReads.GET("/:id", handler.GetEventByID)
		eventReads.GET("/:id/likes", handler.GetEventLikes)
	}
	eventRoutes := router.Group("/events")
	eventRoutes.Use(auth.AuthMiddleware())
	{
		eventRoutes.POST("", handler.CreateEvent)
		eventRoutes.POST("/:id/register", handler.RegisterForEvent)
		eventRoutes.DELETE("/:id/register", handler.UnregisterFromEvent)
		eventRoutes.POST("/:id/like", handler.LikeEvent)
		eventRoutes.DELETE("/:id/like", handler.UnlikeEvent)
	}

	// Comment routes: reads are public, writes require auth
	commentReads := router.Group("/comments")
	{
		commentReads.GET("/event/:event_id", handler.GetEventComments)
		commentReads.GET("/:id", handler.GetComment)
	}
	commentRoutes := router.Group("/comments")
	commentRoutes.Use(auth.AuthMiddleware())
	{
		commentRoutes.POST("/event/:event_id", handler.CreateComment)
		commentRoutes.DELETE("/:id", handler.DeleteComment)
	}

	// Saved event routes (protected)
	savedRoutes := router.Group("/saved-events")
	savedRoutes.Use(auth.AuthMiddleware())
	{
		savedRoutes.GET("", handler.GetSavedEvents)
		savedRoutes.POST("/:event_id", handler.SaveEvent)
		savedRoutes.DELETE("/:event_id", handler.UnsaveEvent)
	}

	// Notification routes (protected)
	notificationRoutes := router.Group("/notifications")
	notificationRoutes.Use(auth.AuthMiddleware())
	{
		notificationRoutes.GET("", handler.GetNotifications)
		notificationRoutes.GET("/unread-count", handler.GetUnreadCount)
		notificationRoutes.PUT("/:id/read", handler.MarkNotificationRead)
		notificationRoutes.PUT("/read-all", handler.MarkAllNotificationsRead)
	}

	// QR attendance routes (protected)
	qrRoutes := router.Group("/qr-attendance")
	qrRoutes.Use(auth.AuthMiddleware())
	{
		qrRoutes.POST("/generate-qr/:event_id/:user_id", handler.GenerateQR)
		qrRoutes.POST("/verify-qr", handler.VerifyQR)
		qrRoutes.GET("/historial/:event_id", handler.GetAttendanceHistory)
		qrRoutes.GET("/estadisticas/:event_id", handler.GetAttendanceStatistics)
	}

	fmt.Printf("Server is running on %s\n", config.AppConfig.ServerAddr)
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(config.AppConfig.ServerAddr))
}
