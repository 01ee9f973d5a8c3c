package api

import (
	"net/http"

	authdelivery "mailflow-backend/internal/auth/delivery"
	authusecase "mailflow-backend/internal/auth/usecase"
	maildelivery "mailflow-backend/internal/mail/delivery"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(
	r *gin.Engine,
	authUsecase authusecase.AuthUsecase,
	mailHandler *maildelivery.MailHandler,
	aiHandler *maildelivery.AIHandler,
) {
	authHandler := authdelivery.NewAuthHandler(authUsecase)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", authdelivery.AuthMiddleware(authUsecase), authHandler.Me)
		}

		// Mailbox linking (protected)
		aurinko := api.Group("/aurinko")
		aurinko.Use(authdelivery.AuthMiddleware(authUsecase))
		{
			aurinko.GET("/authorize", mailHandler.GetAuthorizeURL)
			aurinko.GET("/callback", mailHandler.AurinkoCallback)
		}

		// Account and thread routes (protected)
		accounts := api.Group("/accounts")
		accounts.Use(authdelivery.AuthMiddleware(authUsecase))
		{
			accounts.GET("", mailHandler.ListAccounts)
			accounts.GET("/:accountId/threads", mailHandler.GetThreads)
			accounts.GET("/:accountId/threads/count", mailHandler.CountThreads)
			accounts.GET("/:accountId/threads/:threadId", mailHandler.GetThread)
			accounts.PUT("/:accountId/threads/:threadId/done", mailHandler.SetThreadDone)
			accounts.GET("/:accountId/threads/:threadId/reply", mailHandler.GetReplyDetails)
			accounts.GET("/:accountId/suggestions", mailHandler.GetSuggestions)
			accounts.GET("/:accountId/search", mailHandler.Search)
			accounts.POST("/:accountId/send", mailHandler.SendEmail)
			accounts.POST("/:accountId/initial-sync", mailHandler.InitialSync)
			accounts.POST("/:accountId/sync", mailHandler.TriggerSync)
		}

		// AI composer routes (protected)
		ai := api.Group("/ai")
		ai.Use(authdelivery.AuthMiddleware(authUsecase))
		{
			ai.POST("/compose", aiHandler.Compose)
			ai.POST("/complete", aiHandler.Complete)
		}
	}
}
