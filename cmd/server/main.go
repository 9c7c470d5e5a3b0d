package main

import (
	"log"
	"os"

	"promptu/internal/db"
	"promptu/internal/handlers"
	"promptu/internal/middleware"
	"promptu/internal/router"
	"promptu/internal/services"
	"promptu/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	// Initialize Database
	conn := db.Init()

	// Services（启动时构造一次，显式传给处理器）
	cache := utils.NewCache(500)
	voteService := services.NewVoteService(conn)
	viewService := services.NewViewService(conn, os.Getenv("REDIS_URL"))
	statsService := services.NewStatsService(conn, cache)
	discordService := services.NewDiscordService()

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	store := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("promptu_session", store))

	// Middleware
	r.Use(middleware.LoadUser(conn))

	// Handlers
	router.RegisterRoutes(r, router.Handlers{
		Auth:       handlers.NewAuthHandler(conn),
		Prompt:     handlers.NewPromptHandler(conn, viewService, statsService, discordService),
		CursorRule: handlers.NewCursorRuleHandler(conn, viewService, discordService),
		Vote:       handlers.NewVoteHandler(conn, voteService),
		Stats:      handlers.NewStatsHandler(statsService),
		User:       handlers.NewUserHandler(conn),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Promptu server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
