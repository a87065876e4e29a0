package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"fitclub_backend/internal/database"
	"fitclub_backend/internal/middleware"
	"fitclub_backend/internal/router"
	"fitclub_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	utils.InitLogger()

	dbCfg := database.Config{
		Host:       utils.Getenv("DB_HOST", "localhost"),
		Port:       utils.Getenv("DB_PORT", "5432"),
		User:       utils.Getenv("DB_USER", "fitclub_user"),
		Password:   utils.Getenv("DB_PASSWORD", "fitclub_password"),
		Name:       utils.Getenv("DB_NAME", "fitclub_db"),
		SSLMode:    utils.Getenv("DB_SSLMODE", "disable"),
		SchemaPath: utils.Getenv("DB_SCHEMA_PATH", ""),
	}

	db, err := database.InitDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	utils.LogInfo("Database initialized", map[string]interface{}{"host": dbCfg.Host, "name": dbCfg.Name})

	engine := gin.Default()

	engine.Use(utils.GinLogger())
	engine.Use(middleware.MetricsMiddleware())

	rateLimiter := middleware.NewRateLimiter(
		rate.Limit(utils.GetenvInt("RATE_LIMIT_RPS", 5)),
		utils.GetenvInt("RATE_LIMIT_BURST", 30),
	)
	engine.Use(rateLimiter.Middleware())

	// CORS configuration
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	engine.Use(cors.New(config))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.Setup(engine, db)

	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port})

	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
