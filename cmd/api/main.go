package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/pillarhealth/clinic-api/internal/cache"
	"github.com/pillarhealth/clinic-api/internal/config"
	dbpkg "github.com/pillarhealth/clinic-api/internal/db"
	"github.com/pillarhealth/clinic-api/internal/middleware"
	"github.com/pillarhealth/clinic-api/internal/routes"
	"github.com/pillarhealth/clinic-api/internal/storage"
)

func main() {

	// Local development loads .env; in production the variables come
	// from the environment itself.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := config.Load()
	db := dbpkg.NewDB(cfg)

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	uploader := storage.NewUploader(cfg)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.RegisterRoutes(r, db, cfg, redisClient, uploader)

	log.Printf("Server running on %s", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
