package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oekaki-dex/backend/internal/config"
	"github.com/oekaki-dex/backend/internal/handler"
	"github.com/oekaki-dex/backend/internal/middleware"
	"github.com/oekaki-dex/backend/internal/repository"
	"github.com/oekaki-dex/backend/internal/routes"
	"github.com/oekaki-dex/backend/internal/service"
	pkglogger "github.com/oekaki-dex/backend/pkg/logger"
	pkgstorage "github.com/oekaki-dex/backend/pkg/storage"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.GetLogger().Info().
		Str("env", env).
		Strs("dotenv_files", dotenvFiles).
		Msg("starting dex backend")

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	mediaStore, err := pkgstorage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		log.Fatalf("Failed to init media store: %v", err)
	}

	catalogRepo := repository.NewCatalogRepository(cfg.Storage.DataFile)
	genService := service.NewGenerationService(cfg.Gemini)
	if genService.Enabled() {
		pkglogger.GetLogger().Info().Str("model", cfg.Gemini.Model).Msg("generation enabled")
	} else {
		pkglogger.GetLogger().Info().Msg("no GEMINI_API_KEY, running in placeholder generation mode")
	}

	dexService := service.NewDexService(catalogRepo, mediaStore, genService)
	dexHandler := handler.NewDexHandler(dexService)
	imageHandler := handler.NewImageHandler(mediaStore)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	corsConfig := cors.Config{
		AllowOrigins:  splitAndTrim(allowOrigins, ","),
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	// Middleware
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "dex-backend",
			"time":    time.Now().Unix(),
		})
	})

	routes.Setup(router, dexHandler, imageHandler)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	pkglogger.GetLogger().Info().Str("addr", addr).Msg("server listening")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// splitAndTrim splits a string by delimiter and trims spaces
func splitAndTrim(s string, delimiter string) []string {
	parts := []string{}
	for _, part := range strings.Split(s, delimiter) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
