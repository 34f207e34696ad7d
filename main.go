package main

import (
	"log"
	"net/http"

	"file-message/internal/blobref"
	"file-message/internal/config"
	"file-message/internal/handlers"
	"file-message/internal/host"
	"file-message/internal/imsdk"
	"file-message/internal/logger"
	"file-message/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger.Init(cfg.LogLevel)

	tool := services.NewFFmpegTool(cfg.Media.FFmpegPath, cfg.Media.FFprobePath)
	if !tool.Supported() || !tool.ProbeSupported() {
		logger.Warn("ffmpeg or ffprobe not found, video messages will fail")
	}
	prober := services.NewMediaProber(tool, services.MediaProberConfig{
		ProbeTimeout:         cfg.Media.ProbeTimeout,
		SnapshotTimeout:      cfg.Media.SnapshotTimeout,
		SnapshotMaxDimension: cfg.Media.SnapshotMaxDimension,
	})
	env := host.NewEnvironment(cfg.Host.NativeFileAccess, cfg.Host.SnapshotDir)
	uploads := host.NewEnvironment(cfg.Host.NativeFileAccess, cfg.Host.UploadDir)
	refs := blobref.NewRegistry(cfg.BaseURL, cfg.Media.ContentRefTTL)

	strategy, err := services.NewPathStrategy(services.StrategyDeps{
		SDK:  imsdk.New(),
		Host: env,
		IDs:  services.UUIDGenerator{},
		Refs: refs,
	})
	if err != nil {
		log.Fatal("Failed to select path strategy: ", err)
	}
	builder := services.NewMessageBuilder(prober, strategy)

	logger.WithFields(logrus.Fields{
		"nativeFileAccess": cfg.Host.NativeFileAccess,
		"snapshotDir":      cfg.Host.SnapshotDir,
		"uploadDir":        cfg.Host.UploadDir,
		"concurrency":      cfg.Processing.Concurrency,
	}).Info("Message pipeline ready")

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = 32 << 20

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.Use(handlers.AuthMiddleware(cfg.Token))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":           "ok",
			"nativeFileAccess": strategy.Native(),
			"ffmpeg":           tool.Supported(),
			"ffprobe":          tool.ProbeSupported(),
		})
	})

	blobHandler := handlers.NewBlobHandler(refs)
	router.GET("/blob/:id", blobHandler.Serve)
	router.DELETE("/blob/:id", blobHandler.Revoke)

	api := router.Group("/api")
	{
		messageHandler := handlers.NewMessageHandler(builder, uploads, cfg.Processing.Concurrency, cfg.Processing.MaxUploadBytes)
		api.POST("/file-messages", messageHandler.CreateFileMessages)
		api.POST("/file-messages/by-path", messageHandler.CreateFileMessagesByPath)
		api.POST("/video-snapshots", messageHandler.CreateVideoSnapshot)

		snapshotHandler := handlers.NewSnapshotHandler(cfg.Host.SnapshotDir)
		api.DELETE("/snapshots", snapshotHandler.DeleteSnapshots)

		uploadHandler := handlers.NewUploadHandler(cfg.Host.UploadDir)
		api.DELETE("/uploads", uploadHandler.DeleteUploads)
	}

	logger.Info("🚀 Service listening on port " + cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
