package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edudir/student-directory/api/swagger"
	"github.com/edudir/student-directory/internal/handler"
	"github.com/edudir/student-directory/internal/middleware"
	"github.com/edudir/student-directory/internal/query"
	"github.com/edudir/student-directory/internal/repository"
	"github.com/edudir/student-directory/internal/service"
	"github.com/edudir/student-directory/internal/validation"
	"github.com/edudir/student-directory/pkg/config"
	"github.com/edudir/student-directory/pkg/logger"
	corsmiddleware "github.com/edudir/student-directory/pkg/middleware/cors"
	reqidmiddleware "github.com/edudir/student-directory/pkg/middleware/requestid"
)

// @title Student Directory API
// @version 1.0.0
// @description Flat-file backed directory of student records
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	repo := repository.NewStudentRepository(cfg.Store.File)
	if err := repo.InitializeIfAbsent(); err != nil {
		logr.Sugar().Fatalw("failed to initialize collection file", "file", cfg.Store.File, "error", err)
	}

	students := service.NewStudentService(repo, query.NewEngine(nil), validation.New(), logr, nil)
	exports := service.NewExportService(students, logr, nil, nil)
	metrics := service.NewMetricsService()

	studentHandler := handler.NewStudentHandler(students, cfg.APIPrefix)
	exportHandler := handler.NewExportHandler(exports)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		studentRoutes := api.Group("/students")
		studentRoutes.GET("", studentHandler.List)
		studentRoutes.POST("", studentHandler.Create)
		if cfg.Export.Enabled {
			studentRoutes.GET("/export", exportHandler.Download)
		}
		studentRoutes.GET("/:id", studentHandler.Get)
		studentRoutes.PATCH("/:id", studentHandler.Update)
		studentRoutes.DELETE("/:id", studentHandler.Delete)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "db_file", cfg.Store.File)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
