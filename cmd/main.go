package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mthsena/corrigeai/config"
	"github.com/mthsena/corrigeai/database"
	"github.com/mthsena/corrigeai/internal/auth"
	"github.com/mthsena/corrigeai/internal/controller"
	"github.com/mthsena/corrigeai/internal/logger"
	"github.com/mthsena/corrigeai/internal/model"
	"github.com/mthsena/corrigeai/internal/repository"
	"github.com/mthsena/corrigeai/internal/service"
	"github.com/mthsena/corrigeai/internal/storage"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Corrige Aí - ENEM Essay Correction API
// @version 1.0
// @description Upload handwritten ENEM essays, extract their text with vision OCR, and get a rubric-based AI evaluation (5 competencies, 0-1000 total).
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
			NewAuthSigner,
		),

		fx.Provide(
			repository.NewEssayRepository,
			repository.NewEvaluationRepository,
		),

		fx.Provide(
			storage.NewMinioStorage,
			service.NewVisionOCRService,
			service.NewGeminiLLMService,
			service.NewEssayPipelineService,
			service.NewEssayService,
		),

		fx.Provide(
			controller.NewEssayController,
			controller.NewPipelineController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewAuthSigner(cfg *config.Config) *auth.Signer {
	return auth.NewSigner([]byte(cfg.AuthSecret))
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages the server
// lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	signer *auth.Signer,
	essayCtrl *controller.EssayController,
	pipelineCtrl *controller.PipelineController,
) {
	api := router.Group("/api/v1")
	api.Use(auth.Middleware(signer))
	{
		essays := api.Group("/essays")
		essays.POST("", essayCtrl.Upload)
		essays.GET("", essayCtrl.List)
		essays.GET("/:id", essayCtrl.Get)
		essays.DELETE("/:id", essayCtrl.Delete)
		essays.GET("/:id/evaluation", essayCtrl.GetEvaluation)
		essays.DELETE("/:id/evaluation", pipelineCtrl.DeleteEvaluation)

		api.POST("/ocr", pipelineCtrl.Transcribe)
		api.POST("/evaluate", pipelineCtrl.Evaluate)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Essay correction API starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Essay{},
		&model.Evaluation{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
