package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/app"
	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Course timetable management and generation service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to init application", zap.Error(err))
	}
	defer func() {
		if err := application.Close(); err != nil {
			logr.Warn("failed to close application", zap.Error(err))
		}
	}()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := newRouter(cfg, application)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func newRouter(cfg *config.Config, a *app.App) *gin.Engine {
	svcs := a.Services

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.Logger, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svcs.Metrics))

	metricsHandler := handler.NewMetricsHandler(svcs.Metrics, a.DB)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	subjectHandler := handler.NewSubjectHandler(svcs.Subjects)
	teacherHandler := handler.NewTeacherHandler(svcs.Teachers)
	roomHandler := handler.NewRoomHandler(svcs.Rooms)
	timeSlotHandler := handler.NewTimeSlotHandler(svcs.TimeSlots)
	curriculumHandler := handler.NewCurriculumHandler(svcs.Curricula)
	studentHandler := handler.NewStudentHandler(svcs.Students)
	exemptionHandler := handler.NewExemptionHandler(svcs.Exemptions)
	classHandler := handler.NewClassHandler(svcs.Sessions, svcs.Schedule, svcs.Export)
	adminHandler := handler.NewAdminHandler(svcs.Stats)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(svcs.Auth))
	admin := middleware.RequireAdmin()

	subjects := api.Group("/subjects")
	subjects.GET("", subjectHandler.List)
	subjects.GET("/:id", subjectHandler.Get)
	subjects.POST("", subjectHandler.Create)

	teachers := api.Group("/teachers")
	teachers.GET("", teacherHandler.List)
	teachers.GET("/:id", teacherHandler.Get)
	teachers.POST("", teacherHandler.Create)

	rooms := api.Group("/rooms")
	rooms.GET("", roomHandler.List)
	rooms.GET("/:id", roomHandler.Get)
	rooms.POST("", roomHandler.Create)

	timeSlots := api.Group("/time-slots")
	timeSlots.GET("", timeSlotHandler.List)
	timeSlots.GET("/:id", timeSlotHandler.Get)
	timeSlots.POST("", admin, timeSlotHandler.Create)
	timeSlots.PUT("/:id", admin, timeSlotHandler.Update)

	curricula := api.Group("/curricula")
	curricula.GET("", curriculumHandler.List)
	curricula.GET("/:id", curriculumHandler.Get)
	curricula.POST("", curriculumHandler.Create)

	students := api.Group("/students")
	students.GET("", studentHandler.List)
	students.GET("/:id", studentHandler.Get)
	students.POST("", studentHandler.Create)

	classes := api.Group("/classes")
	classes.GET("", classHandler.List)
	classes.POST("", classHandler.Create)
	classes.POST("/generate", admin, classHandler.Generate)
	classes.GET("/coverage", classHandler.Coverage)
	classes.GET("/export", classHandler.Export)
	classes.GET("/:id", classHandler.Get)
	classes.PUT("/:id", classHandler.Update)
	classes.DELETE("/:id", admin, classHandler.Delete)

	exemptions := api.Group("/exemptions")
	exemptions.GET("", exemptionHandler.List)
	exemptions.POST("", admin, exemptionHandler.Create)

	api.GET("/admin/stats", admin, adminHandler.Stats)

	return r
}
