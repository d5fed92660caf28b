package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth_gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/mkaraca/session-service/docs"
	"github.com/mkaraca/session-service/internal/session"
	"github.com/mkaraca/session-service/internal/user"
	"github.com/mkaraca/session-service/internal/utils"
)

// @title           Session Service API
// @version         1.0
// @description     User accounts with cookie-based session authentication and refresh-token rotation.
//
// @host      localhost:8080
// @BasePath  /api
func main() {
	// load config
	cfg, err := utils.LoadConfig(".env")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// init database
	db, err := utils.InitDatabase(cfg.Database.DSN())
	if err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}
	if err := db.AutoMigrate(&user.User{}, &session.RefreshTokenRecord{}); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// init logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// init Gin router
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	//
	// SWAGGER (protected by Basic Auth, not JWT)
	//
	swaggerGroup := router.Group("/swagger", gin.BasicAuth(gin.Accounts{
		cfg.Admin.Username: cfg.Admin.Password,
	}))
	swaggerGroup.GET("", ginSwagger.WrapHandler(swaggerFiles.Handler))
	swaggerGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	//
	// WIRE UP SERVICES
	//
	userRepo := user.NewUserRepository(db)
	userService := user.NewUserService(userRepo, logger)

	recordRepo := session.NewRecordRepository(db)
	sessionService := session.NewSessionService(userService, recordRepo, logger, cfg.Token)

	cookieSettings := session.CookieSettings{
		AccessMaxAge:  cfg.Token.AccessTokenTTL,
		RefreshMaxAge: cfg.Token.RefreshTokenTTL,
		Secure:        cfg.Server.IsProduction(),
	}

	api := router.Group("/api")
	userHandler := user.NewUserHandler(api, userService, logger)

	// credential-guessing protection on the unauthenticated auth endpoints
	limiter := tollbooth.NewLimiter(1, nil)
	limiter.SetBurst(5)
	authAPI := api.Group("/")
	authAPI.Use(tollbooth_gin.LimitHandler(limiter))
	sessionHandler := session.NewSessionHandler(authAPI, sessionService, logger, cookieSettings)

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := api.Group("/")
	authGroup.Use(
		session.AuthMiddleware(userService, cfg.Token.AccessTokenSecret, logger),
	)
	authGroup.GET("/users/me", userHandler.Me)
	authGroup.PUT("/users/me", userHandler.UpdateMe)
	authGroup.PUT("/users/me/password", userHandler.UpdateMyPassword)
	authGroup.POST("/auth/logout", sessionHandler.LogOut)

	//
	// START SERVER
	//
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped gracefully")
	}
}
