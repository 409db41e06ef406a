package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"greencart/config"
	"greencart/controllers"
	"greencart/gateway"
	"greencart/jobs"
	"greencart/middleware"
	"greencart/routes"
	"greencart/store"
	"greencart/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	utils.JwtKey = []byte(cfg.JWTSecret)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	client, err := store.Connect(ctx, cfg.MongoURI)
	cancel()
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("disconnect", zap.Error(err))
		}
	}()

	db := store.New(client, cfg.MongoDB)
	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	err = db.EnsureIndexes(ctx)
	cancel()
	if err != nil {
		logger.Fatal("index creation failed", zap.Error(err))
	}
	logger.Info("database connected", zap.String("db", cfg.MongoDB))

	payments := gateway.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	mailer := utils.NewEmailService(cfg.PostmarkToken, cfg.EmailSender)

	auth := &middleware.Auth{Users: db, SellerEmail: cfg.SellerEmail, Log: logger}
	router := mux.NewRouter()
	routes.RegisterRoutes(router, auth, routes.Controllers{
		Users:     controllers.NewUserController(db, mailer, cfg.Production(), logger),
		Sellers:   controllers.NewSellerController(cfg.SellerEmail, cfg.SellerPassword, cfg.Production(), logger),
		Products:  controllers.NewProductController(db, logger),
		Carts:     controllers.NewCartController(db, logger),
		Addresses: controllers.NewAddressController(db, logger),
		Orders:    controllers.NewOrderController(db, payments, logger),
		Webhooks:  controllers.NewWebhookController(db, payments, logger),
	})

	janitor := jobs.NewOrderJanitor(db, 24*time.Hour, logger)
	scheduler := jobs.Start(janitor)
	defer scheduler.Stop()

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)

	logger.Info("server listening", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, cors(router)); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var zapConfig zap.Config
	if cfg.Production() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatal(err)
	}
	return logger
}
