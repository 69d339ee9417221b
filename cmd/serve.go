package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/energiq-cloud/ms-go-transaction-payments/app/amount"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/controller"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/gateway"
	appmiddleware "github.com/energiq-cloud/ms-go-transaction-payments/app/middleware"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/repository"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/service"
	"github.com/energiq-cloud/ms-go-transaction-payments/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP server exposing the transaction payment lifecycle API and the gateway webhook.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, paymentService, cleanup := mustCreatePaymentService()
	defer cleanup()

	paymentController := controller.NewPaymentController(paymentService)
	authMiddleware := appmiddleware.NewJWTAuth(cfg.Auth.JWTSecret)

	e := setupHTTPServer(paymentController, authMiddleware)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	paymentController *controller.PaymentController,
	authMiddleware *appmiddleware.JWTAuth,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(ensureRequestID())

	e.GET("/health", paymentController.Health)

	payment := e.Group("/payment")

	// The gateway cannot authenticate; the webhook stays outside the
	// token-protected group.
	payment.POST("/webhook", paymentController.HandlePaymentWebhook)

	api := payment.Group("", authMiddleware.RequireToken())
	api.GET("/transactions/:transactionId", paymentController.GetTransactionPayment)
	api.GET("/providers/:providerId/transactions", paymentController.ListProviderTransactions)
	api.GET("/users/:userId/transactions", paymentController.ListUserTransactions)
	api.POST("/transactions", paymentController.RegisterTransactionPayment)
	api.POST("/transactions/:transactionId/pay", paymentController.PayTransaction)

	return e
}

func ensureRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				requestID = uuid.NewString()
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}

func mustCreatePaymentService() (*config.Config, *service.PaymentService, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	paymentRepo := repository.NewPaymentRepository(db)
	eventRepo := repository.NewPaymentEventRepository(db)
	webhookRepo := repository.NewWebhookRecordRepository(db)

	paymobClient := gateway.NewPaymobClient(gateway.PaymobConfig{
		BaseURL:         cfg.Paymob.BaseURL,
		SecretKey:       cfg.Paymob.SecretKey,
		PublicKey:       cfg.Paymob.PublicKey,
		PaymentMethodID: cfg.Paymob.PaymentMethodID,
		Currency:        cfg.Paymob.Currency,
		HTTPTimeout:     cfg.Paymob.HTTPTimeout,
	})

	amountSource := amount.NewSessionClient(amount.SessionClientConfig{
		BaseURL:     cfg.Amount.SessionServiceBaseURL,
		HTTPTimeout: cfg.Amount.HTTPTimeout,
	})

	paymentService := service.NewPaymentService(
		paymentRepo,
		eventRepo,
		webhookRepo,
		paymobClient,
		amountSource,
	)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, paymentService, cleanup
}

func configureLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	return nil
}
