package bootstrap

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/examsafe/examsafe/internal/app/controllers"
	appRoutes "github.com/examsafe/examsafe/internal/app/routes"
	appServices "github.com/examsafe/examsafe/internal/app/services"
	"github.com/examsafe/examsafe/internal/app/store"
	"github.com/examsafe/examsafe/internal/config"
	appMiddleware "github.com/examsafe/examsafe/internal/middleware"
	pkgAuth "github.com/examsafe/examsafe/internal/pkg/auth"
	"github.com/examsafe/examsafe/internal/pkg/fhe"
	"github.com/examsafe/examsafe/internal/pkg/ledger"
	"github.com/examsafe/examsafe/internal/pkg/logger"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Workflow          *appServices.WorkflowService
	StatusCenter      *appServices.StatusCenter
	RecordStore       *store.RecordStore
	LedgerClient      *ledger.Client
	Gateway           *fhe.RelayerGateway
	JWTService        *pkgAuth.JWTService
	AuthController    *appControllers.AuthController
	ExamController    *appControllers.ExamController
	SystemController  *appControllers.SystemController
	SessionMiddleware *appMiddleware.SessionMiddleware
	Logger            zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// BuildDependencies initializes clients, services, and controllers.
func BuildDependencies(cfg *config.Config, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	ledgerClient := ledger.NewReadOnlyClient(
		cfg.Ledger.Endpoint,
		cfg.Ledger.ContractAddress,
		ledger.WithPollInterval(config.ParseDuration(cfg.Ledger.PollInterval, 2*time.Second)),
		ledger.WithTxTimeout(config.ParseDuration(cfg.Ledger.TxTimeout, 2*time.Minute)),
	)
	deps.LedgerClient = ledgerClient

	deps.Gateway = fhe.NewRelayerGateway(
		cfg.Relayer.Endpoint,
		fhe.WithHTTPClient(&http.Client{
			Timeout: config.ParseDuration(cfg.Relayer.RequestTimeout, 60*time.Second),
		}),
	)

	deps.RecordStore = store.NewRecordStore()
	deps.StatusCenter = appServices.NewStatusCenter(
		config.ParseDuration(cfg.Status.SuccessTTL, 2*time.Second),
		config.ParseDuration(cfg.Status.ErrorTTL, 3*time.Second),
	)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		SessionExp:  config.ParseDuration(cfg.JWT.SessionExpiration, time.Hour),
		TokenIssuer: cfg.JWT.Issuer,
	})

	deps.Workflow = appServices.NewWorkflowService(
		ledgerClient,
		func(account string) appServices.LedgerWriter {
			return ledgerClient.ForAccount(account)
		},
		deps.Gateway,
		deps.RecordStore,
		deps.StatusCenter,
		cfg.Ledger.ContractAddress,
		lgr,
	)

	deps.SessionMiddleware = appMiddleware.NewSessionMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.JWTService, lgr)
	deps.ExamController = appControllers.NewExamController(deps.Workflow)
	deps.SystemController = appControllers.NewSystemController(deps.Workflow)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.Default()

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.ExamController,
		deps.SystemController,
		deps.SessionMiddleware,
	)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
