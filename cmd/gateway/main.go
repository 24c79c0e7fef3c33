// Command gateway runs an Agent Gateway: certificate verification, action
// execution, and live behavioral monitoring behind the HTTP surface of
// spec.md §6.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Retr0981/agenttrust/internal/actionregistry"
	"github.com/Retr0981/agenttrust/internal/behavior"
	"github.com/Retr0981/agenttrust/internal/certificate"
	gwhandler "github.com/Retr0981/agenttrust/internal/gateway/handler"
	"github.com/Retr0981/agenttrust/internal/gatewaymetrics"
	"github.com/Retr0981/agenttrust/internal/httpmiddleware"
	"github.com/Retr0981/agenttrust/internal/gatewaypipeline"
	"github.com/Retr0981/agenttrust/internal/gatewayreporter"
	"github.com/Retr0981/agenttrust/internal/threatadapter"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("gateway exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("port", 8090)
	viper.SetDefault("gateway_id", "gateway-local")
	viper.SetDefault("station_url", "http://localhost:8080")
	viper.SetDefault("developer_api_key", "")
	viper.SetDefault("key_refresh_seconds", 3600)
	viper.SetDefault("behavior_sweep_seconds", 60)
	viper.SetDefault("threat_analysis_enabled", true)
	viper.SetDefault("cors_origins", []string{"*"})
	viper.SetDefault("rate_limit_rps", 50)

	gatewayID := viper.GetString("gateway_id")
	stationURL := viper.GetString("station_url")
	apiKey := viper.GetString("developer_api_key")
	if apiKey == "" {
		return errors.New("DEVELOPER_API_KEY is required")
	}

	// ── Station public key (cached, refreshed on a timer) ────────────────────
	keySource := certificate.NewCachedKeySource(
		stationURL+"/.well-known/station-keys",
		time.Duration(viper.GetInt("key_refresh_seconds"))*time.Second,
		func(err error) { logger.Warn("station key refresh failed, using stale cache", zap.Error(err)) },
	)
	primeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := keySource.Prime(primeCtx); err != nil {
		return fmt.Errorf("prime station key: %w", err)
	}
	logger.Info("station public key loaded")

	verifier := certificate.NewVerifier(keySource)

	// ── Action registry ───────────────────────────────────────────────────────
	registry, err := actionregistry.New(actionregistry.Builtin())
	if err != nil {
		return fmt.Errorf("build action registry: %w", err)
	}

	// ── Behavior tracker ──────────────────────────────────────────────────────
	tracker := behavior.New(behavior.DefaultConfig(), func(ev behavior.Event) {
		gatewaymetrics.RecordBehaviorBlock(ev.Flag)
		logger.Info("behavior flag",
			zap.String("agentId", ev.AgentID),
			zap.String("flag", ev.Flag),
			zap.Int("score", ev.BehaviorScore),
		)
	})

	// ── Optional threat analyzer ──────────────────────────────────────────────
	var analyzer threatadapter.Analyzer
	if viper.GetBool("threat_analysis_enabled") {
		analyzer = threatadapter.NewRuleBasedAnalyzer()
	}

	// ── Reporter back to the station ──────────────────────────────────────────
	reporter := gatewayreporter.New(stationURL, apiKey)

	pipeline := gatewaypipeline.New(gatewayID, verifier, registry, tracker, analyzer, reporter, logger)
	h := gwhandler.New(gatewayID, pipeline, registry, tracker, logger)

	// ── HTTP router ───────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmiddleware.CORS(viper.GetStringSlice("cors_origins")))
	router.Use(gatewaymetrics.Middleware())
	if rps := viper.GetInt("rate_limit_rps"); rps > 0 {
		router.Use(httpmiddleware.RateLimiter(rps, rps*2))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gatewaymetrics.Handler())

	root := router.Group("")
	h.Register(root)

	port := viper.GetInt("port")
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	go keySource.Run(bgCtx)
	go tracker.Run(bgCtx, time.Duration(viper.GetInt("behavior_sweep_seconds"))*time.Second)

	go func() {
		logger.Info("gateway HTTP listening", zap.Int("port", port), zap.String("gatewayId", gatewayID))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP listen error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down gateway...")
	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("gateway stopped")
	return nil
}
