// Command server exposes the payment orchestrator over HTTP.
package main

import (
	"context"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/yourorg/payment-gateway/internal/correlation"
	"github.com/yourorg/payment-gateway/internal/orchestrator"
)

type redisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type serverConfig struct {
	Addr     string              `mapstructure:"addr"`
	Redis    redisConfig         `mapstructure:"redis"`
	Gateways orchestrator.Config `mapstructure:"gateways"`
}

func loadConfig() (serverConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/payment-gateway")
	v.AddConfigPath(".")
	v.SetEnvPrefix("PAYGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("addr", ":8080")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return serverConfig{}, err
		}
	}

	var cfg serverConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return serverConfig{}, err
	}
	return cfg, nil
}

func initTracing() (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp, nil
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	tp, err := initTracing()
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer tp.Shutdown(context.Background())

	registry := prometheus.NewRegistry()
	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(orchestrator.NewMetrics(registry)),
	}
	if cfg.Redis.Addr != "" {
		store := correlation.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer store.Close()
		opts = append(opts, orchestrator.WithCorrelationStore(store))
	}

	orch, err := orchestrator.New(cfg.Gateways, opts...)
	if err != nil {
		logger.Fatal("failed to initialize orchestrator", zap.Error(err))
	}

	srv := newServer(orch, logger)
	engine := srv.setupRouter(registry)

	logger.Info("starting server", zap.String("addr", cfg.Addr))
	if err := engine.Run(cfg.Addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
