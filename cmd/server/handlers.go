package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/yourorg/payment-gateway/internal/domain"
	"github.com/yourorg/payment-gateway/internal/orchestrator"
)

type server struct {
	orch *orchestrator.Orchestrator
	log  *zap.Logger
}

func newServer(orch *orchestrator.Orchestrator, log *zap.Logger) *server {
	return &server{orch: orch, log: log}
}

func (s *server) setupRouter(registry *prometheus.Registry) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware("payment-gateway"))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	v1 := engine.Group("/v1")
	v1.POST("/payments", s.processPayment)
	v1.GET("/payments/:id", s.getPaymentStatus)
	v1.POST("/refunds", s.processRefund)
	v1.GET("/refunds/:id", s.getRefundStatus)
	v1.GET("/gateways", s.listGateways)
	v1.GET("/gateways/:name", s.gatewayInfo)
	v1.PUT("/gateways/default", s.setDefaultGateway)
	return engine
}

func (s *server) processPayment(c *gin.Context) {
	var req domain.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	resp, err := s.orch.ProcessPayment(c.Request.Context(), &req, c.Query("gateway"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) getPaymentStatus(c *gin.Context) {
	resp, err := s.orch.GetPaymentStatus(c.Request.Context(), c.Param("id"), c.Query("gateway"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) processRefund(c *gin.Context) {
	var req domain.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	resp, err := s.orch.ProcessRefund(c.Request.Context(), &req, c.Query("gateway"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) getRefundStatus(c *gin.Context) {
	resp, err := s.orch.GetRefundStatus(c.Request.Context(), c.Param("id"), c.Query("gateway"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) listGateways(c *gin.Context) {
	names := s.orch.AvailableGateways()
	infos := make([]orchestrator.GatewayInfo, 0, len(names))
	for _, name := range names {
		if info, err := s.orch.GatewayInfo(name); err == nil {
			infos = append(infos, info)
		}
	}
	c.JSON(http.StatusOK, gin.H{"gateways": infos, "default": s.orch.DefaultGateway()})
}

func (s *server) gatewayInfo(c *gin.Context) {
	info, err := s.orch.GatewayInfo(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *server) setDefaultGateway(c *gin.Context) {
	var body struct {
		Gateway string `json:"gateway"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := s.orch.SetDefaultGateway(body.Gateway); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"default": body.Gateway})
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func (s *server) writeError(c *gin.Context, err error) {
	var (
		validationErr *domain.ValidationError
		configErr     *domain.ConfigurationError
		authErr       *domain.AuthenticationError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message, "code": validationErr.Code})
	case errors.As(err, &configErr):
		c.JSON(http.StatusConflict, gin.H{"error": configErr.Message, "code": configErr.Code})
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Message, "code": authErr.Code})
	default:
		s.log.Error("gateway call failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
