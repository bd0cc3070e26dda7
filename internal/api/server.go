package api

import (
	"context"
	"net/http"
	"time"

	"github.com/betbot/polytrade/clob/types"
	"github.com/betbot/polytrade/internal/trading"
	"github.com/betbot/polytrade/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Trader 交易适配器暴露给 HTTP 层的能力
type Trader interface {
	Balance(ctx context.Context, settings *config.Settings) (trading.BalanceResult, error)
	PlaceOrder(ctx context.Context, settings *config.Settings, req trading.OrderRequest) (*types.OrderResponse, error)
}

// Server HTTP 接口：余额查询和下单
type Server struct {
	trader   Trader
	settings *config.Settings
	log      logrus.FieldLogger
}

func New(trader Trader, settings *config.Settings, log logrus.FieldLogger) *Server {
	return &Server{trader: trader, settings: settings, log: log}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.GET("/balance", s.handleBalance)
	api.POST("/orders", s.handlePlaceOrder)

	return r
}

// Run 监听 addr 直到 ctx 结束；监听失败时立即返回错误
func (s *Server) Run(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("polytrade server listening on %s", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http shutdown")
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleBalance(c *gin.Context) {
	res, err := s.trader.Balance(c.Request.Context(), s.settings)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handlePlaceOrder(c *gin.Context) {
	var req trading.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid json: " + err.Error()})
		return
	}

	resp, err := s.trader.PlaceOrder(c.Request.Context(), s.settings, req)
	if err != nil {
		s.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// writeErr 调用方错误返回 400，交易所侧失败返回 502
func (s *Server) writeErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, trading.ErrConfig), errors.Is(err, trading.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, trading.ErrBalance), errors.Is(err, trading.ErrOrderFailed):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Warnf("%s %s 失败", c.Request.Method, c.FullPath())
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}
