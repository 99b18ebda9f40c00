package report

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zeu5/pricing-rl/types"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// ValueSource answers value queries for the /values endpoint
type ValueSource interface {
	Values(types.State) []float64
	StateSize() int
}

type valuesRequest struct {
	State []float64 `json:"state" binding:"required"`
}

// Server exposes the recorded episodes and the learnt values over http
type Server struct {
	Addr   string
	ctx    context.Context
	server *http.Server
	router *gin.Engine
	logger *zap.Logger

	store  *Store
	pricer types.ActionPricer

	lock   *sync.RWMutex
	values ValueSource
}

// NewServer sets up the routes. /values answers 503 while values is nil.
func NewServer(ctx context.Context, addr string, store *Store, values ValueSource, pricer types.ActionPricer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		Addr:   addr,
		ctx:    ctx,
		logger: logger,
		store:  store,
		pricer: pricer,
		lock:   new(sync.RWMutex),
		values: values,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", s.handleHealth)
	r.GET("/episodes", s.handleEpisodes)
	r.GET("/episodes/:id", s.handleEpisode)
	r.POST("/values", s.handleValues)
	s.router = r
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// SetValues swaps the source answering /values
func (s *Server) SetValues(values ValueSource) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values = values
}

// Handler is the underlying router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens in the background until the context is cancelled
func (s *Server) Start() {
	go func() {
		s.logger.Info("serving", zap.String("addr", s.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", zap.Error(err))
		}
	}()

	go func() {
		<-s.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shut down server", zap.Error(err))
			return
		}
		s.logger.Info("server shut down", zap.String("addr", s.Addr))
	}()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok", "episodes": s.store.Len()})
}

func (s *Server) handleEpisodes(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Episodes())
}

func (s *Server) handleEpisode(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid episode id"})
		return
	}
	record, ok := s.store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such episode"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleValues(c *gin.Context) {
	s.lock.RLock()
	source := s.values
	s.lock.RUnlock()
	if source == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no trained policy"})
		return
	}
	req := valuesRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	if len(req.State) != source.StateSize() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "state must have " + strconv.Itoa(source.StateSize()) + " entries",
		})
		return
	}
	values := source.Values(types.State(req.State))
	best := floats.MaxIdx(values)
	out := gin.H{
		"values":      values,
		"best_action": best,
	}
	if s.pricer != nil {
		out["best_price"] = s.pricer.Price(best)
	}
	s.logger.Debug("values query", zap.Int("best_action", best))
	c.JSON(http.StatusOK, out)
}
