// Copyright 2019 The Vearch Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmazanec15/k-NN-1/internal/config"
	"github.com/jmazanec15/k-NN-1/internal/mapping"
	"github.com/jmazanec15/k-NN-1/internal/model"
	"github.com/jmazanec15/k-NN-1/internal/pkg/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
)

// Server exposes mapping, model and query resolution over HTTP.
type Server struct {
	cfg     *config.Config
	mapper  *mapping.Mapper
	models  *model.Registry
	catalog *mapping.Catalog
	metrics *MetricsRecorder
	timeout time.Duration

	engine        *gin.Engine
	httpServer    *http.Server
	monitorServer *http.Server
}

func NewServer(cfg *config.Config, mapper *mapping.Mapper, models *model.Registry, catalog *mapping.Catalog) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:     cfg,
		mapper:  mapper,
		models:  models,
		catalog: catalog,
		metrics: NewMetricsRecorder(),
		timeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		engine:  gin.New(),
	}

	s.engine.Use(requestIDHandler, panicHandler, s.metrics.Middleware())
	if h := corsHandler(cfg.Server.Cors); h != nil {
		s.engine.Use(h)
	}
	s.engine.Use(s.timeoutHandler)
	s.engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{
			Code:    http.StatusNotFound,
			Error:   "NOT_FOUND",
			Message: fmt.Sprintf("no handler found for uri [%s] and method [%s]", c.Request.URL.Path, c.Request.Method),
		})
	})
	s.exportHandlers()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	if port := cfg.Server.MonitorPort; port > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		s.monitorServer = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	}
	return s
}

func corsHandler(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return nil
	}
	c := cors.DefaultConfig()
	if slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AddAllowHeaders(headerRequestID)
	c.AddExposeHeaders(headerRequestID)
	return cors.New(c)
}

// Handler is the routed gin engine, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until ctx is done or a listener fails.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	servers := []*http.Server{s.httpServer}
	if s.monitorServer != nil {
		servers = append(servers, s.monitorServer)
	}
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			log.Infof("%s listening on %s", s.cfg.Global.Name, srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("fail to start http server %s, %v", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		s.Shutdown()
		return nil
	})
	err := g.Wait()
	log.Info("router exited!")
	return err
}

func (s *Server) Shutdown() {
	log.Info("router shutdown... start")
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	for _, srv := range []*http.Server{s.httpServer, s.monitorServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("shutdown %s err: %v", srv.Addr, err)
		}
	}
	log.Info("router shutdown... end")
}
