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
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmazanec15/k-NN-1/internal/pkg/log"
	"github.com/spf13/cast"
)

const (
	headerRequestID = "X-Request-Id"
	keyRequestID    = "__request_id"
	paramTimeout    = "timeout"
)

func requestID(c *gin.Context) string {
	return c.GetString(keyRequestID)
}

// requestIDHandler reuses the caller's request id or makes a short one.
func requestIDHandler(c *gin.Context) {
	id := c.GetHeader(headerRequestID)
	if id == "" {
		if u, err := uuid.NewRandom(); err == nil {
			id = base64.RawURLEncoding.EncodeToString(u[:])[:10]
		}
	}
	c.Set(keyRequestID, id)
	c.Header(headerRequestID, id)
	c.Next()
}

// panicHandler turns a panic in any later handler into a 500.
func panicHandler(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			var msg string
			switch v := r.(type) {
			case error:
				msg = v.Error()
			default:
				if str, err := cast.ToStringE(r); err != nil {
					msg = "Server internal error "
				} else {
					msg = str
				}
			}
			log.Errorf("request [%s] panic: %s", requestID(c), msg)
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Code:    http.StatusInternalServerError,
				Error:   "INTERNAL",
				Message: msg,
			})
		}
	}()
	c.Next()
}

// timeoutHandler bounds the request context by the timeout query
// parameter in seconds, or by the server default when absent.
func (s *Server) timeoutHandler(c *gin.Context) {
	timeout := s.timeout
	if param := c.Query(paramTimeout); param != "" {
		if v, err := cast.ToInt64E(param); err != nil || v <= 0 {
			log.Warnf("parse timeout [%s] err, it must be a positive int value", param)
		} else {
			timeout = time.Duration(v) * time.Second
		}
	}
	if timeout <= 0 {
		c.Next()
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()
	c.Request = c.Request.WithContext(ctx)
	c.Next()
	if ctx.Err() == context.DeadlineExceeded {
		s.metrics.RecordTimeout(c.FullPath())
	}
}
