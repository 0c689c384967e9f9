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
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmazanec15/k-NN-1/internal/config"
	"github.com/jmazanec15/k-NN-1/internal/mapping"
	"github.com/jmazanec15/k-NN-1/internal/model"
	"github.com/jmazanec15/k-NN-1/internal/pkg/errors"
	"github.com/jmazanec15/k-NN-1/internal/pkg/vjson"
	"github.com/jmazanec15/k-NN-1/internal/query"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	URLParamIndex   = "index"
	URLParamField   = "field"
	URLParamModelID = "model_id"

	// trainFieldName names the field a training request is parsed as.
	trainFieldName = "model"
)

func (s *Server) exportHandlers() {
	s.engine.GET("/", s.handleClusterInfo)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.POST("/_resolve", s.handleResolve)

	s.engine.GET("/indices", s.handleListIndices)
	s.engine.PUT("/indices/:"+URLParamIndex+"/_mapping", s.handlePutMapping)
	s.engine.GET("/indices/:"+URLParamIndex+"/_mapping", s.handleGetMapping)
	s.engine.DELETE("/indices/:"+URLParamIndex, s.handleDeleteIndex)
	s.engine.POST("/indices/:"+URLParamIndex+"/_knn/:"+URLParamField, s.handleKnnQuery)

	s.engine.POST("/_models", s.handleTrainModel)
	s.engine.POST("/_models/_restore", s.handleRestoreModel)
	s.engine.GET("/_models/_stats", s.handleModelStats)
	s.engine.GET("/_models/:"+URLParamModelID, s.handleGetModel)
	s.engine.DELETE("/_models/:"+URLParamModelID, s.handleDeleteModel)
	s.engine.GET("/_models/:"+URLParamModelID+"/_snapshot", s.handleSnapshotModel)
}

func (s *Server) handleClusterInfo(c *gin.Context) {
	HandleSuccess(c, gin.H{
		"name": s.cfg.Global.Name,
		"version": gin.H{
			"build_version": config.GetBuildVersion(),
			"build_time":    config.GetBuildTime(),
			"commit_id":     config.GetCommitID(),
		},
	})
}

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidParam, "read request body", err)
	}
	if len(body) == 0 {
		return nil, errors.MissingParam("body")
	}
	return body, nil
}

// handleResolve resolves a mapping without storing it.
func (s *Server) handleResolve(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		s.fail(c, "resolve", err)
		return
	}
	mp, err := s.mapper.ResolveMapping(c.Request.Context(), body)
	if err != nil {
		s.fail(c, "resolve", err)
		return
	}
	HandleSuccess(c, mp)
}

func (s *Server) handleListIndices(c *gin.Context) {
	HandleSuccess(c, gin.H{"indices": s.catalog.Indices()})
}

func (s *Server) handlePutMapping(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		s.fail(c, "put_mapping", err)
		return
	}
	mp, err := s.mapper.ResolveMapping(c.Request.Context(), body)
	if err != nil {
		s.fail(c, "put_mapping", err)
		return
	}
	s.catalog.Put(c.Param(URLParamIndex), mp)
	HandleSuccess(c, mp)
}

func (s *Server) handleGetMapping(c *gin.Context) {
	mp, err := s.catalog.Get(c.Param(URLParamIndex))
	if err != nil {
		s.fail(c, "get_mapping", err)
		return
	}
	HandleSuccess(c, mp)
}

func (s *Server) handleDeleteIndex(c *gin.Context) {
	if err := s.catalog.Delete(c.Param(URLParamIndex)); err != nil {
		s.fail(c, "delete_index", err)
		return
	}
	HandleSuccess(c, nil)
}

// handleKnnQuery checks a knn query against the stored config of a field
// and returns it in the form the engine would execute.
func (s *Server) handleKnnQuery(c *gin.Context) {
	field := c.Param(URLParamField)
	cfg, err := s.catalog.Field(c.Param(URLParamIndex), field)
	if err != nil {
		s.fail(c, "knn_query", err)
		return
	}
	body, err := readBody(c)
	if err != nil {
		s.fail(c, "knn_query", err)
		return
	}
	q, err := query.Parse(body, field)
	if err != nil {
		s.fail(c, "knn_query", err)
		return
	}
	resolved, err := query.Resolve(cfg, q)
	if err != nil {
		s.fail(c, "knn_query", err)
		return
	}
	HandleSuccess(c, resolved)
}

// handleTrainModel takes a knn_vector field definition plus model_id,
// description and optional index settings.
func (s *Server) handleTrainModel(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		s.fail(c, "train_model", err)
		return
	}
	req, err := parseTrainingRequest(body)
	if err != nil {
		s.fail(c, "train_model", err)
		return
	}
	m, err := s.models.Train(*req)
	if err != nil {
		s.fail(c, "train_model", err)
		return
	}
	s.metrics.UpdateModelCount(s.models.Stats().Models)
	writeJSON(c, http.StatusCreated, m)
}

func parseTrainingRequest(body []byte) (*model.TrainingRequest, error) {
	raw, err := vjson.ByteToJsonMap(body)
	if err != nil {
		return nil, errors.CodecError("parse training request", err)
	}
	req := &model.TrainingRequest{
		ModelID:     raw.GetString("model_id"),
		Description: raw.GetString("description"),
	}
	if raw.Has("settings") {
		settings, err := mapping.ParseSettings(raw.GetJsonMap("settings"))
		if err != nil {
			return nil, err
		}
		req.Legacy = settings.Legacy
	}

	def := vjson.JsonMap{"type": mapping.TypeKnnVector}
	for k, v := range raw {
		switch k {
		case "model_id", "description", "settings":
		default:
			def[k] = v
		}
	}
	if req.Field, err = mapping.ParseField(trainFieldName, def); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Server) handleGetModel(c *gin.Context) {
	m, err := s.models.Get(c.Param(URLParamModelID))
	if err != nil {
		s.fail(c, "get_model", err)
		return
	}
	HandleSuccess(c, m)
}

func (s *Server) handleDeleteModel(c *gin.Context) {
	if err := s.models.Delete(c.Param(URLParamModelID)); err != nil {
		s.fail(c, "delete_model", err)
		return
	}
	s.metrics.UpdateModelCount(s.models.Stats().Models)
	HandleSuccess(c, nil)
}

func (s *Server) handleSnapshotModel(c *gin.Context) {
	data, err := s.models.Snapshot(c.Param(URLParamModelID))
	if err != nil {
		s.fail(c, "snapshot_model", err)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (s *Server) handleRestoreModel(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		s.fail(c, "restore_model", err)
		return
	}
	m, err := s.models.Restore(body)
	if err != nil {
		s.fail(c, "restore_model", err)
		return
	}
	s.metrics.UpdateModelCount(s.models.Stats().Models)
	HandleSuccess(c, m)
}

func (s *Server) handleModelStats(c *gin.Context) {
	HandleSuccess(c, s.models.Stats())
}

func (s *Server) fail(c *gin.Context, operation string, err error) {
	s.metrics.RecordError(errors.GetCode(err).String(), operation)
	HandleError(c, err)
}
