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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmazanec15/k-NN-1/internal/config"
	"github.com/jmazanec15/k-NN-1/internal/mapping"
	"github.com/jmazanec15/k-NN-1/internal/model"
	"github.com/jmazanec15/k-NN-1/internal/pkg/vjson"
	"github.com/jmazanec15/k-NN-1/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	r := resolver.New(cfg.Engine.ResolverOptions()...)
	models := model.NewRegistry(r, 0, false)
	return NewServer(cfg, mapping.NewMapper(r, models), models, mapping.NewCatalog())
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, vjson.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestClusterInfo(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
	assert.Equal(t, "knn", decode(t, w)["name"])

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerRequestID, "abc")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(headerRequestID))
}

func TestResolveMapping(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/_resolve", `{"mappings": {"properties": {
		"quantized": {"type": "knn_vector", "dimension": 8, "compression_level": "32x"}
	}}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Equal(t, "BHNSW16,Flat", fields["quantized"].(map[string]interface{})["index_description"])

	w = do(t, s, http.MethodPost, "/_resolve", `{"properties": {
		"bad": {"type": "knn_vector", "dimension": 4, "space_type": "l1", "method": {"name": "hnsw", "engine": "lucene"}}
	}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "VALIDATION_FAILED", resp["error"])
	details := resp["details"].(map[string]interface{})
	assert.Equal(t, "bad", details["field"])
	assert.NotEmpty(t, details["messages"])

	w = do(t, s, http.MethodPost, "/_resolve", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_PARAM", decode(t, w)["error"])
}

func TestIndexMappingAndKnnQuery(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPut, "/indices/products/_mapping", `{"properties": {"v": {"type": "knn_vector", "dimension": 3}}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, http.MethodGet, "/indices/products/_mapping", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"v"}, decode(t, w)["names"])

	w = do(t, s, http.MethodGet, "/indices", "")
	assert.Equal(t, []interface{}{"products"}, decode(t, w)["indices"])

	w = do(t, s, http.MethodPost, "/indices/products/_knn/v", `{"query": {"knn": {"v": {"vector": [1, 2, 3], "k": 5}}}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, "v", resp["field"])
	assert.EqualValues(t, 5, resp["k"])
	assert.Equal(t, []interface{}{float64(1), float64(2), float64(3)}, resp["float_vector"])

	w = do(t, s, http.MethodPost, "/indices/products/_knn/v", `{"vector": [1, 2, 3], "k": 10001}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, s, http.MethodPost, "/indices/products/_knn/missing", `{"vector": [1], "k": 1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/indices/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, s, http.MethodGet, "/indices/products/_mapping", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w)["error"])
}

func TestModels(t *testing.T) {
	s := newTestServer(t)
	train := `{"model_id": "m1", "description": "ivf", "dimension": 16, "method": {"name": "ivf", "engine": "faiss"}}`
	w := do(t, s, http.MethodPost, "/_models", train)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, "m1", resp["model_id"])
	assert.Equal(t, "created", resp["state"])

	w = do(t, s, http.MethodPost, "/_models", train)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_EXISTS", decode(t, w)["error"])

	w = do(t, s, http.MethodPost, "/_models", `{"description": "no dimension", "method": {"name": "ivf", "engine": "faiss"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPut, "/indices/trained/_mapping", `{"properties": {"v": {"type": "knn_vector", "model_id": "m1"}}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.EqualValues(t, 16, fields["v"].(map[string]interface{})["dimension"])
	assert.Equal(t, "v", fields["v"].(map[string]interface{})["name"])

	w = do(t, s, http.MethodGet, "/_models/_stats", "")
	assert.EqualValues(t, 1, decode(t, w)["models"])

	w = do(t, s, http.MethodGet, "/_models/m1/_snapshot", "")
	require.Equal(t, http.StatusOK, w.Code)
	snapshot := w.Body.String()

	w = do(t, s, http.MethodDelete, "/_models/m1", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, s, http.MethodGet, "/_models/m1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "MODEL_NOT_FOUND", decode(t, w)["error"])

	w = do(t, s, http.MethodPost, "/_models/_restore", snapshot)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, s, http.MethodGet, "/_models/m1", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseTrainingRequest(t *testing.T) {
	req, err := parseTrainingRequest([]byte(`{
		"description": "legacy",
		"dimension": 8,
		"settings": {"index.knn.algo_param.m": 12}
	}`))
	require.NoError(t, err)
	assert.Empty(t, req.ModelID)
	assert.Equal(t, 8, req.Field.Dimension)
	require.NotNil(t, req.Legacy)
	assert.Equal(t, 12, req.Legacy.M)

	_, err = parseTrainingRequest([]byte(`{"dimension": 8, "boost": 2}`))
	assert.Error(t, err)
	_, err = parseTrainingRequest([]byte(`not json`))
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	s := newTestServer(t)
	s.engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	w := do(t, s, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "boom", decode(t, w)["message"])

	w = do(t, s, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/?timeout=soon", "")
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://client.test")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "knn_router_http_requests_total")
}

func TestCorsHandler(t *testing.T) {
	assert.Nil(t, corsHandler(nil))
	assert.NotNil(t, corsHandler([]string{"http://localhost"}))
}
