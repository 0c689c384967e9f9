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

	"github.com/gin-gonic/gin"
	"github.com/jmazanec15/k-NN-1/internal/mapping"
	"github.com/jmazanec15/k-NN-1/internal/pkg/errors"
	"github.com/jmazanec15/k-NN-1/internal/pkg/log"
	"github.com/jmazanec15/k-NN-1/internal/pkg/vjson"
)

// ErrorResponse represents the standard error response format for REST API.
type ErrorResponse struct {
	Code    int                    `json:"code"`
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func newErrorResponse(err error) ErrorResponse {
	code := errors.GetCode(err)
	resp := ErrorResponse{
		Code:    code.HTTPStatus(),
		Error:   code.String(),
		Message: err.Error(),
	}

	var fe *mapping.FieldError
	if errors.As(err, &fe) {
		resp.detail("field", fe.Field)
	}
	if ve := errors.AsValidationError(err); ve != nil {
		resp.detail("messages", ve.Messages)
		resp.detail("fatal", ve.Fatal)
	} else if e := errors.AsError(err); e != nil {
		resp.Message = e.Message
		if e.Cause != nil {
			resp.detail("cause", e.Cause.Error())
		}
		for k, v := range e.Details {
			resp.detail(k, v)
		}
	}
	return resp
}

func (r *ErrorResponse) detail(key string, value interface{}) {
	if r.Details == nil {
		r.Details = make(map[string]interface{})
	}
	r.Details[key] = value
}

// HandleError writes err as an ErrorResponse with the status of its code.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	resp := newErrorResponse(err)
	if resp.Code >= http.StatusInternalServerError {
		log.Errorf("request [%s] %s failed: %v", requestID(c), c.Request.URL.Path, err)
	} else {
		log.Debugf("request [%s] %s rejected [%s]: %s", requestID(c), c.Request.URL.Path, resp.Error, resp.Message)
	}
	c.AbortWithStatusJSON(resp.Code, resp)
}

// HandleSuccess returns a successful response with data.
func HandleSuccess(c *gin.Context, data interface{}) {
	writeJSON(c, http.StatusOK, data)
}

func writeJSON(c *gin.Context, status int, data interface{}) {
	if data == nil {
		data = gin.H{"code": status, "message": "success"}
	}
	b, err := vjson.Marshal(data)
	if err != nil {
		HandleError(c, errors.CodecError("marshal response", err))
		return
	}
	c.Data(status, "application/json; charset=utf-8", b)
}
