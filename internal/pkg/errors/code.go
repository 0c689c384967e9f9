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

package errors

type ErrorCode int

const (
	ErrOK            ErrorCode = 0
	ErrInvalidParam  ErrorCode = 1000
	ErrMissingParam  ErrorCode = 1001
	ErrValidation    ErrorCode = 1002
	ErrUnsupported   ErrorCode = 1003
	ErrNotFound      ErrorCode = 3000
	ErrModelNotFound ErrorCode = 3001
	ErrConflict      ErrorCode = 4000
	ErrAlreadyExists ErrorCode = 4001
	ErrModelNotReady ErrorCode = 4002
	ErrInternal      ErrorCode = 5000
	ErrCodec         ErrorCode = 5006
)

var codeNames = map[ErrorCode]string{
	ErrOK:            "OK",
	ErrInvalidParam:  "INVALID_PARAM",
	ErrMissingParam:  "MISSING_PARAM",
	ErrValidation:    "VALIDATION_FAILED",
	ErrUnsupported:   "UNSUPPORTED",
	ErrNotFound:      "NOT_FOUND",
	ErrModelNotFound: "MODEL_NOT_FOUND",
	ErrConflict:      "CONFLICT",
	ErrAlreadyExists: "ALREADY_EXISTS",
	ErrModelNotReady: "MODEL_NOT_READY",
	ErrInternal:      "INTERNAL",
	ErrCodec:         "CODEC_ERROR",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == ErrOK:
		return 200
	case c >= 1000 && c < 2000:
		return 400
	case c >= 3000 && c < 4000:
		return 404
	case c >= 4000 && c < 5000:
		return 409
	default:
		return 500
	}
}
