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

func InvalidParam(paramName string) *Error {
	return Newf(ErrInvalidParam, "invalid parameter: %s", paramName)
}

func MissingParam(paramName string) *Error {
	return Newf(ErrMissingParam, "required parameter missing: %s", paramName)
}

func Unsupported(format string, args ...interface{}) *Error {
	return Newf(ErrUnsupported, format, args...)
}

func ModelNotFound(modelID string) *Error {
	return Newf(ErrModelNotFound, "model not found: %s", modelID)
}

func ModelNotReady(modelID, state string) *Error {
	return Newf(ErrModelNotReady, "model %s is not ready, state: %s", modelID, state)
}

func AlreadyExists(resource string) *Error {
	return Newf(ErrAlreadyExists, "%s already exists", resource)
}

func Internal(message string) *Error {
	return New(ErrInternal, message)
}

func CodecError(operation string, cause error) *Error {
	return Wrapf(ErrCodec, cause, "codec error in %s", operation)
}
