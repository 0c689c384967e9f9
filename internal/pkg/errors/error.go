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

import (
	"errors"
	"fmt"
)

// Error is the coded error returned across package boundaries.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Details map[string]interface{}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *Error) GetCode() ErrorCode {
	return e.Code
}

func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Wrapf(code ErrorCode, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// AsError unwraps err to a coded *Error, or nil.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// GetCode reports the code carried by err. Validation failures map to
// ErrValidation, anything uncoded to ErrInternal.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ErrOK
	}
	if e := AsError(err); e != nil {
		return e.Code
	}
	if AsValidationError(err) != nil {
		return ErrValidation
	}
	return ErrInternal
}

func HTTPStatus(err error) int {
	return GetCode(err).HTTPStatus()
}

// As is errors.As, re-exported so callers need one errors import.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
