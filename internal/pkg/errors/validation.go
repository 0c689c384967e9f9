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
	"strconv"
	"strings"
)

// ValidationError carries every message produced while checking a
// configuration. Fatal is set when resolution stopped at the first problem
// instead of running to completion.
type ValidationError struct {
	Messages []string
	Fatal    bool
}

func NewValidationError(msgs ...string) *ValidationError {
	ve := &ValidationError{}
	ve.Append(msgs...)
	return ve
}

// Append adds messages, skipping blanks and duplicates.
func (ve *ValidationError) Append(msgs ...string) {
	for _, m := range msgs {
		if m == "" || ve.Contains(m) {
			continue
		}
		ve.Messages = append(ve.Messages, m)
	}
}

func (ve *ValidationError) Contains(msg string) bool {
	if ve == nil {
		return false
	}
	for _, m := range ve.Messages {
		if m == msg {
			return true
		}
	}
	return false
}

// ErrorOrNil returns ve when it holds at least one message.
func (ve *ValidationError) ErrorOrNil() error {
	if ve == nil || len(ve.Messages) == 0 {
		return nil
	}
	return ve
}

func (ve *ValidationError) Error() string {
	if ve == nil || len(ve.Messages) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Validation Failed: ")
	for i, m := range ve.Messages {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(": ")
		sb.WriteString(m)
		sb.WriteString(";")
	}
	return sb.String()
}

func (ve *ValidationError) HTTPStatus() int {
	return ErrValidation.HTTPStatus()
}

func AsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
