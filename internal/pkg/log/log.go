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

package log

import (
	"sync"
)

type Log interface {
	IsDebugEnabled() bool
	IsInfoEnabled() bool
	IsWarnEnabled() bool
	Debug(v ...any)
	Debugf(format string, v ...any)
	Info(v ...any)
	Infof(format string, v ...any)
	Warn(v ...any)
	Warnf(format string, v ...any)
	Error(v ...any)
	Errorf(format string, v ...any)
	//when process exit you should use it
	Flush()
}

var (
	mu      sync.RWMutex
	current Log
)

// Get returns the registered logger, or the stderr logger when none is set.
func Get() Log {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return std
	}
	return current
}

// Regist replaces the process logger. A nil log restores the default.
func Regist(l Log) {
	mu.Lock()
	current = l
	mu.Unlock()
}

func IsDebugEnabled() bool {
	return Get().IsDebugEnabled()
}

func IsInfoEnabled() bool {
	return Get().IsInfoEnabled()
}

func IsWarnEnabled() bool {
	return Get().IsWarnEnabled()
}

func Errorf(format string, args ...any) {
	Get().Errorf(format, args...)
}

func Infof(format string, args ...any) {
	Get().Infof(format, args...)
}

func Debugf(format string, args ...any) {
	Get().Debugf(format, args...)
}

func Warnf(format string, args ...any) {
	Get().Warnf(format, args...)
}

func Error(args ...any) {
	Get().Error(args...)
}

func Warn(args ...any) {
	Get().Warn(args...)
}

func Info(args ...any) {
	Get().Info(args...)
}

func Debug(args ...any) {
	Get().Debug(args...)
}

func Flush() {
	Get().Flush()
}
