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
	"fmt"
	"io"
	golog "log"
	"os"
	"strings"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR

	debug = "[DEBUG] "
	info  = "[INFO] "
	warn  = "[WARN] "
	err   = "[ERROR] "
)

var std Log = &GoLog{Logger: golog.New(os.Stderr, "", golog.Lshortfile|golog.LstdFlags), L: INFO}

// ParseLevel maps a config level name to a Level; unknown names mean INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

type GoLog struct {
	*golog.Logger
	L Level
}

func NewGoLog(w io.Writer, l Level) *GoLog {
	return &GoLog{Logger: golog.New(w, "", golog.Lshortfile|golog.LstdFlags), L: l}
}

func (this *GoLog) Flush() {
}

func (this *GoLog) IsDebugEnabled() bool {
	return this.L <= DEBUG
}

func (this *GoLog) IsInfoEnabled() bool {
	return this.L <= INFO
}

func (this *GoLog) IsWarnEnabled() bool {
	return this.L <= WARN
}

func (this *GoLog) Debugf(format string, args ...any) {
	if this.IsDebugEnabled() {
		this.write(debug, format, args...)
	}
}

func (this *GoLog) Infof(format string, args ...any) {
	if this.IsInfoEnabled() {
		this.write(info, format, args...)
	}
}

func (this *GoLog) Warnf(format string, args ...any) {
	if this.IsWarnEnabled() {
		this.write(warn, format, args...)
	}
}

func (this *GoLog) Errorf(format string, args ...any) {
	this.write(err, format, args...)
}

func (this *GoLog) Debug(args ...any) {
	if this.IsDebugEnabled() {
		this.write(debug, fmt.Sprint(args...))
	}
}

func (this *GoLog) Info(args ...any) {
	if this.IsInfoEnabled() {
		this.write(info, fmt.Sprint(args...))
	}
}

func (this *GoLog) Warn(args ...any) {
	if this.IsWarnEnabled() {
		this.write(warn, fmt.Sprint(args...))
	}
}

func (this *GoLog) Error(args ...any) {
	this.write(err, fmt.Sprint(args...))
}

func (this *GoLog) write(levelCode, format string, args ...any) {
	if len(args) == 0 {
		_ = this.Output(4, levelCode+format)
	} else {
		_ = this.Output(4, fmt.Sprintf(levelCode+format, args...))
	}
}
