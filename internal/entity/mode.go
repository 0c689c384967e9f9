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

package entity

import (
	"fmt"
	"strings"
)

// WorkloadMode hints whether the index should favour memory or disk.
type WorkloadMode string

const (
	ModeDefault  WorkloadMode = "default"
	ModeInMemory WorkloadMode = "in_memory"
	ModeOnDisk   WorkloadMode = "on_disk"
)

// ParseWorkloadMode treats an unset mode and "default" the same way.
func ParseWorkloadMode(s string) (WorkloadMode, error) {
	switch strings.ToLower(s) {
	case "", string(ModeDefault):
		return ModeDefault, nil
	case string(ModeInMemory):
		return ModeInMemory, nil
	case string(ModeOnDisk):
		return ModeOnDisk, nil
	}
	return "", fmt.Errorf("Invalid value provided for [mode] field: %s. Supported values are [in_memory,on_disk]", s)
}

func (m WorkloadMode) IsDefault() bool {
	return m == ModeDefault || m == ""
}

// CompressionLevel is the target ratio between full precision and stored vectors.
type CompressionLevel string

const (
	CompressionDefault CompressionLevel = "default"
	Compression1x      CompressionLevel = "1x"
	Compression2x      CompressionLevel = "2x"
	Compression4x      CompressionLevel = "4x"
	Compression8x      CompressionLevel = "8x"
	Compression16x     CompressionLevel = "16x"
	Compression32x     CompressionLevel = "32x"
)

var compressionLevels = []CompressionLevel{Compression1x, Compression2x, Compression4x, Compression8x, Compression16x, Compression32x}

func ParseCompressionLevel(s string) (CompressionLevel, error) {
	l := strings.ToLower(s)
	if l == "" || l == string(CompressionDefault) {
		return CompressionDefault, nil
	}
	for _, c := range compressionLevels {
		if string(c) == l {
			return c, nil
		}
	}
	return "", fmt.Errorf("Invalid value provided for [compression_level] field: %s. Supported values are [1x,2x,4x,8x,16x,32x]", s)
}

func (c CompressionLevel) IsDefault() bool {
	return c == CompressionDefault || c == ""
}

// BitCount is the per-dimension bit width implied by c for binary
// quantization, or 0 when c does not imply one.
func (c CompressionLevel) BitCount() int {
	switch c {
	case Compression32x:
		return 1
	case Compression16x:
		return 2
	case Compression8x:
		return 4
	}
	return 0
}

// QuantizationType is the scalar quantization applied before vectors reach
// the library.
type QuantizationType string

const (
	QuantizationNone    QuantizationType = "none"
	QuantizationOneBit  QuantizationType = "one_bit"
	QuantizationTwoBit  QuantizationType = "two_bit"
	QuantizationFourBit QuantizationType = "four_bit"
)

func QuantizationForBits(bits int) (QuantizationType, error) {
	switch bits {
	case 1:
		return QuantizationOneBit, nil
	case 2:
		return QuantizationTwoBit, nil
	case 4:
		return QuantizationFourBit, nil
	}
	return "", fmt.Errorf("Invalid bit count: %d", bits)
}
