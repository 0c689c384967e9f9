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

package model

import (
	"bytes"
	"sync"

	"github.com/jmazanec15/k-NN-1/internal/pkg/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack"
)

const (
	rawSnapshot  byte = 0
	zstdSnapshot byte = 1
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// EncodeSnapshot serializes m with msgpack. The first byte flags whether
// the body is zstd compressed.
func EncodeSnapshot(m *Metadata, compress bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).UseCompactEncoding(true).UseJSONTag(true).Encode(m); err != nil {
		return nil, errors.CodecError("encode model snapshot", err)
	}
	if !compress {
		return append([]byte{rawSnapshot}, buf.Bytes()...), nil
	}
	enc, err := getZstdEncoder()
	if err != nil {
		return nil, errors.CodecError("zstd writer", err)
	}
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(buf.Bytes(), []byte{zstdSnapshot}), nil
}

// DecodeSnapshot reverses EncodeSnapshot. The returned metadata has no
// Config; the caller re-resolves it.
func DecodeSnapshot(data []byte) (*Metadata, error) {
	if len(data) == 0 {
		return nil, errors.CodecError("decode model snapshot", errors.Internal("empty snapshot"))
	}
	body := data[1:]
	switch data[0] {
	case rawSnapshot:
	case zstdSnapshot:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, errors.CodecError("zstd reader", err)
		}
		defer zstdDecoderPool.Put(dec)
		if body, err = dec.DecodeAll(body, nil); err != nil {
			return nil, errors.CodecError("decompress model snapshot", err)
		}
	default:
		return nil, errors.CodecError("decode model snapshot", errors.Newf(errors.ErrCodec, "unknown snapshot format %d", data[0]))
	}
	m := &Metadata{}
	if err := msgpack.NewDecoder(bytes.NewBuffer(body)).UseJSONTag(true).Decode(m); err != nil {
		return nil, errors.CodecError("decode model snapshot", err)
	}
	return m, nil
}
