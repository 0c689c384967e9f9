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

package resolver

import (
	"sync"
	"testing"

	"github.com/jmazanec15/k-NN-1/internal/entity"
	"github.com/jmazanec15/k-NN-1/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encoder(name string, params map[string]interface{}) map[string]interface{} {
	m := map[string]interface{}{"name": name}
	if params != nil {
		m["parameters"] = params
	}
	return m
}

func requireValidation(t *testing.T, err error, fatal bool, msgs ...string) {
	t.Helper()
	require.Error(t, err)
	ve := errors.AsValidationError(err)
	require.NotNil(t, ve, "expected validation error, got %v", err)
	assert.Equal(t, fatal, ve.Fatal)
	for _, m := range msgs {
		assert.Contains(t, ve.Messages, m)
	}
}

func TestResolveDefaults(t *testing.T) {
	cfg, err := Resolve(entity.FieldSpec{Name: "v", Dimension: 128}, false, nil)
	require.NoError(t, err)

	assert.Equal(t, entity.EngineNmslib, cfg.Engine)
	assert.Equal(t, MethodHNSW, cfg.Method)
	assert.Equal(t, entity.SpaceL2, cfg.SpaceType)
	assert.Equal(t, entity.VectorDataTypeFloat, cfg.VectorDataType)
	assert.Equal(t, entity.ModeDefault, cfg.Mode)
	assert.Equal(t, entity.CompressionDefault, cfg.Compression)
	assert.Equal(t, entity.QuantizationNone, cfg.Quantization)
	assert.Empty(t, cfg.Descriptor)
	assert.False(t, cfg.TrainingRequired)
	assert.Equal(t, 0, cfg.EstimatedOverheadKB)
	assert.Equal(t, CurrentVersion, cfg.CreatedVersion)
	assert.Equal(t, map[string]interface{}{
		"name":       "hnsw",
		"space_type": "l2",
		"parameters": map[string]interface{}{"m": 16, "ef_construction": 100},
	}, cfg.Parameters())
	assert.Equal(t, []string{"nmslib_hnsw"}, cfg.SearchPolicies())
	assert.Equal(t, "float", cfg.PerDimensionValidator().Name())
	assert.Equal(t, "noop", cfg.PerDimensionProcessor().Name())
}

func TestResolveCompressionSelectsBinaryEncoder(t *testing.T) {
	cfg, err := Resolve(entity.FieldSpec{Dimension: 128, CompressionLevel: "16x"}, false, nil)
	require.NoError(t, err)

	assert.Equal(t, entity.EngineFaiss, cfg.Engine)
	assert.Equal(t, entity.QuantizationTwoBit, cfg.Quantization)
	assert.Equal(t, entity.VectorDataTypeBinary, cfg.LibraryVectorDataType)
	assert.Equal(t, entity.VectorDataTypeFloat, cfg.VectorDataType)
	assert.Equal(t, "BHNSW16,Flat", cfg.Descriptor)
	assert.Equal(t, map[string]interface{}{
		"name":              "hnsw",
		"space_type":        "l2",
		"data_type":         "binary",
		"index_description": "BHNSW16,Flat",
		"parameters":        map[string]interface{}{"ef_construction": 100, "ef_search": 100},
	}, cfg.Parameters())

	rc := cfg.SearchResolver().ResolveRescoreContext(QueryContext{Type: QueryK}, nil)
	assert.Equal(t, RescoreContext{Enabled: true, OversampleFactor: 3}, rc)
	assert.Equal(t, []string{"faiss_hnsw", "rescore_2bit"}, cfg.SearchPolicies())
}

func TestResolveExplicitBinaryEncoder(t *testing.T) {
	cfg, err := Resolve(entity.FieldSpec{
		Dimension: 128,
		Engine:    "faiss",
		Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{
			"encoder": encoder("binary", map[string]interface{}{"bits": 2}),
		}},
	}, false, nil)
	require.NoError(t, err)

	assert.Equal(t, entity.QuantizationTwoBit, cfg.Quantization)
	assert.Equal(t, entity.VectorDataTypeBinary, cfg.LibraryVectorDataType)
	assert.Equal(t, "BHNSW16,Flat", cfg.Descriptor)
	rc := cfg.SearchResolver().ResolveRescoreContext(QueryContext{Type: QueryK}, nil)
	assert.Equal(t, RescoreContext{Enabled: true, OversampleFactor: 3}, rc)
}

func TestResolveIVFPQ(t *testing.T) {
	field := entity.FieldSpec{
		Dimension: 136,
		Engine:    "faiss",
		Method: &entity.ComponentContext{Name: "ivf", Parameters: map[string]interface{}{
			"nlist":   float64(88),
			"encoder": encoder("pq", map[string]interface{}{"m": float64(17), "code_size": float64(53)}),
		}},
	}
	cfg, err := Resolve(field, true, nil)
	require.NoError(t, err)

	assert.Equal(t, "IVF88,PQ17x53", cfg.Descriptor)
	assert.True(t, cfg.TrainingRequired)
	params := cfg.Parameters()["parameters"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"nprobes": 1}, params)
	assert.Equal(t, []string{"faiss_ivf"}, cfg.SearchPolicies())

	_, err = Resolve(field, false, nil)
	requireValidation(t, err, false, "Provided method requires training, but should not.")
}

func TestResolveOverheadEstimate(t *testing.T) {
	cfg, err := Resolve(entity.FieldSpec{
		Dimension: 136,
		Method: &entity.ComponentContext{Name: "ivf", Parameters: map[string]interface{}{
			"nlist":   88,
			"encoder": encoder("pq", map[string]interface{}{"m": 17}),
		}},
		Engine: "faiss",
	}, true, nil)
	require.NoError(t, err)
	// ivf: 4*88*136/1024+1, pq: 4*2^8*136/1024+1
	assert.Equal(t, 47+137, cfg.EstimatedOverheadKB)

	flat, err := Resolve(entity.FieldSpec{
		Dimension: 136,
		Engine:    "faiss",
		Method:    &entity.ComponentContext{Name: "ivf", Parameters: map[string]interface{}{"nlist": 88}},
	}, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 47, flat.EstimatedOverheadKB)
	assert.LessOrEqual(t, flat.EstimatedOverheadKB, cfg.EstimatedOverheadKB)
}

func TestResolveDescriptors(t *testing.T) {
	tests := []struct {
		name  string
		field entity.FieldSpec
		train bool
		want  string
		// expected descriptor tokens, zero when absent
		size     int
		sqType   string
		pqM      int
		codeSize int
	}{
		{
			name:  "flat",
			field: entity.FieldSpec{Dimension: 8, Engine: "faiss", Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{"m": 65}}},
			want:  "HNSW65,Flat",
			size:  65,
		},
		{
			name: "sq fp16",
			field: entity.FieldSpec{Dimension: 8, Engine: "faiss", Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{
				"m": 65, "encoder": encoder("sq", nil),
			}}},
			want:   "HNSW65,SQfp16",
			size:   65,
			sqType: "fp16",
		},
		{
			name:  "binary data type",
			field: entity.FieldSpec{Dimension: 64, VectorDataType: "binary", Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{"m": 88}}},
			want:  "BHNSW88,Flat",
			size:  88,
		},
		{
			name:  "byte data type",
			field: entity.FieldSpec{Dimension: 8, VectorDataType: "byte"},
			want:  "HNSW16,SQ8_direct_signed",
			size:  16,
		},
		{
			name: "hnsw pq",
			field: entity.FieldSpec{Dimension: 128, Engine: "faiss", Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{
				"encoder": encoder("pq", map[string]interface{}{"m": 8}),
			}}},
			train:    true,
			want:     "HNSW16,PQ8x8",
			size:     16,
			pqM:      8,
			codeSize: 8,
		},
		{
			name:  "on disk",
			field: entity.FieldSpec{Dimension: 8, Mode: "on_disk"},
			want:  "BHNSW16,Flat",
			size:  16,
		},
		{
			name:  "explicit 4x keeps flat",
			field: entity.FieldSpec{Dimension: 8, CompressionLevel: "4x", Mode: "on_disk"},
			want:  "HNSW16,Flat",
			size:  16,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Resolve(tt.field, tt.train, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Descriptor)
			assert.Equal(t, tt.want, cfg.Parameters()[IndexDescriptionField])

			d, err := ParseDescription(cfg.Descriptor)
			require.NoError(t, err)
			assert.Equal(t, cfg.LibraryVectorDataType == entity.VectorDataTypeBinary, d.Binary)
			assert.Equal(t, MethodHNSW, d.Method)
			assert.Equal(t, tt.size, d.Size)
			if tt.sqType != "" {
				assert.Equal(t, EncoderSQ, d.Encoder)
				assert.Equal(t, tt.sqType, d.SQType)
			}
			if tt.pqM != 0 {
				assert.Equal(t, EncoderPQ, d.Encoder)
				assert.Equal(t, tt.pqM, d.PQM)
				assert.Equal(t, tt.codeSize, d.CodeSize)
			}
		})
	}
}

func TestResolveDescriptorRoundTrip(t *testing.T) {
	cfg, err := Resolve(entity.FieldSpec{
		Dimension: 136,
		Engine:    "faiss",
		Method: &entity.ComponentContext{Name: "ivf", Parameters: map[string]interface{}{
			"nlist":   88,
			"encoder": encoder("pq", map[string]interface{}{"m": 17, "code_size": 53}),
		}},
	}, true, nil)
	require.NoError(t, err)

	d, err := ParseDescription(cfg.Descriptor)
	require.NoError(t, err)
	assert.Equal(t, MethodIVF, d.Method)
	assert.Equal(t, 88, d.Size)
	assert.Equal(t, EncoderPQ, d.Encoder)
	assert.Equal(t, 17, d.PQM)
	assert.Equal(t, 53, d.CodeSize)

	params := cfg.Parameters()["parameters"].(map[string]interface{})
	for _, key := range []string{"nlist", "encoder"} {
		assert.NotContains(t, params, key)
	}
}

func TestResolveSQClip(t *testing.T) {
	field := func(params map[string]interface{}) entity.FieldSpec {
		return entity.FieldSpec{Dimension: 8, Engine: "faiss", Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{
			"encoder": encoder("sq", params),
		}}}
	}

	cfg, err := Resolve(field(map[string]interface{}{"clip": true}), false, nil)
	require.NoError(t, err)
	assert.Equal(t, "float", cfg.PerDimensionValidator().Name())
	assert.Equal(t, "clip_fp16", cfg.PerDimensionProcessor().Name())
	enc := cfg.Parameters()["parameters"].(map[string]interface{})["encoder"]
	assert.Equal(t, map[string]interface{}{"name": "sq", "parameters": map[string]interface{}{"clip": true}}, enc)

	cfg, err = Resolve(field(nil), false, nil)
	require.NoError(t, err)
	assert.Equal(t, "fp16", cfg.PerDimensionValidator().Name())
	assert.Equal(t, "noop", cfg.PerDimensionProcessor().Name())

	_, err = Resolve(field(map[string]interface{}{"type": "int8", "clip": true}), false, nil)
	requireValidation(t, err, true,
		"Clip only supported for FP16 encoder.",
		"Invalid value for parameter 'type'. Supported values are [fp16]")
}

func TestResolveNestedComponentRules(t *testing.T) {
	hnsw := func(enc interface{}) entity.FieldSpec {
		return entity.FieldSpec{Dimension: 8, Engine: "faiss", Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{
			"encoder": enc,
		}}}
	}

	_, err := Resolve(hnsw(map[string]interface{}{"parameters": map[string]interface{}{"m": 4}}), false, nil)
	requireValidation(t, err, true, "Invalid configuration. Need to specify the name")

	_, err = Resolve(hnsw(encoder("lvq", nil)), false, nil)
	requireValidation(t, err, true, "Invalid name: lvq for parameter [encoder]")

	_, err = Resolve(hnsw("flat"), false, nil)
	requireValidation(t, err, true)

	cfg, err := Resolve(hnsw(encoder("flat", nil)), false, nil)
	require.NoError(t, err)
	assert.Equal(t, "HNSW16,Flat", cfg.Descriptor)

	cfg, err = Resolve(entity.FieldSpec{Dimension: 8, Engine: "lucene"}, false, nil)
	require.NoError(t, err)
	assert.NotContains(t, cfg.Parameters()["parameters"], "encoder")
}

func TestResolveAccumulatesMessages(t *testing.T) {
	_, err := Resolve(entity.FieldSpec{Dimension: 8, Engine: "faiss", Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{
		"m": 0, "ef_construction": -1, "foo": 1,
	}}}, false, nil)
	requireValidation(t, err, false)
	assert.Equal(t, []string{
		"Invalid value for parameter 'ef_construction'. Value must be greater than 0",
		"Invalid value for parameter 'm'. Value must be greater than 0",
		"Unknown parameter 'foo' for component 'hnsw'",
	}, errors.AsValidationError(err).Messages)
}

func TestResolveTypeMismatchIsFatal(t *testing.T) {
	_, err := Resolve(entity.FieldSpec{Dimension: 8, Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{
		"m": "16",
	}}}, false, nil)
	requireValidation(t, err, true, "value is not an instance of Integer for parameter [m]: 16")

	_, err = Resolve(entity.FieldSpec{Dimension: 8, Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{
		"m": 1.5,
	}}}, false, nil)
	requireValidation(t, err, true)
}

func TestResolvePQ(t *testing.T) {
	pq := func(params map[string]interface{}) entity.FieldSpec {
		return entity.FieldSpec{Dimension: 128, Engine: "faiss", Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{
			"encoder": encoder("pq", params),
		}}}
	}

	_, err := Resolve(pq(map[string]interface{}{"m": 3}), true, nil)
	requireValidation(t, err, false, "Dimension 128 must be divisible by m (3)")

	ivf := pq(map[string]interface{}{"m": 3})
	ivf.Method.Name = "ivf"
	_, err = Resolve(ivf, true, nil)
	requireValidation(t, err, false, "Dimension 128 must be divisible by m (3)")

	ivf.Method.Parameters["encoder"] = encoder("pq", map[string]interface{}{"m": 4})
	cfg, err := Resolve(ivf, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "IVF4,PQ4x8", cfg.Descriptor)

	_, err = Resolve(pq(map[string]interface{}{"m": 8, "code_size": 16}), true, nil)
	requireValidation(t, err, false, "HNSW PQ code size must be 8")

	_, err = Resolve(pq(map[string]interface{}{"m": 1024}), true, nil)
	requireValidation(t, err, false, "Invalid value for parameter 'm'. Value must be in range (0, 1024)")

	_, err = Resolve(pq(map[string]interface{}{"m": 16}), false, nil)
	requireValidation(t, err, false, "Provided method requires training, but should not.")
}

func TestResolveTrainingMismatch(t *testing.T) {
	_, err := Resolve(entity.FieldSpec{Dimension: 8}, true, nil)
	requireValidation(t, err, false, "Provided method does not require training, when it should")
}

func TestResolveEngineSelection(t *testing.T) {
	tests := []struct {
		field entity.FieldSpec
		want  entity.Engine
	}{
		{entity.FieldSpec{Dimension: 8}, entity.EngineNmslib},
		{entity.FieldSpec{Dimension: 8, VectorDataType: "byte"}, entity.EngineFaiss},
		{entity.FieldSpec{Dimension: 8, VectorDataType: "binary"}, entity.EngineFaiss},
		{entity.FieldSpec{Dimension: 8, Mode: "in_memory"}, entity.EngineFaiss},
		{entity.FieldSpec{Dimension: 8, CompressionLevel: "2x"}, entity.EngineFaiss},
		{entity.FieldSpec{Dimension: 8, Mode: "default", CompressionLevel: "default"}, entity.EngineNmslib},
		{entity.FieldSpec{Dimension: 8, VectorDataType: "byte", Engine: "lucene"}, entity.EngineLucene},
	}
	for _, tt := range tests {
		cfg, err := Resolve(tt.field, false, nil)
		require.NoError(t, err, "%+v", tt.field)
		assert.Equal(t, tt.want, cfg.Engine, "%+v", tt.field)
	}
}

func TestResolveSpaceDefaults(t *testing.T) {
	cfg, err := Resolve(entity.FieldSpec{Dimension: 16, VectorDataType: "binary"}, false, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.SpaceHamming, cfg.SpaceType)
	assert.Equal(t, "binary", cfg.PerDimensionValidator().Name())

	_, err = Resolve(entity.FieldSpec{Dimension: 16, VectorDataType: "binary", SpaceType: "l2"}, false, nil)
	requireValidation(t, err, false, "Space type [l2] is not supported with [binary] data type")

	_, err = Resolve(entity.FieldSpec{Dimension: 16, Engine: "lucene", SpaceType: "l1"}, false, nil)
	requireValidation(t, err, false, "\"lucene\" with \"hnsw\" configuration does not support space type: \"l1\".")
}

func TestResolveFatalInputs(t *testing.T) {
	tests := []struct {
		name  string
		field entity.FieldSpec
		msg   string
	}{
		{"missing dimension", entity.FieldSpec{Name: "v"}, "Dimension cannot be null"},
		{"negative dimension", entity.FieldSpec{Name: "v", Dimension: -1}, "Dimension value must be greater than 0 for vector: v"},
		{"unknown data type", entity.FieldSpec{Dimension: 8, VectorDataType: "half"}, "Invalid value provided for [data_type] field. Supported values are [binary,byte,float]"},
		{"unknown space", entity.FieldSpec{Dimension: 8, SpaceType: "dot"}, "Unable to find space: dot"},
		{"unknown engine", entity.FieldSpec{Dimension: 8, Engine: "annoy"}, "Invalid engine type: annoy"},
		{"binary dimension", entity.FieldSpec{Dimension: 12, VectorDataType: "binary"}, "Dimension should be multiply of 8 for binary vector data type"},
		{"model and method", entity.FieldSpec{Name: "v", Dimension: 8, ModelID: "m1", Method: &entity.ComponentContext{Name: "hnsw"}}, "Method and model can not be both specified in the mapping: v"},
		{"unknown method", entity.FieldSpec{Dimension: 8, Engine: "faiss", Method: &entity.ComponentContext{Name: "lsh"}}, "Invalid method name: lsh for engine: faiss"},
		{"unnamed method", entity.FieldSpec{Dimension: 8, Method: &entity.ComponentContext{Parameters: map[string]interface{}{"m": 4}}}, "Invalid configuration. Need to specify the name"},
		{"bad version", entity.FieldSpec{Dimension: 8, CreatedVersion: "two"}, "Invalid created version: two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.field, false, nil)
			requireValidation(t, err, true, tt.msg)
		})
	}
}

func TestResolveModelBackedField(t *testing.T) {
	_, err := Resolve(entity.FieldSpec{Name: "v", ModelID: "m1"}, false, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrUnsupported, errors.GetCode(err))
}

func TestResolveMaxDimension(t *testing.T) {
	_, err := Resolve(entity.FieldSpec{Dimension: 16001}, false, nil)
	requireValidation(t, err, false, "Dimension value cannot be greater than 16000 for vector with engine: nmslib")

	_, err = Resolve(entity.FieldSpec{Dimension: 2000, Engine: "lucene", CreatedVersion: "2.13.0"}, false, nil)
	requireValidation(t, err, false, "Dimension value cannot be greater than 1024 for vector with engine: lucene")

	_, err = Resolve(entity.FieldSpec{Dimension: 2000, Engine: "lucene", CreatedVersion: "v2.14.0"}, false, nil)
	require.NoError(t, err)

	r := New(WithMaxDimension(entity.EngineNmslib, 512))
	_, err = r.Resolve(entity.FieldSpec{Dimension: 1000}, false, nil)
	requireValidation(t, err, false, "Dimension value cannot be greater than 512 for vector with engine: nmslib")
}

func TestResolveLegacySettings(t *testing.T) {
	legacy := &entity.LegacySettings{M: 32, EfConstruction: 256, SpaceType: "innerproduct"}

	cfg, err := Resolve(entity.FieldSpec{Dimension: 4}, false, legacy)
	require.NoError(t, err)
	assert.Equal(t, entity.EngineNmslib, cfg.Engine)
	assert.Equal(t, entity.SpaceInnerProduct, cfg.SpaceType)
	assert.Equal(t, map[string]interface{}{"m": 32, "ef_construction": 256}, cfg.Parameters()["parameters"])

	cfg, err = Resolve(entity.FieldSpec{Dimension: 4, SpaceType: "l2"}, false, legacy)
	require.NoError(t, err)
	assert.Equal(t, entity.SpaceL2, cfg.SpaceType)

	// legacy settings only apply to plain float fields
	cfg, err = Resolve(entity.FieldSpec{Dimension: 4, CompressionLevel: "32x"}, false, legacy)
	require.NoError(t, err)
	assert.Equal(t, entity.EngineFaiss, cfg.Engine)
	assert.Equal(t, entity.SpaceL2, cfg.SpaceType)
}

func TestResolveIsDeterministic(t *testing.T) {
	field := entity.FieldSpec{Dimension: 128, Engine: "faiss", Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{
		"m": 24, "encoder": encoder("sq", map[string]interface{}{"clip": true}),
	}}}
	a, err := Resolve(field, false, nil)
	require.NoError(t, err)
	b, err := Resolve(field, false, nil)
	require.NoError(t, err)

	assert.Equal(t, a.Parameters(), b.Parameters())
	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
	assert.Len(t, fa, 32)

	other, err := Resolve(entity.FieldSpec{Dimension: 128, Engine: "faiss"}, false, nil)
	require.NoError(t, err)
	fo, err := other.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fa, fo)
}

func TestResolveDefaultsAreIdempotent(t *testing.T) {
	hnsw := func(engine string, params map[string]interface{}) entity.FieldSpec {
		return entity.FieldSpec{Dimension: 8, Engine: engine, Method: &entity.ComponentContext{Name: "hnsw", Parameters: params}}
	}
	tests := []struct {
		name     string
		sparse   entity.FieldSpec
		explicit entity.FieldSpec
		train    bool
		want     string
	}{
		{
			name:     "nmslib hnsw",
			sparse:   entity.FieldSpec{Dimension: 8},
			explicit: entity.FieldSpec{Dimension: 8, Engine: "nmslib", SpaceType: "l2", Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{"m": 16, "ef_construction": 100}}},
		},
		{
			name:   "faiss hnsw flat",
			sparse: hnsw("faiss", nil),
			explicit: hnsw("faiss", map[string]interface{}{
				"m": 16, "ef_construction": 100, "ef_search": 100,
				"encoder": encoder("flat", map[string]interface{}{}),
			}),
			want: "HNSW16,Flat",
		},
		{
			name:   "16x binary",
			sparse: entity.FieldSpec{Dimension: 8, CompressionLevel: "16x"},
			explicit: entity.FieldSpec{Dimension: 8, CompressionLevel: "16x", Engine: "faiss", Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{
				"encoder": encoder("binary", map[string]interface{}{"bits": 2}),
			}}},
			want: "BHNSW16,Flat",
		},
		{
			name:   "faiss ivf",
			sparse: entity.FieldSpec{Dimension: 8, Engine: "faiss", Method: &entity.ComponentContext{Name: "ivf"}},
			explicit: entity.FieldSpec{Dimension: 8, Engine: "faiss", Method: &entity.ComponentContext{Name: "ivf", Parameters: map[string]interface{}{
				"nlist": 4, "nprobes": 1, "encoder": encoder("flat", nil),
			}}},
			train: true,
			want:  "IVF4,Flat",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sparse, err := Resolve(tt.sparse, tt.train, nil)
			require.NoError(t, err)
			explicit, err := Resolve(tt.explicit, tt.train, nil)
			require.NoError(t, err)

			assert.Equal(t, sparse.Parameters(), explicit.Parameters())
			assert.Equal(t, tt.want, sparse.Descriptor)
			assert.Equal(t, sparse.Descriptor, explicit.Descriptor)
		})
	}
}

func TestResolveIVFLimitsAreExclusive(t *testing.T) {
	ivf := func(params map[string]interface{}) entity.FieldSpec {
		return entity.FieldSpec{Dimension: 8, Engine: "faiss", Method: &entity.ComponentContext{Name: "ivf", Parameters: params}}
	}
	_, err := Resolve(ivf(map[string]interface{}{"nlist": MaxNlist}), true, nil)
	requireValidation(t, err, false, "Invalid value for parameter 'nlist'. Value must be in range [1, 19999]")
	_, err = Resolve(ivf(map[string]interface{}{"nprobes": MaxNprobes}), true, nil)
	requireValidation(t, err, false, "Invalid value for parameter 'nprobes'. Value must be in range [1, 19999]")

	cfg, err := Resolve(ivf(map[string]interface{}{"nlist": MaxNlist - 1, "nprobes": MaxNprobes - 1}), true, nil)
	require.NoError(t, err)
	assert.Equal(t, "IVF19999,Flat", cfg.Descriptor)

	_, err = cfg.SearchResolver().ResolveMethodParameters(QueryContext{Type: QueryK}, map[string]interface{}{"nprobes": MaxNprobes})
	requireValidation(t, err, false, "Invalid value for parameter 'nprobes'. Value must be in range [1, 19999]")
}

func TestIndexConfigConcurrentReads(t *testing.T) {
	cfg, err := Resolve(entity.FieldSpec{Dimension: 8, CompressionLevel: "32x"}, false, nil)
	require.NoError(t, err)
	want := cfg.Parameters()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sr := cfg.SearchResolver()
			_ = sr.ResolveRescoreContext(QueryContext{Type: QueryK}, nil)
			_, _ = sr.ResolveFloatQueryVector(QueryContext{Type: QueryK}, []float32{1, 2, 3, 4, 5, 6, 7, 8})
			p := cfg.Parameters()
			p["space_type"] = "l1"
		}()
	}
	wg.Wait()
	assert.Equal(t, want, cfg.Parameters())
}

func TestIndexConfigIsImmutable(t *testing.T) {
	cfg, err := Resolve(entity.FieldSpec{Dimension: 8}, false, nil)
	require.NoError(t, err)

	p := cfg.Parameters()
	p["parameters"].(map[string]interface{})["m"] = 99
	p["space_type"] = "l1"

	again := cfg.Parameters()
	assert.Equal(t, 16, again["parameters"].(map[string]interface{})["m"])
	assert.Equal(t, "l2", again["space_type"])
}

func TestIndexConfigPrepareVector(t *testing.T) {
	cfg, err := Resolve(entity.FieldSpec{Dimension: 2, Engine: "faiss", Method: &entity.ComponentContext{Name: "hnsw", Parameters: map[string]interface{}{
		"encoder": encoder("sq", map[string]interface{}{"clip": true}),
	}}}, false, nil)
	require.NoError(t, err)

	out, err := cfg.PrepareVector([]float32{70000, -1})
	require.NoError(t, err)
	assert.Equal(t, []float32{65504, -1}, out)

	_, err = cfg.PrepareVector([]float32{1})
	assert.Error(t, err)
}
