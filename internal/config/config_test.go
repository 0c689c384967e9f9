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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmazanec15/k-NN-1/internal/entity"
	"github.com/jmazanec15/k-NN-1/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[global]
name = "knn-test"
level = "debug"

[server]
port = 8817
cors = ["http://localhost"]

[engine]
lucene_max_dimension = 2048
default_version = "2.13.0"

[legacy]
m = 24
ef_construction = 512
space_type = "cosinesimil"

[model]
cache_ttl = 30
compress = true
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "knn-test", c.Global.Name)
	assert.Equal(t, "debug", c.GetLevel())
	assert.Equal(t, uint16(8817), c.Server.Port)
	assert.Equal(t, []string{"http://localhost"}, c.Server.Cors)
	assert.True(t, c.Model.Compress)

	ttl, err := c.Model.TTL()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, ttl)

	assert.Equal(t, &entity.LegacySettings{M: 24, EfConstruction: 512, SpaceType: "cosinesimil"}, c.Legacy.Settings())

	r := resolver.New(c.Engine.ResolverOptions()...)
	_, err = r.Resolve(entity.FieldSpec{Dimension: 2000, Engine: "lucene"}, false, nil)
	assert.NoError(t, err)
	_, err = r.Resolve(entity.FieldSpec{Dimension: 4000, Engine: "lucene"}, false, nil)
	assert.Error(t, err)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	for _, doc := range []string{
		"[global]\nlevel = \"loud\"",
		"[global]\nname = \"\"",
		"[engine]\nfaiss_max_dimension = -1",
		"[engine]\ndefault_version = \"latest\"",
		"[legacy]\nspace_type = \"dot\"",
		"[model]\ncache_ttl = \"soon\"",
		"[server\nport = 1",
	} {
		_, err := Decode(doc)
		assert.Error(t, err, doc)
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Nil(t, c.Legacy.Settings())
	assert.Empty(t, c.Engine.ResolverOptions())

	ttl, err := c.Model.TTL()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, ttl)

	c.Model.CacheTTL = "90s"
	ttl, err = c.Model.TTL()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, ttl)
}
