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

package mapping

import (
	"github.com/jmazanec15/k-NN-1/internal/pkg/errors"
	"github.com/jmazanec15/k-NN-1/internal/resolver"
	"github.com/patrickmn/go-cache"
	"golang.org/x/exp/slices"
)

// Catalog holds the resolved mapping of each index by name.
type Catalog struct {
	mappings *cache.Cache
	metrics  *MetricsRecorder
}

func NewCatalog() *Catalog {
	return &Catalog{mappings: cache.New(cache.NoExpiration, cache.NoExpiration), metrics: NewMetricsRecorder()}
}

func (c *Catalog) Put(index string, mp *Mapping) {
	c.mappings.Set(index, mp, cache.NoExpiration)
	c.metrics.UpdateCatalogSize(c.mappings.ItemCount())
}

func (c *Catalog) Get(index string) (*Mapping, error) {
	if v, ok := c.mappings.Get(index); ok {
		return v.(*Mapping), nil
	}
	return nil, errors.Newf(errors.ErrNotFound, "index not found: %s", index)
}

// Field looks up the resolved config of one field of an index.
func (c *Catalog) Field(index, field string) (*resolver.IndexConfig, error) {
	mp, err := c.Get(index)
	if err != nil {
		return nil, err
	}
	cfg, ok := mp.Field(field)
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "field [%s] is not a knn_vector field of index [%s]", field, index)
	}
	return cfg, nil
}

func (c *Catalog) Delete(index string) error {
	if _, ok := c.mappings.Get(index); !ok {
		return errors.Newf(errors.ErrNotFound, "index not found: %s", index)
	}
	c.mappings.Delete(index)
	c.metrics.UpdateCatalogSize(c.mappings.ItemCount())
	return nil
}

func (c *Catalog) Indices() []string {
	items := c.mappings.Items()
	names := make([]string, 0, len(items))
	for k := range items {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
