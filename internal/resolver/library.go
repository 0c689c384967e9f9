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
	"github.com/jmazanec15/k-NN-1/internal/entity"
	"golang.org/x/exp/slices"
	"golang.org/x/mod/semver"
)

const (
	DefaultMaxDimension = 16000
	// LegacyLuceneMaxDimension applies to lucene indices created before
	// LuceneMaxDimensionVersion.
	LegacyLuceneMaxDimension  = 1024
	LuceneMaxDimensionVersion = "v2.14.0"

	// CurrentVersion is the created version assumed for new fields.
	CurrentVersion = "v2.17.0"
)

// Method is an algorithm offered by a library, with the spaces it can serve
// and its query time policy.
type Method struct {
	Kind      MethodKind
	Component *Component
	Spaces    []entity.SpaceType
	Policy    SearchPolicy
}

func (m *Method) SupportsSpace(s entity.SpaceType) bool {
	return slices.Contains(m.Spaces, s)
}

// Library describes one engine: its methods and query capabilities.
type Library struct {
	Engine         entity.Engine
	methods        map[MethodKind]*Method
	maxDimension   func(version string) int
	radial         bool
	filters        bool
	customSegments bool
	distance       func(d float32, space entity.SpaceType) float32
	score          func(s float32, space entity.SpaceType) (float32, error)
}

var libraries = map[entity.Engine]*Library{}

func register(l *Library) {
	libraries[l.Engine] = l
}

// LibraryFor returns the library of e. Every entity.Engine has one.
func LibraryFor(e entity.Engine) (*Library, bool) {
	l, ok := libraries[e]
	return l, ok
}

func (l *Library) Method(name string) (*Method, bool) {
	m, ok := l.methods[MethodKind(name)]
	return m, ok
}

func (l *Library) MaxDimension(version string) int {
	if l.maxDimension == nil {
		return DefaultMaxDimension
	}
	return l.maxDimension(version)
}

func (l *Library) SupportsRadial() bool {
	return l.radial
}

func (l *Library) SupportsFilters() bool {
	return l.filters
}

// CreatesCustomSegmentFiles reports whether the engine writes its own files
// next to the index segments.
func (l *Library) CreatesCustomSegmentFiles() bool {
	return l.customSegments
}

// DistanceToThreshold converts a max_distance bound into the engine's
// radial threshold.
func (l *Library) DistanceToThreshold(d float32, space entity.SpaceType) float32 {
	if l.distance == nil {
		return d
	}
	return l.distance(d, space)
}

// ScoreToThreshold converts a min_score bound into the engine's radial
// threshold.
func (l *Library) ScoreToThreshold(score float32, space entity.SpaceType) (float32, error) {
	if l.score == nil {
		return space.ScoreToDistance(score)
	}
	return l.score(score, space)
}

func methodsOf(ms ...*Method) map[MethodKind]*Method {
	out := make(map[MethodKind]*Method, len(ms))
	for _, m := range ms {
		out[m.Kind] = m
	}
	return out
}

// NormalizeVersion accepts "2.14.0" or "v2.14.0" and returns the canonical
// semver form, or "" when v is not a version.
func NormalizeVersion(v string) string {
	if v == "" {
		return ""
	}
	if v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

func versionAtLeast(version, min string) bool {
	return semver.Compare(version, min) >= 0
}
