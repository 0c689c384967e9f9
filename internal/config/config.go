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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/jmazanec15/k-NN-1/internal/entity"
	"github.com/jmazanec15/k-NN-1/internal/resolver"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

var single *Config

// Conf return the single instance of config
func Conf() *Config {
	return single
}

var (
	versionOnce  sync.Once
	buildVersion = "0.0"
	buildTime    = "0"
	commitID     = "xxxxx"
)

// SetConfigVersion set the version, time and commit id of build
func SetConfigVersion(bv, bt, ci string) {
	versionOnce.Do(func() {
		buildVersion = bv
		buildTime = bt
		commitID = ci
	})
}

func GetBuildVersion() string {
	return buildVersion
}
func GetBuildTime() string {
	return buildTime
}
func GetCommitID() string {
	return commitID
}

const (
	DefaultPort     = 9200
	DefaultModelTTL = "10m"

	DefaultRequestTimeout = 30
)

type Config struct {
	Global *GlobalCfg `toml:"global,omitempty" json:"global" validate:"required"`
	Server *ServerCfg `toml:"server,omitempty" json:"server" validate:"required"`
	Engine *EngineCfg `toml:"engine,omitempty" json:"engine" validate:"required"`
	Legacy *LegacyCfg `toml:"legacy,omitempty" json:"legacy"`
	Model  *ModelCfg  `toml:"model,omitempty" json:"model" validate:"required"`
}

func (c *Config) GetLogDir() string {
	return c.Global.Log
}

// make sure it not use in loop
func (c *Config) GetLevel() string {
	return c.Global.Level
}

type GlobalCfg struct {
	Name  string `toml:"name,omitempty" json:"name" validate:"required"`
	Log   string `toml:"log,omitempty" json:"log"`
	Level string `toml:"level,omitempty" json:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

type ServerCfg struct {
	Port uint16 `toml:"port,omitempty" json:"port" validate:"required"`
	// MonitorPort serves /metrics on its own listener when set.
	MonitorPort uint16   `toml:"monitor_port" json:"monitor_port"`
	Cors        []string `toml:"cors,omitempty" json:"cors"`

	// RequestTimeout in seconds, overridden per request by ?timeout=.
	RequestTimeout int `toml:"request_timeout,omitempty" json:"request_timeout" validate:"gte=0"`
}

// EngineCfg holds the resolver limits. A zero max dimension keeps the
// engine's own limit.
type EngineCfg struct {
	FaissMaxDimension  int    `toml:"faiss_max_dimension,omitempty" json:"faiss_max_dimension" validate:"gte=0"`
	NmslibMaxDimension int    `toml:"nmslib_max_dimension,omitempty" json:"nmslib_max_dimension" validate:"gte=0"`
	LuceneMaxDimension int    `toml:"lucene_max_dimension,omitempty" json:"lucene_max_dimension" validate:"gte=0"`
	DefaultVersion     string `toml:"default_version,omitempty" json:"default_version"`
}

// ResolverOptions turns the section into resolver options.
func (e *EngineCfg) ResolverOptions() []resolver.Option {
	var opts []resolver.Option
	for _, o := range []struct {
		engine entity.Engine
		max    int
	}{
		{entity.EngineFaiss, e.FaissMaxDimension},
		{entity.EngineNmslib, e.NmslibMaxDimension},
		{entity.EngineLucene, e.LuceneMaxDimension},
	} {
		if o.max > 0 {
			opts = append(opts, resolver.WithMaxDimension(o.engine, o.max))
		}
	}
	if e.DefaultVersion != "" {
		opts = append(opts, resolver.WithDefaultVersion(e.DefaultVersion))
	}
	return opts
}

// LegacyCfg are the index level settings applied to fields without a method.
type LegacyCfg struct {
	M              int    `toml:"m,omitempty" json:"m" validate:"gte=0"`
	EfConstruction int    `toml:"ef_construction,omitempty" json:"ef_construction" validate:"gte=0"`
	SpaceType      string `toml:"space_type,omitempty" json:"space_type"`
}

// Settings returns nil when no legacy value is set.
func (l *LegacyCfg) Settings() *entity.LegacySettings {
	if l == nil || (l.M == 0 && l.EfConstruction == 0 && l.SpaceType == "") {
		return nil
	}
	return &entity.LegacySettings{M: l.M, EfConstruction: l.EfConstruction, SpaceType: l.SpaceType}
}

type ModelCfg struct {
	// CacheTTL takes a duration string such as "10m" or a number of seconds.
	CacheTTL interface{} `toml:"cache_ttl,omitempty" json:"cache_ttl"`
	Compress bool        `toml:"compress,omitempty" json:"compress"`
}

func (m *ModelCfg) TTL() (time.Duration, error) {
	raw := m.CacheTTL
	if raw == nil {
		raw = DefaultModelTTL
	}
	if s, ok := raw.(string); ok {
		d, err := cast.ToDurationE(s)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid model cache_ttl %s", s)
		}
		return d, nil
	}
	secs, err := cast.ToInt64E(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid model cache_ttl %v", raw)
	}
	return time.Duration(secs) * time.Second, nil
}

// Default returns a config usable without any file.
func Default() *Config {
	return &Config{
		Global: &GlobalCfg{Name: "knn", Level: "info"},
		Server: &ServerCfg{Port: DefaultPort, Cors: []string{"*"}, RequestTimeout: DefaultRequestTimeout},
		Engine: &EngineCfg{},
		Legacy: &LegacyCfg{},
		Model:  &ModelCfg{CacheTTL: DefaultModelTTL},
	}
}

func InitConfig(path string) error {
	c, err := LoadConfig(path)
	if err != nil {
		return err
	}
	single = c
	return nil
}

// LoadConfig decodes the file at path over Default and validates it.
func LoadConfig(path string) (*Config, error) {
	if len(path) == 0 {
		return nil, errors.New("configPath file is empty")
	}
	conf := Default()
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, errors.Wrapf(err, "decode:[%s] failed", path)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Decode is LoadConfig for an in memory document.
func Decode(data string) (*Config, error) {
	conf := Default()
	if _, err := toml.Decode(data, conf); err != nil {
		return nil, errors.Wrap(err, "decode config failed")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

var validate = validator.New()

func (config *Config) Validate() error {
	if err := validate.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.Wrap(err, "invalid config")
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
		}
		return errors.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	if v := config.Engine.DefaultVersion; v != "" && resolver.NormalizeVersion(v) == "" {
		return errors.Errorf("invalid engine default_version %s", v)
	}
	if config.Legacy != nil && config.Legacy.SpaceType != "" {
		if _, err := entity.ParseSpaceType(config.Legacy.SpaceType); err != nil {
			return errors.Wrap(err, "invalid legacy space_type")
		}
	}
	if _, err := config.Model.TTL(); err != nil {
		return err
	}
	return nil
}
