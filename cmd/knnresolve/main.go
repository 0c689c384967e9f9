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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jmazanec15/k-NN-1/internal/config"
	"github.com/jmazanec15/k-NN-1/internal/mapping"
	"github.com/jmazanec15/k-NN-1/internal/model"
	"github.com/jmazanec15/k-NN-1/internal/pkg/log"
	"github.com/jmazanec15/k-NN-1/internal/pkg/vjson"
	"github.com/jmazanec15/k-NN-1/internal/resolver"
	"github.com/jmazanec15/k-NN-1/internal/router"
	"github.com/spf13/pflag"
)

var (
	BuildVersion = "0.0"
	BuildTime    = "0"
	CommitID     = "xxxxx"

	confPath    string
	mappingPath string
	level       string
	serve       bool
)

func init() {
	pflag.StringVarP(&confPath, "conf", "c", "", "config path, built in defaults are used when empty")
	pflag.StringVarP(&mappingPath, "mapping", "m", "", "mapping document to resolve and print, - reads stdin")
	pflag.StringVar(&level, "level", "", "log level, overrides the config")
	pflag.BoolVar(&serve, "serve", false, "serve the http api")
}

func main() {
	pflag.Parse()
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exit.
func run() int {
	config.SetConfigVersion(BuildVersion, BuildTime, CommitID)

	cfg := config.Default()
	if confPath != "" {
		if err := config.InitConfig(confPath); err != nil {
			fmt.Fprintf(os.Stderr, "load config %s failed: %v\n", confPath, err)
			return 1
		}
		cfg = config.Conf()
	}
	if level != "" {
		cfg.Global.Level = level
	}
	closeLog, err := initLog(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init log failed: %v\n", err)
		return 1
	}
	defer closeLog()
	log.Infof("start by version:[%s] commitID:[%s]", BuildVersion, CommitID)

	ttl, err := cfg.Model.TTL()
	if err != nil {
		log.Error(err.Error())
		return 1
	}
	r := resolver.New(cfg.Engine.ResolverOptions()...)
	models := model.NewRegistry(r, ttl, cfg.Model.Compress)
	mapper := mapping.NewMapper(r, models, mapping.WithLegacy(cfg.Legacy.Settings()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if mappingPath != "" {
		if err := resolveMapping(ctx, mapper, mappingPath, os.Stdout); err != nil {
			log.Errorf("resolve mapping %s failed: %v", mappingPath, err)
			return 1
		}
		if !serve {
			return 0
		}
	}
	if !serve {
		pflag.Usage()
		return 2
	}

	server := router.NewServer(cfg, mapper, models, mapping.NewCatalog())
	if err := server.Start(ctx); err != nil {
		log.Error(err.Error())
		return 1
	}
	return 0
}

func initLog(cfg *config.Config) (func(), error) {
	lvl := log.ParseLevel(cfg.GetLevel())
	dir := cfg.GetLogDir()
	if dir == "" {
		log.Regist(log.NewGoLog(os.Stderr, lvl))
		return func() {}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, cfg.Global.Name+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	log.Regist(log.NewGoLog(f, lvl))
	return func() {
		log.Flush()
		f.Close()
	}, nil
}

func resolveMapping(ctx context.Context, mapper *mapping.Mapper, path string, out io.Writer) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	mp, err := mapper.ResolveMapping(ctx, data)
	if err != nil {
		return err
	}
	b, err := vjson.Marshal(mp)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
