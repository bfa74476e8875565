// settings-seed grava na tabela settings os valores de um arquivo YAML.
//
//	settings-seed -f settings.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/radieske/surebet-promoter/internal/settings"
	"github.com/radieske/surebet-promoter/internal/shared/cache"
	"github.com/radieske/surebet-promoter/internal/shared/config"
	"github.com/radieske/surebet-promoter/internal/shared/db"
	"github.com/radieske/surebet-promoter/internal/shared/logger"
	"github.com/radieske/surebet-promoter/internal/storage"
)

func main() {
	file := flag.String("f", "settings.yaml", "arquivo YAML chave: valor")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New("settings-seed", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal("read seed file", zap.String("file", *file), zap.Error(err))
	}
	values, err := parseSeed(raw)
	if err != nil {
		log.Fatal("parse seed file", zap.Error(err))
	}

	ctx := context.Background()
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	var c settings.Cache
	if r, err := cache.ConnectRedis(cfg.RedisAddr); err != nil {
		log.Warn("redis unavailable, cache not invalidated", zap.Error(err))
	} else {
		defer r.Close()
		c = settings.NewRedisCache(r, 0)
	}
	store := settings.NewStore(storage.NewPostgresSettings(pg), c, log)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := store.Set(ctx, k, values[k]); err != nil {
			log.Fatal("seed setting", zap.String("key", k), zap.Error(err))
		}
		log.Info("setting seeded", zap.String("key", k), zap.String("value", values[k]))
	}
}

// parseSeed converte cada valor YAML no JSON guardado na tabela
func parseSeed(raw []byte) (map[string]string, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(doc))
	for k, v := range doc {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = string(b)
	}
	return out, nil
}
