// Package settings expõe os limiares de negócio guardados na tabela settings.
// Os valores são relidos a cada decisão; o cache é invalidado a cada escrita.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/surebet-promoter/internal/storage"
)

var (
	ErrUnknownKey   = errors.New("unknown setting")
	ErrInvalidValue = errors.New("invalid setting value")
)

type Store struct {
	repo  storage.SettingRepo
	cache Cache
	log   *zap.Logger
}

func NewStore(repo storage.SettingRepo, cache Cache, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{repo: repo, cache: cache, log: log}
}

// All devolve a tabela inteira, do cache quando quente.
// Falha no Redis não impede a leitura: cai direto no banco.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	if s.cache != nil {
		m, ok, err := s.cache.Load(ctx)
		if err != nil {
			s.log.Warn("settings cache load failed", zap.Error(err))
		} else if ok {
			return m, nil
		}
	}

	// geração lida antes do banco: escrita no meio descarta o Save
	var gen int64
	canSave := s.cache != nil
	if canSave {
		var err error
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.log.Warn("settings cache generation failed", zap.Error(err))
			canSave = false
		}
	}

	rows, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	m := make(map[string]string, len(rows))
	for _, r := range rows {
		m[r.Key] = r.Value
	}
	if canSave {
		if err := s.cache.Save(ctx, gen, m); err != nil {
			s.log.Warn("settings cache save failed", zap.Error(err))
		}
	}
	return m, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	m, err := s.All(ctx)
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// Set valida o valor contra o tipo da chave, grava e invalida o cache
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := validate(key, value); err != nil {
		return err
	}
	if err := s.repo.Put(ctx, key, value); err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			return fmt.Errorf("invalidate settings cache: %w", err)
		}
	}
	return nil
}

// Snapshot monta os limiares tipados para uma decisão.
// Chaves ausentes ou inválidas ficam com o default.
func (s *Store) Snapshot(ctx context.Context) (Thresholds, error) {
	m, err := s.All(ctx)
	if err != nil {
		return Thresholds{}, err
	}
	t := Defaults()
	for key, raw := range m {
		f, ok := fields(&t)[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(raw), f); err != nil {
			s.log.Warn("invalid setting value, using default", zap.String("key", key), zap.Error(err))
		}
	}
	return t, nil
}

func validate(key, value string) error {
	var t Thresholds
	f, ok := fields(&t)[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err := json.Unmarshal([]byte(value), f); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidValue, key, err)
	}
	return nil
}
