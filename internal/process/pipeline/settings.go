package pipeline

import (
	"time"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/platform/config"
)

type pipelineSettings struct {
	longTextThreshold int
	defaultPreset     string
	defaultTone       string
	persistTimeout    time.Duration
}

func settingsFromConfig(cfg *config.Config) pipelineSettings {
	s := pipelineSettings{
		longTextThreshold: DefaultLongTextThreshold,
		defaultPreset:     domain.DefaultPreset,
		defaultTone:       domain.ToneFriend,
		persistTimeout:    defaultPersistTimeout,
	}

	if cfg == nil {
		return s
	}

	if cfg.LongTextThreshold > 0 {
		s.longTextThreshold = cfg.LongTextThreshold
	}

	if preset, err := domain.NormalizePreset(cfg.DefaultPreset); err == nil {
		s.defaultPreset = preset
	}

	if tone := (domain.Options{Tone: cfg.DefaultTone}).Normalize().Tone; tone == domain.ToneMentor {
		s.defaultTone = tone
	}

	if cfg.PersistTimeout > 0 {
		s.persistTimeout = cfg.PersistTimeout
	}

	return s
}
