// Package factory builds detection backends by name. It sits outside
// package detect because every backend imports detect for the interface.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/veilworks/faceveil/internal/detect"
	"github.com/veilworks/faceveil/internal/detect/deepface"
	"github.com/veilworks/faceveil/internal/detect/mock"
	"github.com/veilworks/faceveil/internal/detect/pigo"
	"github.com/veilworks/faceveil/internal/detect/rekognition"
)

// Config selects and configures a detection backend.
type Config struct {
	Type        string
	CascadePath string
	DeepFaceURL string
	AWSRegion   string
}

// New builds the detector named by cfg.Type. Supported types are "pigo",
// "rekognition", "deepface" and "mock".
func New(ctx context.Context, cfg Config) (detect.Detector, error) {
	switch cfg.Type {
	case "pigo":
		d, err := pigo.New(cfg.CascadePath)
		if err != nil {
			return nil, fmt.Errorf("init pigo detector: %w", err)
		}
		return d, nil
	case "rekognition":
		d, err := rekognition.NewFromRegion(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("init rekognition detector: %w", err)
		}
		return d, nil
	case "deepface":
		dfCfg := deepface.DefaultConfig()
		if cfg.DeepFaceURL != "" {
			dfCfg.BaseURL = cfg.DeepFaceURL
		}
		dfCfg.Timeout = 60 * time.Second
		return deepface.New(dfCfg), nil
	case "mock":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown detector type: %q", cfg.Type)
	}
}
