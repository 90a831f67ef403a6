package cmd

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/database/postgres"
	"github.com/kozaktomas/rollcall/internal/recognition"
	"github.com/kozaktomas/rollcall/internal/vision"
)

// buildPipeline assembles the detector and embedder from config.
// The returned cleanup releases the ONNX session.
func buildPipeline(cfg *config.Config) (*recognition.Pipeline, func(), error) {
	if cfg.Recognizer.CascadePath == "" {
		return nil, nil, errors.New("FACE_CASCADE_PATH environment variable is required")
	}
	if cfg.Recognizer.ModelPath == "" {
		return nil, nil, errors.New("FACE_MODEL_PATH environment variable is required")
	}

	detector, err := vision.NewDetector(cfg.Recognizer.CascadePath, vision.DetectorOptions{
		MinSize:    cfg.Recognizer.MinFaceSize,
		MaxSize:    cfg.Recognizer.MaxFaceSize,
		QThreshold: cfg.Recognizer.DetQThreshold,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load face detector: %w", err)
	}

	embedder, err := vision.NewEmbedder(cfg.Recognizer.ModelPath, vision.EmbedderOptions{
		InputSize:    cfg.Recognizer.InputSize,
		EmbeddingDim: cfg.Recognizer.EmbeddingDim,
		OrtLibPath:   cfg.Recognizer.OrtLibPath,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load face embedder: %w", err)
	}

	pipeline := recognition.NewPipeline(detector, embedder, cfg.Recognizer.Threshold)
	return pipeline, embedder.Close, nil
}

// connectDatabase opens the PostgreSQL pool and runs migrations.
func connectDatabase(cfg *config.Config) (*postgres.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	pool, err := postgres.Initialize(&cfg.Database, cfg.Recognizer.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return pool, nil
}
