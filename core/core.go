// Package core has core logic for scoring measures and building scoring-sensitivity matrices.
package core

import (
	"context"
	"time"

	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/internal/source"
	"github.com/huangsam/qbmatrix/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, w contract.ResultWriter) error

// NewSource returns the measure source configured in cfg.
func NewSource(cfg *contract.Config) (contract.MeasureSource, error) {
	if cfg.InputPath == "" {
		return nil, ErrNoInput
	}
	return source.NewFileSource(cfg.InputPath, cfg.InputFormat), nil
}

// ExecuteMatrix builds the full matrix for every selected hospital and prints it.
// It serves as the main entry point for the 'matrix' command.
func ExecuteMatrix(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, w contract.ResultWriter) error {
	start := time.Now()
	src, err := NewSource(cfg)
	if err != nil {
		return err
	}
	results, err := GetMatrixResults(ctx, cfg, src, mgr)
	if err != nil {
		return err
	}
	if cfg.MetricsFile != "" {
		if err := w.WriteMetricsFile(results, cfg.MetricsFile); err != nil {
			contract.LogWarn("Failed to write metrics file", err)
		}
	}
	return w.WriteMatrix(results, cfg, time.Since(start))
}

// ExecuteTiers prints the tier outcomes of every measure for each selected hospital.
func ExecuteTiers(ctx context.Context, cfg *contract.Config, _ contract.StoreManager, w contract.ResultWriter) error {
	src, err := NewSource(cfg)
	if err != nil {
		return err
	}
	results, err := GetTierResults(ctx, cfg, src)
	if err != nil {
		return err
	}
	return w.WriteTiers(results, cfg)
}

// ExecuteBenchmarks prints the active benchmark set.
// This is a static display that does not read any input.
func ExecuteBenchmarks(_ context.Context, cfg *contract.Config, _ contract.StoreManager, w contract.ResultWriter) error {
	return w.WriteBenchmarks(cfg.Benchmarks, cfg)
}

// GetMatrixResults loads the selected hospitals from src and builds their matrices.
func GetMatrixResults(ctx context.Context, cfg *contract.Config, src contract.MeasureSource, mgr contract.StoreManager) ([]schema.HospitalMatrix, error) {
	hospitals, err := loadHospitals(ctx, cfg, src)
	if err != nil {
		return nil, err
	}
	return runMatrices(ctx, cfg, hospitals, mgr)
}

// GetTierResults loads the selected hospitals from src and lists their tier outcomes.
func GetTierResults(ctx context.Context, cfg *contract.Config, src contract.MeasureSource) ([]schema.HospitalTiers, error) {
	hospitals, err := loadHospitals(ctx, cfg, src)
	if err != nil {
		return nil, err
	}
	return buildTiers(cfg, hospitals)
}
