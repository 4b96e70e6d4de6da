package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/internal/source"
	"github.com/huangsam/qbmatrix/schema"
)

// Run errors.
var (
	ErrNoInput          = errors.New("an input file is required")
	ErrNoHospitals      = errors.New("no hospitals found in input")
	ErrHospitalNotFound = errors.New("hospital not found in input")
)

// loadHospitals reads rows from src, applies the crosswalk and keeps the
// hospitals selected in cfg. Every selected hospital must be present.
func loadHospitals(ctx context.Context, cfg *contract.Config, src contract.MeasureSource) ([]schema.HospitalInput, error) {
	all, err := source.LoadHospitals(ctx, src, cfg.Xref, cfg.DefaultSize)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNoHospitals
	}
	selected, missing := source.SelectHospitals(all, cfg.Hospitals)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrHospitalNotFound, strings.Join(missing, ", "))
	}
	return selected, nil
}

// runMatrices builds one matrix per hospital and records the run when a
// history store is configured. Results keep the input order of hospitals.
func runMatrices(ctx context.Context, cfg *contract.Config, hospitals []schema.HospitalInput, mgr contract.StoreManager) ([]schema.HospitalMatrix, error) {
	if !shouldSuppressHeader(ctx) {
		contract.LogInfo("🧮 qbmatrix: building %d hospitals with benchmarks %s", len(hospitals), cfg.Benchmarks.Version)
	}

	// --- 0. Begin Run Tracking (if configured) ---
	var history contract.HistoryStore
	if mgr != nil {
		history = mgr.GetHistoryStore()
	}
	if history != nil {
		configParams := map[string]any{
			"input_path":        cfg.InputPath,
			"hospitals":         strings.Join(cfg.Hospitals, ","),
			"benchmark_version": cfg.Benchmarks.Version,
			"workers":           cfg.Workers,
		}
		runID, err := history.BeginRun(time.Now(), configParams)
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		} else if runID > 0 {
			ctx = withRunID(ctx, runID)
		}
	}

	// --- 1. Build ---
	results, err := buildMatrices(ctx, cfg, hospitals, history)
	if err != nil {
		return nil, err
	}

	// --- 2. End Run Tracking ---
	if runID, ok := getRunID(ctx); ok && history != nil {
		if err := history.EndRun(runID, time.Now(), len(results)); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}
	return results, nil
}

// buildMatrices processes hospitals in parallel using a worker pool of
// cfg.Workers goroutines. Each worker writes to its own index of the result.
func buildMatrices(ctx context.Context, cfg *contract.Config, hospitals []schema.HospitalInput, history contract.HistoryStore) ([]schema.HospitalMatrix, error) {
	results := make([]schema.HospitalMatrix, len(hospitals))
	errs := make([]error, len(hospitals))
	indexCh := make(chan int, len(hospitals))
	var wg sync.WaitGroup

	for range max(cfg.Workers, 1) {
		wg.Go(func() {
			for i := range indexCh {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				results[i], errs[i] = BuildHospitalMatrix(hospitals[i], cfg.Benchmarks)
				if errs[i] == nil {
					recordMatrix(ctx, history, results[i])
				}
			}
		})
	}

	for i := range hospitals {
		indexCh <- i
	}
	close(indexCh)
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

// recordMatrix stores the scenarios of every category of one hospital.
func recordMatrix(ctx context.Context, history contract.HistoryStore, m schema.HospitalMatrix) {
	runID, ok := getRunID(ctx)
	if !ok || history == nil {
		return
	}
	for _, c := range m.Categories {
		if err := history.RecordScenarios(runID, m.HospitalID, c.Category, c.Scenarios); err != nil {
			contract.LogWarn(fmt.Sprintf("Failed to record %s scenarios for %s", c.Category, m.HospitalID), err)
		}
	}
}

// buildTiers lists tier outcomes for each hospital in order.
func buildTiers(cfg *contract.Config, hospitals []schema.HospitalInput) ([]schema.HospitalTiers, error) {
	out := make([]schema.HospitalTiers, 0, len(hospitals))
	for _, h := range hospitals {
		t, err := BuildHospitalTiers(h, cfg.Benchmarks)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
