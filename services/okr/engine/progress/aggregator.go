// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package progress rolls objective progress up the alignment hierarchy.
//
// An objective's progress comes from exactly one source: the weighted mean
// of its key results, or the weighted mean of its child objectives via
// parent_child alignment edges. The alignment engine's mutual-exclusivity
// constraint guarantees an objective never has both.
package progress

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/AleutianOKR/pkg/validation"
	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/engine/alignment"
	"github.com/AleutianAI/AleutianOKR/services/okr/engine/status"
	"github.com/AleutianAI/AleutianOKR/services/okr/store"
)

// Result is the outcome of recalculating one objective.
type Result struct {
	ObjectiveID string  `json:"objective_id"`
	Progress    float64 `json:"progress"`

	// Underweighted is set when the contributing weights sum to less than 1,
	// which usually means a partially configured objective. The computed
	// progress is still the weighted mean over the weights that exist; the
	// flag is surfaced so the UI can warn rather than silently renormalize.
	Underweighted bool `json:"underweighted"`

	// Sources is the number of key results or child objectives that fed the
	// calculation. Zero means the progress was reset to 0.
	Sources int `json:"sources"`
}

// Aggregator computes weighted roll-ups and writes them back to the store.
//
// # Description
//
// Recalculations are deduplicated per objective id with singleflight:
// concurrent requests for the same objective share one store round trip and
// one write. Cascades run bottom-up so each ancestor reads the already
// updated progress of the level below it.
//
// # Thread Safety
//
// Safe for concurrent use.
type Aggregator struct {
	store         store.Store
	defaultMethod datatypes.CalcMethod
	notifier      alignment.Notifier
	logger        *slog.Logger

	group singleflight.Group
}

// AggregatorConfig configures an Aggregator. Store is required.
type AggregatorConfig struct {
	Store store.Store

	// DefaultMethod is the process-wide roll-up method for objectives with
	// no per-objective override. Defaults to weighted_avg.
	DefaultMethod datatypes.CalcMethod

	Notifier alignment.Notifier
	Logger   *slog.Logger
}

// NewAggregator creates a progress aggregator.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	if !cfg.DefaultMethod.IsValid() {
		cfg.DefaultMethod = datatypes.CalcWeightedAvg
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Aggregator{
		store:         cfg.Store,
		defaultMethod: cfg.DefaultMethod,
		notifier:      cfg.Notifier,
		logger:        cfg.Logger,
	}
}

// Recalculate recomputes one objective's progress from its children and
// persists the result.
//
// # Description
//
// Key results win when present; otherwise the objective's outgoing
// parent_child edges supply the children, with each edge's weight applied
// to the child objective's cached progress. With no contributing sources
// the progress is 0, and with a zero weight sum the mean is defined as 0
// rather than dividing by zero. The status is re-derived from the new
// progress: 100 forces completed, a draft gaining progress auto-advances.
//
// # Outputs
//
//   - Result: The persisted progress and the underweighted flag.
//   - error: store.ErrNotFound for unknown ids, or a wrapped store failure.
func (a *Aggregator) Recalculate(ctx context.Context, objectiveID string) (Result, error) {
	v, err, _ := a.group.Do(objectiveID, func() (any, error) {
		return a.recalculate(ctx, objectiveID)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// Cascade recalculates an objective and then every ancestor up to the root,
// bottom-up. It returns the per-objective results in recalculation order,
// the objective itself first.
//
// A failure partway through stops the walk and returns the results already
// committed alongside the error, so callers can see how far the cascade got.
func (a *Aggregator) Cascade(ctx context.Context, objectiveID string) ([]Result, error) {
	first, err := a.Recalculate(ctx, objectiveID)
	if err != nil {
		return nil, err
	}
	results := []Result{first}

	ancestors, err := alignment.Ancestors(ctx, a.store, objectiveID)
	if err != nil {
		return results, fmt.Errorf("ancestor walk from %s: %w", objectiveID, err)
	}

	for _, id := range ancestors {
		res, err := a.Recalculate(ctx, id)
		if err != nil {
			return results, fmt.Errorf("cascade to %s: %w", id, err)
		}
		results = append(results, res)
	}

	if a.notifier != nil {
		ids := make([]string, len(results))
		for i, r := range results {
			ids[i] = r.ObjectiveID
		}
		a.notifier.ObjectivesInvalidated(ctx, ids, "progress_recalculated")
	}
	return results, nil
}

// CascadeAncestors recalculates only the ancestors of an objective, for
// callers that already updated the objective itself (a direct progress edit
// or a key result value change).
func (a *Aggregator) CascadeAncestors(ctx context.Context, objectiveID string) ([]Result, error) {
	ancestors, err := alignment.Ancestors(ctx, a.store, objectiveID)
	if err != nil {
		return nil, fmt.Errorf("ancestor walk from %s: %w", objectiveID, err)
	}

	var results []Result
	for _, id := range ancestors {
		res, err := a.Recalculate(ctx, id)
		if err != nil {
			return results, fmt.Errorf("cascade to %s: %w", id, err)
		}
		results = append(results, res)
	}

	if a.notifier != nil && len(results) > 0 {
		ids := []string{objectiveID}
		for _, r := range results {
			ids = append(ids, r.ObjectiveID)
		}
		a.notifier.ObjectivesInvalidated(ctx, ids, "progress_recalculated")
	}
	return results, nil
}

// =============================================================================
// Internals
// =============================================================================

func (a *Aggregator) recalculate(ctx context.Context, objectiveID string) (Result, error) {
	obj, err := a.store.GetObjective(ctx, objectiveID)
	if err != nil {
		return Result{}, fmt.Errorf("objective %s: %w", objectiveID, err)
	}

	contributions, err := a.collect(ctx, obj)
	if err != nil {
		return Result{}, err
	}

	mean, weightSum := weightedMean(contributions)
	res := Result{
		ObjectiveID:   obj.ID,
		Progress:      mean,
		Underweighted: len(contributions) > 0 && weightSum > 0 && weightSum < 1,
		Sources:       len(contributions),
	}

	newStatus := status.DeriveOnProgress(obj.Status, res.Progress, "")
	patch := datatypes.ObjectivePatch{Progress: &res.Progress}
	if newStatus != obj.Status {
		patch.Status = &newStatus
	}
	if _, err := a.store.UpdateObjective(ctx, obj.ID, patch); err != nil {
		return Result{}, fmt.Errorf("persist progress of %s: %w", obj.ID, err)
	}

	a.logger.Debug("objective progress recalculated",
		"objective_id", obj.ID,
		"progress", res.Progress,
		"sources", res.Sources,
		"underweighted", res.Underweighted,
		"calc_method", string(obj.EffectiveCalcMethod(a.defaultMethod)),
	)
	return res, nil
}

type contribution struct {
	progress float64
	weight   float64
}

// collect gathers the weighted contributions for an objective. Key results
// take precedence over child alignments; the constraint engine keeps the
// two populations mutually exclusive, so precedence only matters for data
// corrupted out of band.
func (a *Aggregator) collect(ctx context.Context, obj *datatypes.Objective) ([]contribution, error) {
	krs, err := a.store.ListKeyResults(ctx, obj.ID)
	if err != nil {
		return nil, fmt.Errorf("list key results of %s: %w", obj.ID, err)
	}
	if len(krs) > 0 {
		out := make([]contribution, 0, len(krs))
		for _, kr := range krs {
			out = append(out, contribution{
				progress: validation.ClampProgress(kr.Progress),
				weight:   validation.ClampWeight(kr.Weight),
			})
		}
		return out, nil
	}

	edges, err := a.store.ListAlignments(ctx, datatypes.AlignmentFilter{
		SourceID: obj.ID,
		Type:     datatypes.AlignParentChild,
	})
	if err != nil {
		return nil, fmt.Errorf("list child alignments of %s: %w", obj.ID, err)
	}

	out := make([]contribution, 0, len(edges))
	for _, edge := range edges {
		child, err := a.store.GetObjective(ctx, edge.TargetID)
		if err != nil {
			return nil, fmt.Errorf("child objective %s: %w", edge.TargetID, err)
		}
		out = append(out, contribution{
			progress: validation.ClampProgress(child.Progress),
			weight:   validation.ClampWeight(edge.Weight),
		})
	}
	return out, nil
}

// weightedMean returns sum(p*w)/sum(w) and the weight sum. A zero weight
// sum yields 0: a set of explicitly zero-weighted children contributes
// nothing rather than producing NaN.
//
// weighted_sum and weighted_avg share this arithmetic today; the method
// only affects labeling (see datatypes.CalcMethod).
func weightedMean(contributions []contribution) (mean, weightSum float64) {
	var acc float64
	for _, c := range contributions {
		acc += c.progress * c.weight
		weightSum += c.weight
	}
	if weightSum == 0 {
		return 0, 0
	}
	return validation.ClampProgress(acc / weightSum), weightSum
}
