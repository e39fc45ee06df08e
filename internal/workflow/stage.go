// Package workflow defines the fixed stage state machine for maintenance
// requests. The transition table is process-wide immutable configuration;
// every legality decision in the system goes through it.
package workflow

import (
	"fmt"
	"sort"

	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

// transitions maps each stage to the stages it may move to.
// A request may always "move" to its current stage (no-op).
var transitions = map[models.RequestStage][]models.RequestStage{
	models.StageNew:        {models.StageInProgress},
	models.StageInProgress: {models.StageRepaired, models.StageNew},
	models.StageRepaired:   {models.StageScrap},
	models.StageScrap:      {},
}

// Valid reports whether the stage belongs to the fixed stage set.
func Valid(stage models.RequestStage) bool {
	_, ok := transitions[stage]
	return ok
}

// AllowedNext returns the stages reachable from the current stage, sorted for
// stable error messages. The slice is a copy; callers may not mutate the table.
func AllowedNext(current models.RequestStage) []models.RequestStage {
	next := transitions[current]
	out := make([]models.RequestStage, len(next))
	copy(out, next)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsTerminal reports whether no outgoing transitions exist for the stage.
func IsTerminal(stage models.RequestStage) bool {
	return Valid(stage) && len(transitions[stage]) == 0
}

// Validate checks the (current, target) pair against the transition table.
// A same-stage pair is always permitted. It returns a typed error carrying
// the allowed next set so callers can surface it unchanged.
func Validate(current, target models.RequestStage) error {
	if current == target {
		return nil
	}
	if !Valid(target) {
		return appErrors.Clone(appErrors.ErrInvalidStage,
			fmt.Sprintf("invalid stage %q, must be one of: new, in_progress, repaired, scrap", target))
	}
	if !Valid(current) {
		return appErrors.Clone(appErrors.ErrInvalidStage,
			fmt.Sprintf("invalid current stage %q", current))
	}
	for _, allowed := range transitions[current] {
		if allowed == target {
			return nil
		}
	}
	allowed := AllowedNext(current)
	if len(allowed) == 0 {
		return appErrors.Clone(appErrors.ErrStageTransition,
			fmt.Sprintf("cannot transition from %q to %q: %q is terminal", current, target, current))
	}
	return appErrors.Clone(appErrors.ErrStageTransition,
		fmt.Sprintf("cannot transition from %q to %q, allowed: %v", current, target, allowed))
}
