// Package selector reduces a task's declared execution candidates to exactly
// one handler.
package selector

import (
	"context"
	"fmt"
	"sort"

	"github.com/taskweave/taskweave/engine/condition"
	"github.com/taskweave/taskweave/engine/core"
	"github.com/taskweave/taskweave/engine/task"
	"github.com/taskweave/taskweave/pkg/logger"
)

// Select picks one handler out of the execution declaration. With condition
// support enabled, candidates are filtered by their condition sets; otherwise
// a static platform/priority ordering decides. Selection is deterministic
// for fixed inputs.
func Select(
	ctx context.Context,
	execution *task.Execution,
	platform core.Platform,
	evaluators *condition.Registry,
) (*task.HandlerData, error) {
	if execution == nil || len(execution.Handlers) == 0 {
		return nil, noMatchingHandler(platform)
	}
	if execution.SupportsConditions {
		return selectByCondition(ctx, execution.Handlers, platform, evaluators)
	}
	return selectStatic(ctx, execution.Handlers, platform), nil
}

// selectByCondition qualifies every candidate whose conditions all hold and
// returns the qualifier with the lowest priority, first-seen on ties.
// Candidates without conditions never qualify in this mode.
func selectByCondition(
	ctx context.Context,
	handlers []*task.HandlerData,
	platform core.Platform,
	evaluators *condition.Registry,
) (*task.HandlerData, error) {
	log := logger.FromContext(ctx)
	var winner *task.HandlerData
	for _, handler := range handlers {
		if len(handler.Conditions) == 0 {
			log.Debug("skipping unconditional candidate in condition mode", "kind", handler.Kind)
			continue
		}
		qualified, err := conditionsHold(ctx, handler, evaluators)
		if err != nil {
			return nil, err
		}
		if !qualified {
			continue
		}
		if winner == nil || handler.Priority < winner.Priority {
			winner = handler
		}
	}
	if winner == nil {
		return nil, noMatchingHandler(platform)
	}
	log.Debug("selected handler by condition", "kind", winner.Kind, "priority", winner.Priority)
	return winner, nil
}

func conditionsHold(ctx context.Context, handler *task.HandlerData, evaluators *condition.Registry) (bool, error) {
	for _, key := range sortedKeys(handler.Conditions) {
		if evaluators == nil {
			return false, unknownEvaluator(key, handler.Kind)
		}
		evaluator, ok := evaluators.Lookup(key)
		if !ok {
			return false, unknownEvaluator(key, handler.Kind)
		}
		matched, err := evaluator.IsConditionMatch(ctx, handler.Conditions[key])
		if err != nil {
			return false, fmt.Errorf("condition %q on handler %q failed to evaluate: %w", key, handler.Kind, err)
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

// selectStatic orders candidates by platform preference, then priority, and
// takes the first. The sort is stable so declaration order breaks ties.
func selectStatic(ctx context.Context, handlers []*task.HandlerData, platform core.Platform) *task.HandlerData {
	ordered := make([]*task.HandlerData, len(handlers))
	copy(ordered, handlers)
	sort.SliceStable(ordered, func(i, j int) bool {
		iPreferred := ordered[i].Preferred(platform)
		jPreferred := ordered[j].Preferred(platform)
		if iPreferred != jPreferred {
			return iPreferred
		}
		return ordered[i].Priority < ordered[j].Priority
	})
	winner := ordered[0]
	logger.FromContext(ctx).Debug("selected handler statically",
		"kind", winner.Kind,
		"priority", winner.Priority,
		"platform_preferred", winner.Preferred(platform),
	)
	return winner
}

func sortedKeys(conditions map[string]string) []string {
	keys := make([]string, 0, len(conditions))
	for key := range conditions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func noMatchingHandler(platform core.Platform) error {
	supported := task.SupportedKinds(platform)
	kinds := make([]string, 0, len(supported))
	for _, kind := range supported {
		kinds = append(kinds, kind.String())
	}
	return core.NewError(
		fmt.Errorf("no handler qualified for platform %s", platform),
		task.ErrCodeNoMatchingHandler,
		map[string]any{
			"platform":        platform.String(),
			"supported_kinds": kinds,
		},
	)
}

func unknownEvaluator(key string, kind task.Kind) error {
	return core.NewError(
		fmt.Errorf("no condition evaluator registered for key %q", key),
		task.ErrCodeUnknownEvaluator,
		map[string]any{
			"condition": key,
			"kind":      kind.String(),
		},
	)
}
