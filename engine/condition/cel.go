package condition

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// ExpressionEvaluatorName is the condition key handled by the CEL evaluator.
const ExpressionEvaluatorName = "expression"

// CELEvaluator evaluates condition values as CEL boolean expressions against
// a fixed capability context, e.g. `capabilities.os == "linux"`.
type CELEvaluator struct {
	env          *cel.Env
	capabilities map[string]any
}

func NewCELEvaluator(capabilities map[string]any) (*CELEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("capabilities", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	if capabilities == nil {
		capabilities = make(map[string]any)
	}
	return &CELEvaluator{env: env, capabilities: capabilities}, nil
}

func (e *CELEvaluator) Name() string {
	return ExpressionEvaluatorName
}

func (e *CELEvaluator) IsConditionMatch(ctx context.Context, value string) (bool, error) {
	ast, issues := e.env.Compile(value)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("failed to compile CEL expression %q: %w", value, issues.Err())
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("failed to build CEL program: %w", err)
	}
	out, _, err := program.ContextEval(ctx, map[string]any{
		"capabilities": e.capabilities,
	})
	if err != nil {
		return false, fmt.Errorf("CEL evaluation failed: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression %q did not evaluate to a boolean", value)
	}
	return result, nil
}

// CapabilityEvaluator satisfies a condition when the named capability is
// present (and not explicitly "false") in the host capability set.
type CapabilityEvaluator struct {
	capabilities map[string]string
}

func NewCapabilityEvaluator(capabilities map[string]string) *CapabilityEvaluator {
	normalized := make(map[string]string, len(capabilities))
	for name, value := range capabilities {
		normalized[registryKey(name)] = value
	}
	return &CapabilityEvaluator{capabilities: normalized}
}

func (e *CapabilityEvaluator) Name() string {
	return "capability"
}

func (e *CapabilityEvaluator) IsConditionMatch(_ context.Context, value string) (bool, error) {
	setting, ok := e.capabilities[registryKey(value)]
	if !ok {
		return false, nil
	}
	return !strings.EqualFold(strings.TrimSpace(setting), "false"), nil
}
