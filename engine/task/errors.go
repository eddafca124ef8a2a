package task

const (
	// ErrCodeNoMatchingHandler signals that no candidate handler qualified
	// on the current platform.
	ErrCodeNoMatchingHandler = "NO_MATCHING_HANDLER"
	// ErrCodeUnknownEvaluator signals a condition key with no registered
	// evaluator behind it.
	ErrCodeUnknownEvaluator = "UNKNOWN_CONDITION_EVALUATOR"
	// ErrCodeInvalidDispatcherState signals a missing required collaborator.
	ErrCodeInvalidDispatcherState = "INVALID_DISPATCHER_STATE"
	// ErrCodeDefinitionLoad signals the task manager could not produce a
	// definition for the instance.
	ErrCodeDefinitionLoad = "DEFINITION_LOAD_FAILED"
	// ErrCodeUnsupportedKind signals the handler factory has no construction
	// path for the selected kind.
	ErrCodeUnsupportedKind = "UNSUPPORTED_HANDLER_KIND"
)
