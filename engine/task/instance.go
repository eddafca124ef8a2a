package task

// Instance is one declared unit of work within a pipeline step. It is
// supplied by the surrounding step-execution context and immutable for the
// duration of a run.
type Instance struct {
	// Task names the definition this instance runs.
	Task string `json:"task"              yaml:"task"`
	// DisplayName is the human-facing name published into the variable store.
	DisplayName string `json:"display_name"      yaml:"display_name"`
	Enabled     bool   `json:"enabled"           yaml:"enabled"`
	AlwaysRun   bool   `json:"always_run"        yaml:"always_run"`
	// ContinueOnError marks the step non-fatal for the enclosing job; the
	// dispatcher only carries the flag, policy lives in the job runner.
	ContinueOnError bool `json:"continue_on_error" yaml:"continue_on_error"`
	// Inputs are the instance-level input overrides, raw and unexpanded.
	Inputs map[string]string `json:"inputs,omitempty"  yaml:"inputs,omitempty"`
}
