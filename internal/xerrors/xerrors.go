// Package xerrors defines the terrain pipeline's error taxonomy.
//
// The pipeline has a narrow error surface: all work is in-memory and
// deterministic, so there are exactly four categories (see Code), not an
// open-ended hierarchy.
package xerrors

import "fmt"

// Code classifies a GenError per the pipeline's error taxonomy.
type Code string

const (
	// InvalidConfig means WorldConfig or ErosionConfig failed validation at
	// entry. Fatal to the call; nothing has run yet.
	InvalidConfig Code = "INVALID_CONFIG"
	// DegenerateTerrain means a stage produced a structurally valid but
	// reduced result (e.g. fewer plates than requested after seed
	// collisions). Non-fatal: callers see it via the progress callback, not
	// as a returned error.
	DegenerateTerrain Code = "DEGENERATE_TERRAIN"
	// NumericalInstability means a NaN or Inf entered the height field.
	// Fatal; carries the stage name and iteration index.
	NumericalInstability Code = "NUMERICAL_INSTABILITY"
	// BudgetExceeded means a caller-supplied wall-clock budget was exceeded
	// during erosion batching. Not an error returned from GenerateWorld —
	// the budget loop stops at a batch boundary and sets
	// WorldData.Truncated instead, without building a GenError.
	BudgetExceeded Code = "BUDGET_EXCEEDED"
)

// GenError is the terrain pipeline's error type. It always identifies the
// stage it occurred in and wraps the underlying cause, if any.
type GenError struct {
	Code    Code
	Stage   string
	Message string
	Err     error
}

func (e *GenError) Error() string {
	if e.Stage != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s[%s]: %s: %v", e.Code, e.Stage, e.Message, e.Err)
		}
		return fmt.Sprintf("%s[%s]: %s", e.Code, e.Stage, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *GenError) Unwrap() error { return e.Err }

// NewInvalidConfig reports a config validation failure.
func NewInvalidConfig(message string) *GenError {
	return &GenError{Code: InvalidConfig, Message: message}
}

// NewNumericalInstability reports a NaN/Inf detected mid-pipeline.
func NewNumericalInstability(stage string, iteration int) *GenError {
	return &GenError{
		Code:    NumericalInstability,
		Stage:   stage,
		Message: fmt.Sprintf("non-finite value detected at iteration %d", iteration),
	}
}

// NewDegenerateTerrain reports a non-fatal structural shortfall (e.g. a
// reduced plate count). Callers surface it through a progress callback
// rather than aborting the run.
func NewDegenerateTerrain(stage, message string) *GenError {
	return &GenError{Code: DegenerateTerrain, Stage: stage, Message: message}
}

// NewBudgetExceeded reports that a wall-clock budget was exhausted at a
// batch boundary.
func NewBudgetExceeded(stage string) *GenError {
	return &GenError{Code: BudgetExceeded, Stage: stage, Message: "wall-clock budget exceeded"}
}

// Wrap attaches stage context to an arbitrary error without reclassifying
// it, mirroring the fmt.Errorf("...: %w", err) pattern used at stage
// boundaries throughout the orchestrator.
func Wrap(stage string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("stage %s: %w", stage, err)
}
