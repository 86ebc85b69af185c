package xerrors

import (
	"errors"
	"testing"
)

func TestGenErrorUnwrap(t *testing.T) {
	cause := errors.New("disk exploded")
	e := &GenError{Code: NumericalInstability, Stage: "erosion", Message: "bad", Err: cause}

	if !errors.Is(e, cause) {
		t.Fatalf("expected errors.Is to unwrap to cause")
	}
	if got := e.Error(); got == "" {
		t.Fatalf("expected non-empty Error() string")
	}
}

func TestNewInvalidConfig(t *testing.T) {
	e := NewInvalidConfig("width must be <= 8192")
	if e.Code != InvalidConfig {
		t.Fatalf("got code %q, want %q", e.Code, InvalidConfig)
	}
}

func TestNewNumericalInstability(t *testing.T) {
	e := NewNumericalInstability("glacial", 42)
	if e.Code != NumericalInstability {
		t.Fatalf("got code %q, want %q", e.Code, NumericalInstability)
	}
	if e.Stage != "glacial" {
		t.Fatalf("got stage %q, want glacial", e.Stage)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap("stress", nil) != nil {
		t.Fatalf("Wrap(stage, nil) must return nil")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("bad neighbor")
	wrapped := Wrap("plates", cause)
	if !errors.Is(wrapped, cause) {
		t.Fatalf("expected wrapped error to unwrap to cause")
	}
}

var tableTests = []struct {
	name string
	code Code
}{
	{"invalid config", InvalidConfig},
	{"degenerate terrain", DegenerateTerrain},
	{"numerical instability", NumericalInstability},
	{"budget exceeded", BudgetExceeded},
}

func TestCodesAreDistinct(t *testing.T) {
	seen := map[Code]bool{}
	for _, tt := range tableTests {
		t.Run(tt.name, func(t *testing.T) {
			if seen[tt.code] {
				t.Fatalf("duplicate code %q", tt.code)
			}
			seen[tt.code] = true
		})
	}
}
