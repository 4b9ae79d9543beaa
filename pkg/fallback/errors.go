package fallback

import (
	"fmt"
	"strings"

	"github.com/cecil-the-coder/llm-fallback/pkg/types"
)

// Attempt records how one provider in the chain was consumed during a single
// generation: either skipped because it was unavailable, or attempted and
// failed with Err. Successful attempts are never recorded; they end the scan.
type Attempt struct {
	Provider string
	Type     types.ProviderType
	Err      error
	Skipped  bool
}

// AllProvidersFailedError is the terminal error returned when the whole chain
// was consumed without producing text. It is raised only by the Router, and
// only after every provider has been considered exactly once.
type AllProvidersFailedError struct {
	Attempts []Attempt
}

// Failed returns how many providers were actually called and failed.
func (e *AllProvidersFailedError) Failed() int {
	n := 0
	for _, a := range e.Attempts {
		if !a.Skipped {
			n++
		}
	}
	return n
}

// SkippedCount returns how many providers were passed over without a call.
func (e *AllProvidersFailedError) SkippedCount() int {
	n := 0
	for _, a := range e.Attempts {
		if a.Skipped {
			n++
		}
	}
	return n
}

func (e *AllProvidersFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all providers failed (%d attempted, %d skipped)", e.Failed(), e.SkippedCount())
	for i, a := range e.Attempts {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		if a.Skipped {
			fmt.Fprintf(&b, "%s: skipped (unavailable)", a.Provider)
		} else {
			fmt.Fprintf(&b, "%s: %v", a.Provider, a.Err)
		}
	}
	return b.String()
}

// Unwrap exposes the attempt errors so callers can inspect individual causes
// with errors.Is and errors.As.
func (e *AllProvidersFailedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}
