package forecast

import (
	"fmt"
	"time"
)

// InsufficientDataError reports a segment with too few valid observations to
// fit. Callers skip the segment; it never aborts a multi-segment run.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d valid observations, need at least %d", e.Have, e.Need)
}

// FitError reports a numerical failure inside model fitting. The segment
// yields no predictions; other segments are unaffected.
type FitError struct {
	Err error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("model fit: %v", e.Err)
}

func (e *FitError) Unwrap() error {
	return e.Err
}

// InvalidRangeError reports a prediction range whose end precedes its start.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid prediction range: end %s precedes start %s",
		e.End.Format("2006-01-02"), e.Start.Format("2006-01-02"))
}
