// Package assemble turns a set of chunk files into one logically ordered
// event stream with unified run metadata.
package assemble

import "fmt"

// ConsistencyError is fatal: a later file disagrees with the run identity
// established by the first file. The run is never silently merged.
type ConsistencyError struct {
	// Path is the file whose header disagrees.
	Path string
	// Field is the disagreeing identity field (obs_id, sb_id, tel_id, camera).
	Field string
	// Want is the value established by the first file.
	Want any
	// Got is the value found in Path.
	Got any
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("run consistency violation in %s: %s = %v, expected %v",
		e.Path, e.Field, e.Got, e.Want)
}

// OutOfOrderError is fatal: the ordering key stopped increasing. Accepting
// it would corrupt downstream time-series analysis.
type OutOfOrderError struct {
	// Path is the file in which the violation was observed.
	Path string
	// PrevEventID is the last ordering key yielded before the violation.
	PrevEventID uint64
	// EventID is the offending ordering key.
	EventID uint64
	// Boundary is true when the violation is at a file boundary.
	Boundary bool
}

func (e *OutOfOrderError) Error() string {
	where := "within"
	if e.Boundary {
		where = "at boundary of"
	}
	return fmt.Sprintf("ordering violation %s %s: event id %d after %d",
		where, e.Path, e.EventID, e.PrevEventID)
}
