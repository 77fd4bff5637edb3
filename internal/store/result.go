package store

// Status classifies the outcome of an index write.
type Status int

const (
	// StatusOK means the write was committed.
	StatusOK Status = iota
	// StatusDegraded means the index write failed and was logged; the index
	// may be stale but the caller's operation still succeeded.
	StatusDegraded
	// StatusFatal means the entity violated a mapper invariant.
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	case StatusFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// WriteResult is returned by every write. Err is set for degraded and fatal
// results.
type WriteResult struct {
	Status Status
	Err    error
}

// OK reports whether the write committed.
func (r WriteResult) OK() bool {
	return r.Status == StatusOK
}

// Ok is the committed result.
func Ok() WriteResult {
	return WriteResult{Status: StatusOK}
}

// Degraded wraps a swallowed index failure.
func Degraded(err error) WriteResult {
	return WriteResult{Status: StatusDegraded, Err: err}
}

// Fatal wraps a mapper invariant violation.
func Fatal(err error) WriteResult {
	return WriteResult{Status: StatusFatal, Err: err}
}

// Merge returns the worst of results; the first error at that status wins.
func Merge(results ...WriteResult) WriteResult {
	out := Ok()
	for _, r := range results {
		if r.Status > out.Status {
			out = r
		}
	}
	return out
}
