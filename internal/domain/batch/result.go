package batch

import "github.com/kailas-cloud/georecon/internal/domain/candidate"

// ItemStatus is the processing outcome of a single query in a batch.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of one query of a reconciliation batch.
type Result struct {
	key        string
	status     ItemStatus
	candidates []candidate.Candidate
	err        error
}

// NewOK creates a successful result. A nil candidate list is stored as empty.
func NewOK(key string, cands []candidate.Candidate) Result {
	if cands == nil {
		cands = []candidate.Candidate{}
	}
	return Result{key: key, status: StatusOK, candidates: cands}
}

// NewError creates a failed result with no candidates.
func NewError(key string, err error) Result {
	return Result{key: key, status: StatusError, candidates: []candidate.Candidate{}, err: err}
}

// Key returns the caller-supplied query key.
func (r Result) Key() string { return r.key }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Candidates returns the ranked candidates (never nil).
func (r Result) Candidates() []candidate.Candidate { return r.candidates }

// Err returns the per-query error, if any.
func (r Result) Err() error { return r.err }
