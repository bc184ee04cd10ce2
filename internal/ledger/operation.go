package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// OperationKind names an asynchronous mutation.
type OperationKind string

const (
	OperationDeposit  OperationKind = "deposit"
	OperationWithdraw OperationKind = "withdraw"
	OperationTransfer OperationKind = "transfer"
)

// Status tracks the progress of an operation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Operation is the handle returned for an accepted mutation. It completes
// once the mutation has been applied or rejected by a worker.
type Operation struct {
	id          string
	kind        OperationKind
	submittedAt time.Time
	done        chan struct{}

	mu          sync.RWMutex
	status      Status
	err         error
	completedAt time.Time
}

func newOperation(kind OperationKind, at time.Time) *Operation {
	return &Operation{
		id:          uuid.NewString(),
		kind:        kind,
		submittedAt: at,
		done:        make(chan struct{}),
		status:      StatusPending,
	}
}

// ID returns the operation identifier.
func (o *Operation) ID() string { return o.id }

// Kind returns the mutation type.
func (o *Operation) Kind() OperationKind { return o.kind }

// Done is closed when the operation completes.
func (o *Operation) Done() <-chan struct{} { return o.done }

// Wait blocks until the operation completes or ctx ends. It returns the
// mutation's error, or the context error if ctx ended first.
func (o *Operation) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the failure of a completed operation, nil otherwise.
func (o *Operation) Err() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.err
}

// Status returns the current status.
func (o *Operation) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

func (o *Operation) complete(err error, at time.Time) {
	o.mu.Lock()
	o.err = err
	o.completedAt = at
	if err != nil {
		o.status = StatusFailed
	} else {
		o.status = StatusSucceeded
	}
	o.mu.Unlock()
	close(o.done)
}

// OperationView is a point-in-time snapshot of an operation.
type OperationView struct {
	ID          string        `json:"operationId"`
	Kind        OperationKind `json:"kind"`
	Status      Status        `json:"status"`
	Error       string        `json:"error,omitempty"`
	SubmittedAt time.Time     `json:"submittedAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// View snapshots the operation.
func (o *Operation) View() OperationView {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v := OperationView{
		ID:          o.id,
		Kind:        o.kind,
		Status:      o.status,
		SubmittedAt: o.submittedAt,
	}
	if o.err != nil {
		v.Error = o.err.Error()
	}
	if o.status != StatusPending {
		at := o.completedAt
		v.CompletedAt = &at
	}
	return v
}

// registry keeps recent operations for polling. Once it holds more than
// limit entries the oldest completed ones are evicted; pending operations
// are never dropped.
type registry struct {
	mu    sync.Mutex
	limit int
	byID  map[string]*Operation
	order []string
}

func newRegistry(limit int) *registry {
	if limit <= 0 {
		limit = 1
	}
	return &registry{limit: limit, byID: make(map[string]*Operation)}
}

func (r *registry) add(op *Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[op.id] = op
	r.order = append(r.order, op.id)
	r.evictLocked()
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *registry) get(id string) (*Operation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.byID[id]
	return op, ok
}

func (r *registry) evictLocked() {
	for i := 0; len(r.byID) > r.limit && i < len(r.order); {
		id := r.order[i]
		if r.byID[id].Status() == StatusPending {
			i++
			continue
		}
		delete(r.byID, id)
		r.order = append(r.order[:i], r.order[i+1:]...)
	}
}
