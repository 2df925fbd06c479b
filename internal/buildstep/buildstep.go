// Package buildstep implements the deferred build-step queue: a script
// class like Cc doesn't compile anything the moment it's instantiated, it
// enqueues a build step here, and the queue is drained by internal/pool
// once the whole build.fl has finished running.
//
// Consecutive steps sharing the same unique key get merged into one step
// carrying all their data, so a script loop that calls `Cc().compile(f)`
// once per source file in one translation unit collapses into a single
// multi-file compile step instead of one process spawn per file.
package buildstep

import (
	"sync"

	"github.com/bobsh/bob/internal/invariant"
)

// Runner performs one build step's actual work given all the data entries
// merged into it. Implementations live in internal/hostlib (Cc, Linker,
// etc).
type Runner func(data []any) error

// Step is one queued (possibly merged) build step.
type Step struct {
	Unique uint64
	Name   string
	Run    Runner
	Data   []any
}

// Queue holds the ordered, merge-as-you-go build step list built up while a
// build.fl script runs. It is safe for concurrent Add calls since a
// script's host-class instantiations may themselves run on worker
// goroutines in future extensions, though today script execution is single
// threaded.
type Queue struct {
	mu    sync.Mutex
	steps []*Step
}

// NewQueue creates an empty build-step queue.
func NewQueue() *Queue { return &Queue{} }

// Add enqueues one unit of data under key unique. If the immediately
// preceding step in the queue shares the same unique key, data is appended
// to it instead of starting a new step. Only the tail of the queue is
// considered for merging, never the whole list.
func (q *Queue) Add(unique uint64, name string, run Runner, data any) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n := len(q.steps); n > 0 {
		last := q.steps[n-1]
		if last.Unique == unique {
			invariant.Invariant(last.Name == name,
				"build step merge key %d reused across %q and %q", unique, last.Name, name)
			last.Data = append(last.Data, data)
			return
		}
	}

	q.steps = append(q.steps, &Step{
		Unique: unique,
		Name:   name,
		Run:    run,
		Data:   []any{data},
	})
}

// Steps returns a snapshot of the queued steps in enqueue order.
func (q *Queue) Steps() []*Step {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Step, len(q.steps))
	copy(out, q.steps)
	return out
}

// Len reports how many (merged) steps are queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.steps)
}
