package sim

import (
	"context"
	"sync"
)

// Ensemble runs independent propagators side by side, one goroutine each.
// Members must not share a vehicle.
type Ensemble struct {
	members []*Propagator
}

func NewEnsemble(members ...*Propagator) *Ensemble {
	return &Ensemble{members: members}
}

// Run returns the results in member order and the first error by member
// index.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(e.members))
	errs := make([]error, len(e.members))

	var wg sync.WaitGroup
	for i, p := range e.members {
		wg.Add(1)
		go func(idx int, p *Propagator) {
			defer wg.Done()
			results[idx], errs[idx] = p.Run(ctx, cfg)
		}(i, p)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}

	return results, nil
}
