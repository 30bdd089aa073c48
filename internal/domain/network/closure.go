package network

import (
	"fmt"

	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaNet/pkg/errors"
)

// ClosureResult is the outcome of a closure computation.
type ClosureResult struct {
	// Substances is the reachable substance set, seed included.
	Substances IDSet
	// Passes counts full passes over the reaction set, including the final
	// pass that added nothing.
	Passes int
}

// Added returns the substances that were not part of seed.
func (r ClosureResult) Added(seed IDSet) IDSet {
	return r.Substances.Difference(seed)
}

// ClosureOption configures a ClosureEngine.
type ClosureOption func(*ClosureEngine)

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) ClosureOption {
	return func(e *ClosureEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxPasses bounds the number of passes.  Zero means unbounded.
func WithMaxPasses(n int) ClosureOption {
	return func(e *ClosureEngine) {
		if n > 0 {
			e.maxPasses = n
		}
	}
}

// ClosureEngine computes the substances reachable from a seed by repeatedly
// firing the reactions enabled in a compartment.  It never mutates domain
// objects, so one engine may serve concurrent computations as long as the
// directory and reaction sets are not being modified.
type ClosureEngine struct {
	dir       Directory
	logger    logging.Logger
	maxPasses int
}

// NewClosureEngine returns an engine resolving ids through dir.
func NewClosureEngine(dir Directory, opts ...ClosureOption) *ClosureEngine {
	e := &ClosureEngine{dir: dir, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxPasses returns the configured pass ceiling, zero when unbounded.
func (e *ClosureEngine) MaxPasses() int {
	return e.maxPasses
}

// firing is a reaction reduced to what one pass needs.
type firing struct {
	id         ID
	forward    bool
	backward   bool
	substrates IDSet
	products   IDSet
}

// Closure returns the least superset of seed closed under the reactions of
// rs as they are enabled in compartment c.  A reaction fires forward when it
// is forward or bidirectional in c and all its substrates are present; it
// fires backward symmetrically.  A reaction without a direction entry for c
// never fires.
//
// Every id in rs must resolve to a reaction (NET_001, NET_004).  When a pass
// ceiling is set and the working set still grew in the last allowed pass the
// partial result is returned together with a NET_005 error.
func (e *ClosureEngine) Closure(seed IDSet, rs *ReactionSet, c *Compartment) (ClosureResult, error) {
	if c == nil {
		return ClosureResult{}, errors.NewValidationError("compartment", "compartment is required")
	}
	cid := c.ID()
	log := e.logger.With(logging.Int(logging.FieldCompartment, int(cid)))

	reactions, err := rs.Reactions(e.dir)
	if err != nil {
		return ClosureResult{}, errors.Wrap(err, errors.CodeUnknown,
			fmt.Sprintf("closure in compartment %d", cid))
	}
	fire := make([]firing, 0, len(reactions))
	for _, r := range reactions {
		f := firing{id: r.ID(), forward: r.FiresForwardIn(cid), backward: r.FiresBackwardIn(cid)}
		if !f.forward && !f.backward {
			continue
		}
		f.substrates, f.products = r.SubstrateIDs(), r.ProductIDs()
		fire = append(fire, f)
	}

	work := seed.Clone()
	if work == nil {
		work = make(IDSet)
	}
	result := ClosureResult{Substances: work}
	for {
		result.Passes++
		var fresh []ID
		for _, f := range fire {
			if f.forward && work.ContainsAll(f.substrates) {
				fresh = addFresh(work, f.products, fresh)
			}
			if f.backward && work.ContainsAll(f.products) {
				fresh = addFresh(work, f.substrates, fresh)
			}
		}
		log.Debug("closure pass",
			logging.Int(logging.FieldPass, result.Passes),
			logging.Int("size", len(work)),
			logging.Ints("added", NewIDSet(fresh...).Ints()))
		if len(fresh) == 0 {
			return result, nil
		}
		if e.maxPasses > 0 && result.Passes >= e.maxPasses {
			log.Warn("closure pass limit reached",
				logging.Int(logging.FieldPass, result.Passes),
				logging.Int("max_passes", e.maxPasses),
				logging.Int("size", len(work)))
			return result, errors.New(errors.ErrCodeClosurePassLimit, "closure pass limit exceeded").
				WithDetail(fmt.Sprintf("compartment=%d max_passes=%d", cid, e.maxPasses))
		}
	}
}

func addFresh(work, ids IDSet, fresh []ID) []ID {
	for id := range ids {
		if !work.Has(id) {
			work[id] = struct{}{}
			fresh = append(fresh, id)
		}
	}
	return fresh
}

// ClosureInCompartment computes the closure over the reactions hosted by c.
func (e *ClosureEngine) ClosureInCompartment(seed IDSet, c *Compartment) (ClosureResult, error) {
	if c == nil {
		return ClosureResult{}, errors.NewValidationError("compartment", "compartment is required")
	}
	return e.Closure(seed, c.Reactions(), c)
}
