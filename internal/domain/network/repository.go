package network

import (
	"context"
	"fmt"

	"github.com/turtacn/MetaNet/pkg/errors"
)

// Repository loads and stores a whole network.  Implementations exist for
// YAML documents and for a Neo4j graph.
type Repository interface {
	// Load registers every stored component into reg.
	Load(ctx context.Context, reg *Registry) error

	// Save persists every component of reg.
	Save(ctx context.Context, reg *Registry) error
}

// Verify checks that every cross reference in reg resolves to a component of
// the right kind and that containment is acyclic.  It returns the first
// problem found, visiting components in id order.
func Verify(reg *Registry) error {
	for _, r := range reg.Reactions() {
		for _, sid := range r.SubstrateIDs().Union(r.ProductIDs()).Sorted() {
			if _, err := LookupSubstance(reg, sid); err != nil {
				return errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("reaction %d", r.ID()))
			}
		}
		for cid := range r.Directions() {
			if _, err := LookupCompartment(reg, cid); err != nil {
				return errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("reaction %d direction", r.ID()))
			}
		}
	}
	for _, c := range reg.Compartments() {
		if _, err := c.Reactions().Reactions(reg); err != nil {
			return errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("compartment %d", c.ID()))
		}
		for _, eid := range c.Enzymes().Sorted() {
			if _, err := LookupSubstance(reg, eid); err != nil {
				return errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("compartment %d enzyme", c.ID()))
			}
		}
		if _, err := c.ContainedCompartments(reg, true); err != nil {
			return err
		}
	}
	return nil
}
