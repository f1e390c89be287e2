// Package evo exposes the descriptor engine to an external evolutionary
// driver: named mutation operators over the shared descriptor capability
// set, a registry of descriptor kinds, and a registry of operators. The
// driver picks operators by its own policy; operators mutate a descriptor in
// place and report infeasibility as sentinel errors the driver can match
// with errors.Is.
package evo

import (
	"errors"
	"math/rand"

	"evonas/internal/descriptor"
)

var (
	ErrShapeInfeasible = errors.New("mutation blocked by shape infeasibility")
	ErrLayerFloor      = errors.New("mutation blocked by minimum layer count")
	ErrNotApplicable   = errors.New("operator not applicable to descriptor kind")
)

type Operator interface {
	Name() string
	Apply(desc descriptor.Descriptor, rng *rand.Rand) error
}

// ContextualOperator can declare whether it is applicable to a descriptor
// kind. The driver uses this to avoid selecting incompatible operators.
type ContextualOperator interface {
	Operator
	Applicable(desc descriptor.Descriptor) bool
}

// statusErr maps a structural mutation status to the operator error
// contract. A non-nil error means "select a different mutation", never a
// fatal condition.
func statusErr(s descriptor.Status) error {
	switch s {
	case descriptor.StatusOK:
		return nil
	case descriptor.StatusLayerFloor:
		return ErrLayerFloor
	default:
		return ErrShapeInfeasible
	}
}
