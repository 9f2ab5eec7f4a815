//go:build !z3

package satz3

import (
	"fmt"

	"github.com/newtron-network/netslice/pkg/smt"
)

// NewSolver reports that this binary was built without Z3 support. The
// real implementation lives in z3solver.go, built only with -tags z3 since
// it cgo-links against libz3.
func NewSolver() (smt.Solver, error) {
	return nil, fmt.Errorf("satz3: built without z3 support; rebuild with -tags z3")
}
