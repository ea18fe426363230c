// Package runtime wires component collaborators together through a
// dependency-injection container instead of package-level singletons, the
// same shape the teacher repo uses (runtime.GetContainer().Invoke(...)).
// The composition root (cmd/server) does not route its ~20-collaborator
// object graph through this container — see DESIGN.md for why — but the
// container remains available to any future package that, like the
// teacher's embedder provider lookup, needs to hand out a concrete
// implementation to a caller that only knows an interface without a
// package-level singleton.
package runtime

import "go.uber.org/dig"

var container = dig.New()

// GetContainer returns the process-wide dig container. The composition root
// (cmd/server) does not Provide into it; it builds its collaborators with
// plain constructors, as the package doc says.
func GetContainer() *dig.Container { return container }

// Provide registers a constructor with the container, returning any wiring
// error immediately so misconfiguration fails at startup rather than at
// first use.
func Provide(constructor any) error {
	return container.Provide(constructor)
}

// Invoke resolves fn's parameters from the container and calls it.
func Invoke(fn any) error {
	return container.Invoke(fn)
}
