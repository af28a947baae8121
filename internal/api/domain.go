package api

import (
	"github.com/JaimeStill/haccp/internal/exports"
	"github.com/JaimeStill/haccp/internal/plans"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Plans   plans.System
	Exports exports.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	plansSystem := plans.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	exportsSystem := exports.New(
		runtime.Database.Connection(),
		plansSystem,
		runtime.Storage,
		runtime.Export,
		runtime.Logger,
	)

	return &Domain{
		Plans:   plansSystem,
		Exports: exportsSystem,
	}
}
