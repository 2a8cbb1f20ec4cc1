// Package shell contains the infrastructure glue shared by the feature slices:
// mapping between domain events and storable events, event metadata,
// the command handler contracts, and observability helpers.
//
// In Hexagonal Architecture terminology this is part of the 'adapter' layer,
// while the pure business logic lives in core and in each feature's Decide function.
package shell
