package repository

// Package repository contains data access abstractions for the signing
// workflow aggregate. Implementations live in subpackages (e.g. postgres)
// and hold strictly persistence operations; lifecycle rules stay in the
// engine packages.

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
