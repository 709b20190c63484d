//go:build wakerslab

package waker

// Slab-indexed waker storage is declared but not implemented.
// Selecting the wakerslab build tag must fail the build instead of
// silently compiling a stub, so this file references an identifier
// that does not exist.
var _ = ErrSlabStorageNotImplemented_RemoveTheWakerslabBuildTag
