package index

import "errors"

var (
	ErrStoreUnreachable  = errors.New("vector store unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
