// Package batch provides a generic slice partitioner used to split outbound
// message sets into transport-sized chunks.
package batch

import "errors"

var ErrInvalidChunkSize = errors.New("invalid chunk size: must be greater than 0")

// Chunks splits items into consecutive chunks of at most size elements.
//
// The chunks share backing storage with items and preserve order: the
// concatenation of all chunks is exactly items. Every chunk is non-empty and
// only the last chunk may be shorter than size.
//
// A size of zero or less returns ErrInvalidChunkSize.
func Chunks[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if len(items) == 0 {
		return nil, nil
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for size < len(items) {
		chunks = append(chunks, items[:size:size])
		items = items[size:]
	}
	return append(chunks, items), nil
}
