// Package kv is a small namespaced key-value abstraction for client-local state.
package kv

import "errors"

var ErrNotFound = errors.New("key not found")

// Store keeps opaque values under string keys inside one namespace.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	// Rename moves the value stored under from to to, replacing any value
	// already stored there. A missing from returns ErrNotFound.
	Rename(from, to string) error
	Keys() ([]string, error)
}
