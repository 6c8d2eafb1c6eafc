// Package compilationcache persists compiled functions across processes.
package compilationcache

import (
	"crypto/sha256"
	"io"
)

// Cache is the interface for compilation caches. Content is opaque: the
// compiler serializes a compiled function into it and validates it on the
// way back, so an implementation only stores and returns bytes.
//
// Since these methods are concurrently accessed, the implementations must be Goroutine-safe.
//
// See NewFileCache for the example implementation.
type Cache interface {
	// Get returns the content passed to Add for key. Returns ok=true if the
	// content was found. In the case of not-found, this returns ok=false with
	// err=nil. The caller closes content.
	Get(key Key) (content io.ReadCloser, ok bool, err error)
	// Add stores content under key. It must be returned as-is by Get.
	Add(key Key, content io.Reader) (err error)
	// Delete purges the entry of key, e.g. when Get returned content written
	// by another version of this module. Deleting an absent key is not an error.
	Delete(key Key) (err error)
}

// Key represents the 256-bit unique identifier assigned to each cache content.
type Key = [sha256.Size]byte
