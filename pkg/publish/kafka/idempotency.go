package kafka

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// versionDedupe remembers the last published version per dataset so a
// replayed or out-of-order summary is not published again.
type versionDedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, uint64]
}

func newVersionDedupe(size int) *versionDedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, uint64](size)
	return &versionDedupe{lru: c}
}

// newer reports whether v is greater than the last recorded version.
// Version 0 is always newer.
func (d *versionDedupe) newer(key string, v uint64) bool {
	if v == 0 {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.lru.Get(key); ok && v <= last {
		return false
	}
	return true
}

func (d *versionDedupe) record(key string, v uint64) {
	if v == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.lru.Get(key); ok && v <= last {
		return
	}
	d.lru.Add(key, v)
}
