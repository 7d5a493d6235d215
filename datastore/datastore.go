// Package datastore holds paging options shared by the stores.
package datastore

type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultLimit caps unbounded listings; the key pool and token registry
// are small, so hitting it means a runaway caller.
const DefaultLimit = 1000

// ParseListOptions normalizes raw query values. Zero means the default
// cap, negative limit means everything.
func ParseListOptions(limit, offset int) ListOptions {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 {
		limit = -1
		offset = 0
	}
	if offset < 0 {
		offset = 0
	}
	return ListOptions{Limit: limit, Offset: offset}
}
