package main

import "github.com/sellbridge/nalda-sync/internal/commerce"

// commerceAdapter returns the commerce backend binding. The engine itself
// ships without one; each platform distribution replaces this file with a
// constructor for its own store adapter.
func commerceAdapter() commerce.Store {
	return nil
}
