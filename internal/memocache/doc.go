// Package memocache provides a generic expiring memoizer for ephemeral data.
//
// ExpiringCache wraps producer functions so repeated invocations with the same
// call key inside a configurable time-to-live return the previously computed
// value without re-invoking the producer. The store is guarded by a mutex and
// grows without bound until Clear is called.
package memocache
