package service

import "fmt"

// Typed workflow errors. Handlers translate these to HTTP statuses and the
// batch runner maps them to per-item error_type codes, so every failure mode
// is distinguishable by type rather than by message text.

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type InsufficientStockError struct {
	Requested int
	Available int
	Pool      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock in %s pool: requested %d, available %d", e.Pool, e.Requested, e.Available)
}

type InvalidStateError struct {
	Expected string
	Actual   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: expected %s, got %s", e.Expected, e.Actual)
}

// AlreadyResolvedError rejects any further decision on a terminally decided
// item: terminal decisions are immutable.
type AlreadyResolvedError struct {
	Decision string
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("item already resolved with decision %s", e.Decision)
}

// ConcurrentModificationError means the caller acted on a stale read: the
// item moved between their observation and their write.
type ConcurrentModificationError struct {
	ObservedVersion int
	CurrentVersion  int
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("item modified concurrently: observed version %d, current version %d", e.ObservedVersion, e.CurrentVersion)
}

type PermissionScopeError struct {
	ActorRole string
	Level     string
}

func (e *PermissionScopeError) Error() string {
	return fmt.Sprintf("role %s may not act at %s", e.ActorRole, e.Level)
}
