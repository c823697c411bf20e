package flight

import "errors"

// FailureStrategy decides whether a failed entry is dropped so that the next
// Get recomputes it (true), or retained so that the failure is replayed (false).
type FailureStrategy[K comparable] func(key K, err error) bool

// ShouldEvict reports the strategy decision; a nil strategy retains.
func (s FailureStrategy[K]) ShouldEvict(key K, err error) bool {
	if s == nil {
		return false
	}
	return s(key, err)
}

// AlwaysRetain keeps every failure cached (negative caching).
func AlwaysRetain[K comparable]() FailureStrategy[K] {
	return func(K, error) bool { return false }
}

// AlwaysRemove drops every failed entry.
func AlwaysRemove[K comparable]() FailureStrategy[K] {
	return func(K, error) bool { return true }
}

// RemoveOn drops failures matching target via errors.Is.
func RemoveOn[K comparable](target error) FailureStrategy[K] {
	return func(_ K, err error) bool {
		return errors.Is(err, target)
	}
}

// RemoveOnType drops failures whose chain contains an error of type E.
func RemoveOnType[K comparable, E error]() FailureStrategy[K] {
	return func(_ K, err error) bool {
		var target E
		return errors.As(err, &target)
	}
}

// Not inverts a strategy.
func Not[K comparable](s FailureStrategy[K]) FailureStrategy[K] {
	return func(key K, err error) bool {
		return !s.ShouldEvict(key, err)
	}
}

// And evicts only when every strategy evicts. With no strategies it evicts.
func And[K comparable](strategies ...FailureStrategy[K]) FailureStrategy[K] {
	return func(key K, err error) bool {
		for _, s := range strategies {
			if !s.ShouldEvict(key, err) {
				return false
			}
		}
		return true
	}
}

// Or evicts when any strategy evicts.
func Or[K comparable](strategies ...FailureStrategy[K]) FailureStrategy[K] {
	return func(key K, err error) bool {
		for _, s := range strategies {
			if s.ShouldEvict(key, err) {
				return true
			}
		}
		return false
	}
}
