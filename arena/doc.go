// Package arena batches the lifetime of short-lived foreign allocations.
//
// An Arena is a scope: while it is started it sits on a Stack, and objects
// created without an explicit arena register with the Stack's top entry.
// Stop removes the arena from the stack and releases every registered member
// that was not escaped.
//
//	a := arena.New()
//	err := a.With(func(a *arena.Arena) error {
//	    v, err := memory.NewView[uint8](heap, 64) // registers with a
//	    ...
//	})
//	// v is released here
//
// # Stop semantics
//
// Stop always performs one full release pass and clears the registered set,
// even when the arena was started more times than it was stopped. Nesting
// only governs how many stack entries the arena occupies.
//
// # Escape and Transfer
//
// Escape marks a member so release passes skip it; the caller then owns it.
// Transfer moves a member into another arena and rebinds it when the member
// implements Rebinder.
//
// # Process-wide stack
//
// Default returns the process-wide Stack used by Current and New. It is
// plain mutable state and assumes a single logical flow at a time. Code that
// needs isolated scopes creates its own Stack, or threads an arena through a
// context with NewContext.
package arena
