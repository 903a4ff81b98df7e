// Package supersede provides cancellation tokens for in-flight bulk loads.
//
// At most one load is allowed to mutate the synchronized collection: issuing
// a new load supersedes every earlier one. Tokens are numbered from an atomic
// counter; a token is superseded when a higher-numbered token exists. The
// check happens once, when the underlying fetch resolves — there is no
// cooperative mid-flight cancellation of the network call, only suppression
// of its effect on state.
//
// This is an explicit supersede discipline rather than "last response wins by
// arrival order": resolution order of two loads is not guaranteed to match
// their issue order.
package supersede

import "sync/atomic"

// Canceller issues supersession tokens. The zero value is ready to use.
type Canceller struct {
	gen atomic.Uint64
}

// Token represents one issued load request.
type Token struct {
	c   *Canceller
	gen uint64
}

// Next issues a new token, superseding all previously issued tokens.
func (c *Canceller) Next() Token {
	return Token{c: c, gen: c.gen.Add(1)}
}

// CancelAll supersedes every outstanding token without issuing a new one.
func (c *Canceller) CancelAll() {
	c.gen.Add(1)
}

// Superseded reports whether a newer token has been issued since this one.
func (t Token) Superseded() bool {
	if t.c == nil {
		return true
	}

	return t.c.gen.Load() != t.gen
}
