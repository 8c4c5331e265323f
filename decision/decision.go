// Package decision implements the phase transition policies.
//
// Keyword is the deterministic policy and is always available. Analyzer
// wraps an external [scribe.Analyzer] and delegates to a fallback policy
// whenever the analyzer errors, times out, returns unusable output, or its
// circuit breaker is open.
package decision

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/scribe"
)

// Interface compliance checks.
var (
	_ scribe.Policy = (*Keyword)(nil)
	_ scribe.Policy = (*Analyzer)(nil)
)

// Keyword advances when the input contains one of the current phase's
// keywords and picks questions uniformly from the phase prompts.
type Keyword struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// KeywordOption configures a [Keyword] policy.
type KeywordOption func(*Keyword)

// WithSeed makes question selection reproducible.
func WithSeed(seed uint64) KeywordOption {
	return func(k *Keyword) { k.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// NewKeyword creates a [Keyword] policy seeded from the clock unless
// WithSeed is given.
func NewKeyword(opts ...KeywordOption) *Keyword {
	now := uint64(time.Now().UnixNano())
	k := &Keyword{rng: rand.New(rand.NewPCG(now, now>>1))}
	for _, o := range opts {
		o(k)
	}
	return k
}

// Decide reports Advance when the lower-cased input contains a keyword of
// the current phase.
func (k *Keyword) Decide(_ context.Context, in scribe.DecisionInput) scribe.Decision {
	return scribe.Decision{
		Advance: MatchesKeyword(in.Phase, in.Text),
		Source:  scribe.SourceKeyword,
	}
}

// SelectQuestion returns a random prompt of the phase.
func (k *Keyword) SelectQuestion(_ context.Context, in scribe.DecisionInput) scribe.QuestionChoice {
	prompts := in.Phase.Prompts()
	k.mu.Lock()
	i := k.rng.IntN(len(prompts))
	k.mu.Unlock()
	return scribe.QuestionChoice{Text: prompts[i], Source: scribe.SourcePrompts}
}

// MatchesKeyword reports whether text contains any transition keyword of p.
func MatchesKeyword(p scribe.Phase, text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range p.Keywords() {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
