package llm

import "context"

// Gate admits one completion call at a time. Local inference servers run a
// single slot, so every caller in the process shares one Gate.
type Gate struct {
	slot chan struct{}
}

// NewGate returns an open gate.
func NewGate() *Gate {
	return &Gate{slot: make(chan struct{}, 1)}
}

// Do runs fn once the gate is free. It gives up when ctx is done first.
func (g *Gate) Do(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-g.slot }()
	return fn(ctx)
}

// Wrap returns a Completer whose calls pass through g.
func (g *Gate) Wrap(c Completer) Completer {
	return CompleterFunc(func(ctx context.Context, prompt string, opts *CompletionOptions) (string, error) {
		return g.Do(ctx, func(ctx context.Context) (string, error) {
			return c.Complete(ctx, prompt, opts)
		})
	})
}
