package voting

import (
	"context"
	"fmt"
)

// execute runs script against the surface and marks id executed. The
// executing marker is held for the whole batch so a callback into the engine
// for the same proposal fails instead of running the script twice.
func (e *Engine) execute(ctx context.Context, id uint64, script []byte) error {
	if e.executing[id] {
		return ErrProposalExecuting
	}
	actions, err := DecodeScript(script)
	if err != nil {
		e.metrics.executionFailures.Inc()
		return fmt.Errorf("%w: %w", ErrActionExecutionFailed, err)
	}

	e.executing[id] = true
	defer delete(e.executing, id)

	snap := e.surface.Snapshot()
	for i, a := range actions {
		if err = e.surface.Call(ctx, a); err != nil {
			e.surface.RevertToSnapshot(snap)
			e.metrics.executionFailures.Inc()
			e.logger.Info("script action failed", "id", id, "action", i, "to", a.To, "err", err)
			return fmt.Errorf("%w: action %d to %s: %w", ErrActionExecutionFailed, i, a.To, err)
		}
	}

	// actions may have touched the proposal through the engine; reload it
	p, ok := e.store.Proposal(id)
	if !ok {
		return ErrProposalNotFound
	}
	p.Executed = true
	e.store.putProposal(p)
	e.emit(EventExecuteVote{ID: id})
	e.observe(e.metrics.executions.Inc)
	e.logger.Info("vote executed", "id", id, "actions", len(actions))
	return nil
}
