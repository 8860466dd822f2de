package voting

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func (e *Engine) newDelegateVote(ctx context.Context, sender common.Address, script []byte, metadata string, castVote, executesIfDecided bool) (uint64, error) {
	// malformed scripts are rejected up front so nothing can be stored that
	// could never execute
	if _, err := DecodeScript(script); err != nil {
		return 0, err
	}
	p, err := e.createProposal(ctx, sender, common.CopyBytes(script), metadata)
	if err != nil {
		return 0, err
	}
	if !castVote {
		return p.ID, nil
	}
	w, err := e.effectiveWeight(ctx, p, sender)
	if err != nil {
		return 0, err
	}
	if w.IsZero() {
		return p.ID, nil
	}
	if err = e.castDelegateVote(ctx, p.ID, sender, true, executesIfDecided); err != nil {
		return 0, err
	}
	return p.ID, nil
}

type pooledWeight struct {
	who    common.Address
	weight *uint256.Int
}

// unpooled collects the snapshot power of delegate's current delegators that
// neither voted on p themselves nor are already counted for another delegate.
func (e *Engine) unpooled(ctx context.Context, p *Proposal, delegate common.Address) ([]pooledWeight, *uint256.Int, error) {
	var list []pooledWeight
	sum := new(uint256.Int)
	for _, who := range e.store.Delegators(delegate) {
		if r, ok := e.store.Voter(p.ID, who); ok && r.State != Absent {
			continue
		}
		if _, ok := e.store.Attribution(p.ID, who); ok {
			continue
		}
		w, err := e.oracle.PowerAt(ctx, who, p.SnapshotBlock)
		if err != nil {
			return nil, nil, err
		}
		if w == nil || w.IsZero() {
			continue
		}
		if _, overflow := sum.AddOverflow(sum, w); overflow {
			return nil, nil, ErrArithmeticOverflow
		}
		list = append(list, pooledWeight{who: who, weight: w})
	}
	return list, sum, nil
}

// effectiveWeight is what a vote by voter on p would count: its own snapshot
// balance, the delegators already counted with its vote and those it would
// pick up now.
func (e *Engine) effectiveWeight(ctx context.Context, p *Proposal, voter common.Address) (*uint256.Int, error) {
	own, err := e.oracle.PowerAt(ctx, voter, p.SnapshotBlock)
	if err != nil {
		return nil, err
	}
	w := new(uint256.Int)
	if own != nil {
		w.Set(own)
	}
	if rec, ok := e.store.Voter(p.ID, voter); ok && rec.State != Absent && rec.Delegated != nil {
		w.Add(w, rec.Delegated)
	}
	_, sum, err := e.unpooled(ctx, p, voter)
	if err != nil {
		return nil, err
	}
	if _, overflow := w.AddOverflow(w, sum); overflow {
		return nil, ErrArithmeticOverflow
	}
	return w, nil
}

// Vote casts or changes the sender's vote on id. A previous vote is moved
// rather than added to. A first direct vote takes the sender's weight back
// from whichever delegate's vote counted it.
func (e *Engine) Vote(ctx context.Context, sender common.Address, id uint64, supports, executesIfDecided bool) error {
	if err := e.requireMode(ModeDelegate); err != nil {
		return err
	}
	return e.atomic(func() error {
		return e.castDelegateVote(ctx, id, sender, supports, executesIfDecided)
	})
}

func (e *Engine) castDelegateVote(ctx context.Context, id uint64, voter common.Address, supports, executesIfDecided bool) error {
	p, err := e.proposal(id)
	if err != nil {
		return err
	}
	if err = e.openForVoting(p); err != nil {
		return err
	}
	own, err := e.oracle.PowerAt(ctx, voter, p.SnapshotBlock)
	if err != nil {
		return err
	}
	if own == nil {
		own = new(uint256.Int)
	}

	delegated := new(uint256.Int)
	rec, voted := e.store.Voter(id, voter)
	if voted && rec.State != Absent {
		c := counter(p, rec.State)
		c.Sub(c, rec.Weight)
		if rec.Delegated != nil {
			delegated.Set(rec.Delegated)
		}
	} else {
		rec = &VoterRecord{}
		e.withdrawFromDelegate(p, voter)
	}

	fresh, sum, err := e.unpooled(ctx, p, voter)
	if err != nil {
		return err
	}
	if _, overflow := delegated.AddOverflow(delegated, sum); overflow {
		return ErrArithmeticOverflow
	}
	weight, overflow := new(uint256.Int).AddOverflow(own, delegated)
	if overflow {
		return ErrArithmeticOverflow
	}
	if weight.IsZero() {
		return ErrNoVotingPower
	}
	for _, f := range fresh {
		e.store.putAttribution(id, f.who, Attribution{Delegate: voter, Weight: f.weight})
	}

	side := counter(p, stateFor(supports))
	if _, overflow = side.AddOverflow(side, weight); overflow {
		return ErrArithmeticOverflow
	}
	rec.State = stateFor(supports)
	rec.Weight = weight
	rec.Delegated = delegated
	e.store.putVoter(id, voter, rec)
	e.store.putProposal(p)

	e.emit(EventCastVote{ID: id, Voter: voter, Supports: supports, Stake: weight.Clone()})
	e.observe(func() { e.metrics.votesCast.WithLabelValues(ModeDelegate.String()).Inc() })
	e.logger.Debug("vote cast", "id", id, "voter", voter, "supports", supports, "weight", weight)

	if executesIfDecided && e.approved(p) {
		return e.execute(ctx, id, p.Script)
	}
	return nil
}

// withdrawFromDelegate takes voter's snapshot power off the delegate vote
// that counted it on p. p is updated in place.
func (e *Engine) withdrawFromDelegate(p *Proposal, voter common.Address) {
	a, ok := e.store.Attribution(p.ID, voter)
	if !ok {
		return
	}
	e.store.deleteAttribution(p.ID, voter)
	drec, ok := e.store.Voter(p.ID, a.Delegate)
	if !ok || drec.State == Absent || drec.Delegated == nil {
		return
	}
	c := counter(p, drec.State)
	c.Sub(c, a.Weight)
	drec.Weight.Sub(drec.Weight, a.Weight)
	drec.Delegated.Sub(drec.Delegated, a.Weight)
	e.store.putVoter(p.ID, a.Delegate, drec)
}

func counter(p *Proposal, s VoterState) *uint256.Int {
	if s == Yea {
		return p.Yea
	}
	return p.Nay
}

// Delegate points sender's current balance at delegate, moving it off any
// previous delegate's aggregate. Tallies never read the aggregate: a
// delegate's vote on a proposal counts each delegator's power at that
// proposal's snapshot.
func (e *Engine) Delegate(ctx context.Context, sender, delegate common.Address) error {
	if err := e.requireMode(ModeDelegate); err != nil {
		return err
	}
	if delegate == (common.Address{}) || delegate == sender {
		return ErrInvalidDelegate
	}
	return e.atomic(func() error {
		weight, err := e.oracle.PowerAt(ctx, sender, e.clock.Height())
		if err != nil {
			return err
		}
		if weight == nil || weight.IsZero() {
			return ErrNoVotingPower
		}
		if prev, ok := e.store.Delegation(sender); ok {
			agg := e.store.Delegated(prev.Delegate)
			if prev.Weight.Gt(agg) {
				agg.Clear()
			} else {
				agg.Sub(agg, prev.Weight)
			}
			e.store.putDelegated(prev.Delegate, agg)
		}
		agg, overflow := new(uint256.Int).AddOverflow(e.store.Delegated(delegate), weight)
		if overflow {
			return ErrArithmeticOverflow
		}
		e.store.putDelegated(delegate, agg)
		e.store.putDelegation(sender, Delegation{Delegate: delegate, Weight: weight})

		e.emit(EventDelegate{Delegator: sender, Delegate: delegate, Weight: weight.Clone()})
		e.observe(e.metrics.delegations.Inc)
		e.logger.Debug("delegated", "delegator", sender, "delegate", delegate, "weight", weight)
		return nil
	})
}

// DelegateOf returns who voter delegated to, if anyone.
func (e *Engine) DelegateOf(voter common.Address) (common.Address, bool) {
	d, ok := e.store.Delegation(voter)
	return d.Delegate, ok
}

// DelegatedWeight is the registry aggregate of current balances pointed at delegate.
func (e *Engine) DelegatedWeight(delegate common.Address) *uint256.Int {
	return e.store.Delegated(delegate)
}

// Forward creates a proposal from script on behalf of sender, voting yea and
// executing when that decides it.
func (e *Engine) Forward(ctx context.Context, sender common.Address, script []byte) (uint64, error) {
	if err := e.requireMode(ModeDelegate); err != nil {
		return 0, err
	}
	return e.NewVoteExt(ctx, sender, script, "", true, true)
}

// IsForwarder reports whether Forward is available in the current mode.
func (e *Engine) IsForwarder() bool {
	return e.store.params.Mode != ModeQuadratic
}
