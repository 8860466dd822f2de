package voting

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const commitmentLen = 32

// newQuadraticVote stores the Keccak-256 commitment of the script; the
// script itself is only revealed at execution.
func (e *Engine) newQuadraticVote(ctx context.Context, sender common.Address, commitment []byte, metadata string, castVote bool) (uint64, error) {
	if len(commitment) != commitmentLen {
		return 0, fmt.Errorf("%w: commitment must be %d bytes", ErrMalformedScript, commitmentLen)
	}
	p, err := e.createProposal(ctx, sender, common.CopyBytes(commitment), metadata)
	if err != nil {
		return 0, err
	}
	if !castVote {
		return p.ID, nil
	}
	power, err := e.oracle.PowerAt(ctx, sender, p.SnapshotBlock)
	if err != nil {
		return 0, err
	}
	if power == nil || power.IsZero() {
		return p.ID, nil
	}
	if err = e.setUnits(ctx, p.ID, sender, true, 1); err != nil {
		return 0, err
	}
	return p.ID, nil
}

// VoteUnits sets the sender's position on id to units in the given
// direction, refunding what the previous position cost.
func (e *Engine) VoteUnits(ctx context.Context, sender common.Address, id uint64, supports bool, units uint64) error {
	if err := e.requireMode(ModeQuadratic); err != nil {
		return err
	}
	if units == 0 {
		return ErrZeroUnits
	}
	return e.atomic(func() error {
		return e.setUnits(ctx, id, sender, supports, units)
	})
}

// VoteDim adds one unit to the sender's position. Voting the other way
// replaces the position with a single unit in the new direction.
func (e *Engine) VoteDim(ctx context.Context, sender common.Address, id uint64, supports bool) error {
	if err := e.requireMode(ModeQuadratic); err != nil {
		return err
	}
	return e.atomic(func() error {
		units := uint64(1)
		if rec, ok := e.store.Voter(id, sender); ok && rec.State == stateFor(supports) {
			units = rec.Weight.Uint64() + 1
		}
		return e.setUnits(ctx, id, sender, supports, units)
	})
}

func (e *Engine) setUnits(ctx context.Context, id uint64, voter common.Address, supports bool, units uint64) error {
	p, err := e.proposal(id)
	if err != nil {
		return err
	}
	if err = e.openForVoting(p); err != nil {
		return err
	}
	power, err := e.oracle.PowerAt(ctx, voter, p.SnapshotBlock)
	if err != nil {
		return err
	}
	if power == nil || power.IsZero() {
		return ErrNoVotingPower
	}

	var prevUnits, paidTerm uint64
	if rec, ok := e.store.Voter(id, voter); ok && rec.State != Absent {
		prevUnits, paidTerm = rec.Weight.Uint64(), rec.TermStart
		c := counter(p, rec.State)
		c.Sub(c, rec.Weight)
	}
	refund, charge, err := RepositionCost(prevUnits, units)
	if err != nil {
		return err
	}

	params := e.store.params
	bal, ok := e.store.Balance(voter)
	bal = currentTerm(bal, ok, e.clock.Now(), params)
	bal = applyRefund(bal, paidTerm, refund, params)
	if charge > bal.Remaining {
		return ErrInsufficientBalance
	}
	bal.Remaining -= charge
	e.store.putBalance(voter, bal)

	n := uint256.NewInt(units)
	side := counter(p, stateFor(supports))
	if _, overflow := side.AddOverflow(side, n); overflow {
		return ErrArithmeticOverflow
	}
	e.store.putProposal(p)
	e.store.putVoter(id, voter, &VoterRecord{State: stateFor(supports), Weight: n, TermStart: bal.TermStart})

	e.emit(EventCastVote{ID: id, Voter: voter, Supports: supports, Stake: n.Clone()})
	e.observe(func() { e.metrics.votesCast.WithLabelValues(ModeQuadratic.String()).Inc() })
	e.logger.Debug("units cast", "id", id, "voter", voter, "supports", supports, "units", units, "remaining", bal.Remaining)
	return nil
}

// RemoveVote withdraws the sender's units from id and refunds their cost.
func (e *Engine) RemoveVote(ctx context.Context, sender common.Address, id uint64) error {
	if err := e.requireMode(ModeQuadratic); err != nil {
		return err
	}
	return e.atomic(func() error {
		p, err := e.proposal(id)
		if err != nil {
			return err
		}
		rec, ok := e.store.Voter(id, sender)
		if !ok || rec.State == Absent || rec.Weight.IsZero() {
			return ErrNotAVoter
		}
		if err = e.openForVoting(p); err != nil {
			return err
		}
		units := rec.Weight.Uint64()
		refund, err := UnitCost(units)
		if err != nil {
			return err
		}
		c := counter(p, rec.State)
		c.Sub(c, rec.Weight)

		params := e.store.params
		bal, ok := e.store.Balance(sender)
		bal = currentTerm(bal, ok, e.clock.Now(), params)
		bal = applyRefund(bal, rec.TermStart, refund, params)
		e.store.putBalance(sender, bal)
		e.store.putProposal(p)
		e.store.putVoter(id, sender, &VoterRecord{State: Absent, Weight: new(uint256.Int)})

		e.emit(EventRemoveVote{ID: id, Voter: sender, Units: units, Refund: refund})
		e.observe(e.metrics.votesRemoved.Inc)
		e.logger.Debug("vote removed", "id", id, "voter", sender, "units", units, "remaining", bal.Remaining)
		return nil
	})
}

// VotingBalance projects the voter's spendable points at the current time
// without starting a new term.
func (e *Engine) VotingBalance(voter common.Address) (uint64, error) {
	if err := e.requireMode(ModeQuadratic); err != nil {
		return 0, err
	}
	bal, ok := e.store.Balance(voter)
	return currentTerm(bal, ok, e.clock.Now(), e.store.params).Remaining, nil
}
