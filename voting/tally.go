package voting

import "github.com/holiman/uint256"

// pct returns n/total in PctBase units. total must be non-zero.
func pct(n, total *uint256.Int) (*uint256.Int, bool) {
	r, overflow := new(uint256.Int).MulDivOverflow(n, PctBase, total)
	return r, !overflow
}

// linearApproved reports whether yea reaches the support threshold of the
// whole snapshot supply and participation reaches the quorum.
func linearApproved(p *Proposal) bool {
	if p.VotingPower.IsZero() {
		return false
	}
	support, ok := pct(p.Yea, p.VotingPower)
	if !ok || support.Lt(p.SupportRequired) {
		return false
	}
	cast, overflow := new(uint256.Int).AddOverflow(p.Yea, p.Nay)
	if overflow {
		return false
	}
	quorum, ok := pct(cast, p.VotingPower)
	return ok && !quorum.Lt(p.MinQuorum)
}

// quadraticApproved compares the yea unit count with the absolute threshold.
func quadraticApproved(p *Proposal) bool {
	return !p.Yea.Lt(p.SupportRequired)
}

func (e *Engine) approved(p *Proposal) bool {
	if e.store.params.Mode == ModeQuadratic {
		return quadraticApproved(p)
	}
	return linearApproved(p)
}

func (e *Engine) isOpen(p *Proposal) bool {
	return !p.Executed && e.clock.Now() < p.StartTime+e.store.params.VoteTime
}
