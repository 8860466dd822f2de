package voting

// currentTerm returns the balance a voter holds at now, starting a fresh term
// when none has begun yet or the previous one has elapsed.
func currentTerm(b PointBalance, ok bool, now uint64, params Params) PointBalance {
	if !ok || now >= b.TermStart+params.TermLength {
		return PointBalance{Remaining: params.PointsPerTerm, TermStart: now}
	}
	return b
}

// applyRefund credits points paid in the running term. Points paid in an
// earlier term are gone with it. The result never exceeds one term's budget.
func applyRefund(b PointBalance, paidTerm, refund uint64, params Params) PointBalance {
	if refund == 0 || paidTerm != b.TermStart {
		return b
	}
	if params.PointsPerTerm-b.Remaining < refund {
		b.Remaining = params.PointsPerTerm
	} else {
		b.Remaining += refund
	}
	return b
}
