package voting

import (
	"context"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Engine is a governance voting instance running in either delegate or
// quadratic mode. It is driven by a single writer; every mutating call either
// completes or leaves no trace in the store or on the execution surface.
type Engine struct {
	logger  cmtlog.Logger
	metrics *Metrics

	store   *Store
	oracle  Oracle
	auth    Authorizer
	clock   Clock
	surface Surface
	self    common.Address

	petrified bool
	executing map[uint64]bool
	events    []Event

	// metric updates released together with events
	observed []func()
}

// Option configures an Engine built by New or Clone.
type Option func(*Engine)

func WithLogger(logger cmtlog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithAuthorizer(auth Authorizer) Option {
	return func(e *Engine) { e.auth = auth }
}

// WithStore makes the engine operate on an existing store, sharing its journal.
func WithStore(s *Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithAddress sets the address the engine acts as when a script calls back into it.
func WithAddress(addr common.Address) Option {
	return func(e *Engine) { e.self = addr }
}

// AsTemplate builds an instance that can only be cloned, never initialized.
func AsTemplate() Option {
	return func(e *Engine) { e.petrified = true }
}

// New builds an uninitialized engine reading voting power from oracle and
// running approved scripts against surface.
func New(oracle Oracle, clock Clock, surface Surface, opts ...Option) *Engine {
	e := &Engine{
		logger:    cmtlog.NewNopLogger(),
		oracle:    oracle,
		auth:      AllowAll,
		clock:     clock,
		surface:   surface,
		executing: make(map[uint64]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = NewStore(nil)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	e.logger = e.logger.With("module", "voting")
	return e
}

// Clone returns an uninitialized, non-template instance with the same
// collaborators and a fresh store on the same journal.
func (e *Engine) Clone(opts ...Option) *Engine {
	n := &Engine{
		logger:    e.logger,
		metrics:   e.metrics,
		store:     NewStore(e.store.j),
		oracle:    e.oracle,
		auth:      e.auth,
		clock:     e.clock,
		surface:   e.surface,
		self:      e.self,
		executing: make(map[uint64]bool),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (e *Engine) Store() *Store {
	return e.store
}

func (e *Engine) Address() common.Address {
	return e.self
}

func (e *Engine) IsPetrified() bool {
	return e.petrified
}

func (e *Engine) HasInitialized() bool {
	return e.store.initialized
}

func (e *Engine) Params() Params {
	return e.store.Params()
}

func (e *Engine) Mode() Mode {
	return e.store.params.Mode
}

// Initialize validates params and makes the engine usable. It can run once.
func (e *Engine) Initialize(params Params) error {
	if e.petrified {
		return ErrPetrified
	}
	if e.store.initialized {
		return ErrAlreadyInitialized
	}
	if err := params.Validate(); err != nil {
		return err
	}
	e.store.setParams(params)
	e.logger.Info("voting initialized", "mode", params.Mode, "support", params.SupportRequired, "voteTime", params.VoteTime)
	return nil
}

// DrainEvents returns the events emitted since the last call and applies the
// metric updates of the same operations. Work reverted before the drain
// leaves neither behind.
func (e *Engine) DrainEvents() []Event {
	for _, f := range e.observed {
		f()
	}
	e.observed = nil
	evs := e.events
	e.events = nil
	return evs
}

func (e *Engine) emit(ev Event) {
	n := len(e.events)
	e.events = append(e.events, ev)
	e.store.j.Append(func() {
		if n <= len(e.events) {
			e.events = e.events[:n]
		}
	})
}

// observe queues a metric update until the next DrainEvents. The journal
// drops it if the surrounding operation is reverted.
func (e *Engine) observe(fn func()) {
	n := len(e.observed)
	e.observed = append(e.observed, fn)
	e.store.j.Append(func() {
		if n <= len(e.observed) {
			e.observed = e.observed[:n]
		}
	})
}

// atomic runs fn and rolls back the store and the surface if it fails.
func (e *Engine) atomic(fn func() error) error {
	snap := e.store.j.Snapshot()
	surfaceSnap := -1
	if e.surface != nil {
		surfaceSnap = e.surface.Snapshot()
	}
	err := fn()
	if err != nil {
		if e.surface != nil {
			e.surface.RevertToSnapshot(surfaceSnap)
		}
		e.store.j.RevertToSnapshot(snap)
	}
	return err
}

func (e *Engine) requireMode(m Mode) error {
	if !e.store.initialized {
		return ErrUninitialized
	}
	if e.store.params.Mode != m {
		return ErrUnsupportedInMode
	}
	return nil
}

func (e *Engine) proposal(id uint64) (*Proposal, error) {
	if !e.store.initialized {
		return nil, ErrUninitialized
	}
	p, ok := e.store.Proposal(id)
	if !ok {
		return nil, ErrProposalNotFound
	}
	return p, nil
}

// openForVoting checks the lifecycle preconditions shared by every vote.
func (e *Engine) openForVoting(p *Proposal) error {
	if p.Executed {
		return ErrProposalExecuted
	}
	if e.executing[p.ID] {
		return ErrProposalExecuting
	}
	if !e.isOpen(p) {
		return ErrProposalNotOpen
	}
	return nil
}

// createProposal allocates the next index with a snapshot at the previous
// block so the creation block cannot move the electorate.
func (e *Engine) createProposal(ctx context.Context, sender common.Address, script []byte, metadata string) (*Proposal, error) {
	if !e.auth.CanPerform(sender, CreateVotesRole) {
		return nil, ErrUnauthorized
	}
	var snapshot uint64
	if h := e.clock.Height(); h > 0 {
		snapshot = h - 1
	}
	total, err := e.oracle.TotalAt(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	if total == nil || total.IsZero() {
		return nil, ErrZeroEligibleSupply
	}
	params := e.store.params
	p := &Proposal{
		Creator:         sender,
		StartTime:       e.clock.Now(),
		SnapshotBlock:   snapshot,
		SupportRequired: params.SupportRequired.Clone(),
		MinQuorum:       new(uint256.Int),
		Yea:             new(uint256.Int),
		Nay:             new(uint256.Int),
		VotingPower:     total.Clone(),
		Script:          script,
		Metadata:        metadata,
	}
	if params.MinQuorum != nil {
		p.MinQuorum = params.MinQuorum.Clone()
	}
	p.ID = e.store.appendProposal(p)
	e.emit(EventStartVote{ID: p.ID, Creator: sender, Metadata: metadata})
	e.observe(func() {
		e.metrics.proposalsCreated.Inc()
		e.metrics.proposals.Set(float64(e.store.ProposalCount()))
	})
	e.logger.Debug("vote started", "id", p.ID, "creator", sender, "snapshot", snapshot, "votingPower", total)
	return p, nil
}

// NewVote creates a proposal. In delegate mode the creator also votes yea and
// the proposal executes as soon as that decides it.
func (e *Engine) NewVote(ctx context.Context, sender common.Address, script []byte, metadata string) (uint64, error) {
	if !e.store.initialized {
		return 0, ErrUninitialized
	}
	if e.store.params.Mode == ModeQuadratic {
		return e.NewVoteExt(ctx, sender, script, metadata, false, false)
	}
	return e.NewVoteExt(ctx, sender, script, metadata, true, true)
}

// NewVoteExt creates a proposal, optionally casting the creator's vote and
// executing right away when that vote decides it.
func (e *Engine) NewVoteExt(ctx context.Context, sender common.Address, script []byte, metadata string, castVote, executesIfDecided bool) (id uint64, err error) {
	if !e.store.initialized {
		return 0, ErrUninitialized
	}
	err = e.atomic(func() error {
		var err error
		if e.store.params.Mode == ModeQuadratic {
			id, err = e.newQuadraticVote(ctx, sender, script, metadata, castVote)
		} else {
			id, err = e.newDelegateVote(ctx, sender, script, metadata, castVote, executesIfDecided)
		}
		return err
	})
	return
}

// ExecuteVote runs an approved proposal's script. In quadratic mode script
// must hash to the stored commitment; delegate mode ignores it.
func (e *Engine) ExecuteVote(ctx context.Context, sender common.Address, id uint64, script []byte) error {
	return e.atomic(func() error {
		p, err := e.proposal(id)
		if err != nil {
			return err
		}
		if p.Executed {
			return ErrProposalExecuted
		}
		if e.executing[id] {
			return ErrProposalExecuting
		}
		if !e.approved(p) {
			return ErrThresholdsNotMet
		}
		if e.store.params.Mode == ModeQuadratic {
			if string(ScriptCommitment(script)) != string(p.Script) {
				return ErrScriptMismatch
			}
		} else {
			script = p.Script
		}
		e.logger.Debug("execute vote", "id", id, "sender", sender)
		return e.execute(ctx, id, script)
	})
}

// CanExecute reports whether id is approved and not yet executed.
func (e *Engine) CanExecute(id uint64) (bool, error) {
	p, err := e.proposal(id)
	if err != nil {
		return false, err
	}
	return !p.Executed && !e.executing[id] && e.approved(p), nil
}

// CanVote reports whether voter may vote on id: the proposal is open and the
// voter has weight at its snapshot.
func (e *Engine) CanVote(ctx context.Context, id uint64, voter common.Address) (bool, error) {
	p, err := e.proposal(id)
	if err != nil {
		return false, err
	}
	if e.openForVoting(p) != nil {
		return false, nil
	}
	var w *uint256.Int
	if e.store.params.Mode == ModeDelegate {
		w, err = e.effectiveWeight(ctx, p, voter)
	} else {
		w, err = e.oracle.PowerAt(ctx, voter, p.SnapshotBlock)
	}
	if err != nil {
		return false, err
	}
	return w != nil && !w.IsZero(), nil
}

// GetVote returns the tally and settings of proposal id.
func (e *Engine) GetVote(id uint64) (*VoteInfo, error) {
	p, err := e.proposal(id)
	if err != nil {
		return nil, err
	}
	return &VoteInfo{
		Open:            e.isOpen(p),
		Executed:        p.Executed,
		StartTime:       p.StartTime,
		SnapshotBlock:   p.SnapshotBlock,
		SupportRequired: p.SupportRequired,
		MinQuorum:       p.MinQuorum,
		Yea:             p.Yea,
		Nay:             p.Nay,
		VotingPower:     p.VotingPower,
		Script:          p.Script,
		Creator:         p.Creator,
		Metadata:        p.Metadata,
	}, nil
}

// GetVoterState returns the voter's position on id and, in quadratic mode,
// the number of units held. Voters who never voted are Absent.
func (e *Engine) GetVoterState(id uint64, voter common.Address) (VoterState, uint64, error) {
	if _, err := e.proposal(id); err != nil {
		return Absent, 0, err
	}
	r, ok := e.store.Voter(id, voter)
	if !ok {
		return Absent, 0, nil
	}
	var units uint64
	if e.store.params.Mode == ModeQuadratic {
		units = r.Weight.Uint64()
	}
	return r.State, units, nil
}

// VotesLength is the number of proposals created so far.
func (e *Engine) VotesLength() uint64 {
	return e.store.ProposalCount()
}

// ChangeSupportRequired updates the threshold used by future proposals.
func (e *Engine) ChangeSupportRequired(ctx context.Context, sender common.Address, v *uint256.Int) error {
	if !e.store.initialized {
		return ErrUninitialized
	}
	if !e.auth.CanPerform(sender, ModifySupportRole) {
		return ErrUnauthorized
	}
	return e.atomic(func() error {
		params := e.store.Params()
		params.SupportRequired = v.Clone()
		if err := params.Validate(); err != nil {
			return err
		}
		e.store.setParams(params)
		e.emit(EventChangeSupportRequired{SupportRequired: v.Clone()})
		e.logger.Info("support required changed", "value", v)
		return nil
	})
}

// ChangeMinQuorum updates the participation quorum used by future proposals.
func (e *Engine) ChangeMinQuorum(ctx context.Context, sender common.Address, v *uint256.Int) error {
	if err := e.requireMode(ModeDelegate); err != nil {
		return err
	}
	if !e.auth.CanPerform(sender, ModifyQuorumRole) {
		return ErrUnauthorized
	}
	return e.atomic(func() error {
		params := e.store.Params()
		params.MinQuorum = v.Clone()
		if err := params.Validate(); err != nil {
			return err
		}
		e.store.setParams(params)
		e.emit(EventChangeMinQuorum{MinQuorum: v.Clone()})
		e.logger.Info("min quorum changed", "value", v)
		return nil
	})
}
