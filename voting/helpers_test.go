package voting_test

import (
	"context"
	"testing"

	"github.com/calehh/govchain/journal"
	"github.com/calehh/govchain/target"
	"github.com/calehh/govchain/token"
	"github.com/calehh/govchain/voting"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	holder20  = common.HexToAddress("0x0000000000000000000000000000000000000020")
	holder29  = common.HexToAddress("0x0000000000000000000000000000000000000029")
	holder51  = common.HexToAddress("0x0000000000000000000000000000000000000051")
	nonHolder = common.HexToAddress("0x00000000000000000000000000000000000000ff")

	counterAddr = common.HexToAddress("0x00000000000000000000000000000000000c0de1")
	paramsAddr  = common.HexToAddress("0x00000000000000000000000000000000000c0de2")
	engineAddr  = common.HexToAddress("0x00000000000000000000000000000000000e0001")

	ctx = context.Background()
)

const (
	voteTime  = 1000
	startTime = 1_700_000_000
)

type fixture struct {
	j       *journal.Journal
	clock   *voting.BlockClock
	ledger  *token.Ledger
	router  *target.Router
	counter *target.Counter
	engine  *voting.Engine
}

func standardHoldings() map[common.Address]uint64 {
	return map[common.Address]uint64{holder20: 20, holder29: 29, holder51: 51}
}

// newFixture mints holdings at block 1 and leaves the clock at block 2, so
// proposals created right away snapshot the minted balances.
func newFixture(t *testing.T, holdings map[common.Address]uint64, opts ...voting.Option) *fixture {
	t.Helper()
	logger := cmtlog.NewNopLogger()
	j := journal.New()
	clock := &voting.BlockClock{}
	clock.Set(1, startTime)

	ledger := token.NewLedger(j, clock, logger)
	for who, n := range holdings {
		require.NoError(t, ledger.Mint(who, uint256.NewInt(n)))
	}
	clock.Set(2, startTime+10)

	router := target.NewRouter(j, logger)
	counter := target.NewCounter(j, counterAddr)
	require.NoError(t, router.Register(counterAddr, counter))

	base := []voting.Option{
		voting.WithStore(voting.NewStore(j)),
		voting.WithAddress(engineAddr),
		voting.WithLogger(logger),
	}
	engine := voting.New(ledger, clock, router, append(base, opts...)...)
	require.NoError(t, router.Register(paramsAddr, target.NewParamsTarget(engine)))

	return &fixture{j: j, clock: clock, ledger: ledger, router: router, counter: counter, engine: engine}
}

// advance moves one block forward and seconds ahead in time.
func (f *fixture) advance(seconds uint64) {
	f.clock.Set(f.clock.Height()+1, f.clock.Now()+seconds)
}

func delegateParams() voting.Params {
	return voting.Params{
		Mode:            voting.ModeDelegate,
		SupportRequired: voting.Pct(50),
		MinQuorum:       voting.Pct(20),
		VoteTime:        voteTime,
	}
}

func quadraticParams() voting.Params {
	return voting.Params{
		Mode:            voting.ModeQuadratic,
		SupportRequired: uint256.NewInt(4),
		VoteTime:        voteTime,
		PointsPerTerm:   32,
		TermLength:      3600,
	}
}

func counterAction() voting.Action {
	return voting.Action{To: counterAddr, Calldata: target.ExecuteSelector}
}

func counterScript(n int) []byte {
	actions := make([]voting.Action, n)
	for i := range actions {
		actions[i] = counterAction()
	}
	return voting.EncodeScript(actions...)
}

func requireTally(t *testing.T, e *voting.Engine, id uint64, yea, nay uint64) {
	t.Helper()
	v, err := e.GetVote(id)
	require.NoError(t, err)
	require.Equal(t, yea, v.Yea.Uint64(), "yea")
	require.Equal(t, nay, v.Nay.Uint64(), "nay")
}

func requireState(t *testing.T, e *voting.Engine, id uint64, who common.Address, want voting.VoterState) {
	t.Helper()
	got, _, err := e.GetVoterState(id, who)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
