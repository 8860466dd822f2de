package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/calehh/govchain/voting"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const GovModuleName = "govchain"
const DefaultPower = 1000

var (
	ErrInvalidAppState = errors.New("invalid app state")
)

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisDoc defines the initial conditions for a CometBFT blockchain, in particular its validator set.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// SaveAs is a utility method for saving GenensisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (ag *GenesisDoc) ValidateAndComplete() error {
	if ag.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if ag.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", ag.InitialHeight)
	}

	if ag.InitialHeight == 0 {
		ag.InitialHeight = 1
	}

	if ag.GenesisTime.IsZero() {
		ag.GenesisTime = time.Now().Round(0).UTC()
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}

// GenesisHolder is a token holder minted at genesis. Holders with a public
// key also get an account so they can sign transactions; the others are
// addressed by Address.
type GenesisHolder struct {
	Name    string         `json:"name,omitempty"`
	PubKey  ed25519.PubKey `json:"pubKey,omitempty"`
	Address common.Address `json:"address"`
	Balance *uint256.Int   `json:"balance"`
}

func (h GenesisHolder) GovAddress() common.Address {
	if len(h.PubKey) > 0 {
		return common.BytesToAddress(h.PubKey.Address())
	}
	return h.Address
}

// AppState is the app_state section of the genesis document.
type AppState struct {
	Params  voting.Params                    `json:"params"`
	Holders []GenesisHolder                  `json:"holders"`
	Grants  map[voting.Role][]common.Address `json:"grants"`
}

func (s *AppState) Validate() error {
	if err := s.Params.Validate(); err != nil {
		return err
	}
	for i, h := range s.Holders {
		if len(h.PubKey) != 0 && len(h.PubKey) != ed25519.PubKeySize {
			return fmt.Errorf("%w: holder %d public key size %d", ErrInvalidAppState, i, len(h.PubKey))
		}
		if len(h.PubKey) == 0 && h.Address == (common.Address{}) {
			return fmt.Errorf("%w: holder %d has neither key nor address", ErrInvalidAppState, i)
		}
		if h.Balance == nil {
			return fmt.Errorf("%w: holder %d has no balance", ErrInvalidAppState, i)
		}
	}
	return nil
}

func ParseAppState(dat []byte) (*AppState, error) {
	s := new(AppState)
	if err := json.Unmarshal(dat, s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAppState, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultAppState is a delegate mode chain where pk holds the whole supply,
// anyone may open votes and only passed votes may change the thresholds.
func DefaultAppState(pk []byte, engine common.Address) *AppState {
	return &AppState{
		Params: voting.Params{
			Mode:            voting.ModeDelegate,
			SupportRequired: voting.Pct(50),
			MinQuorum:       voting.Pct(20),
			VoteTime:        24 * 3600,
		},
		Holders: []GenesisHolder{
			{Name: "genesis", PubKey: ed25519.PubKey(common.CopyBytes(pk)), Balance: uint256.NewInt(1_000_000)},
		},
		Grants: map[voting.Role][]common.Address{
			voting.CreateVotesRole:   {voting.AnyEntity},
			voting.ModifySupportRole: {engine},
			voting.ModifyQuorumRole:  {engine},
		},
	}
}
