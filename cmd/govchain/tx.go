package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/calehh/govchain/crypto"
	"github.com/calehh/govchain/tx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

type txArguments struct {
	Url    string
	Index  uint64
	Nonce  uint64
	Skey   string
	NoSend bool

	Vote     uint64
	Supports bool
	Execute  bool
	Units    uint64
	Script   string
	Metadata string
	CastVote bool
	Ext      bool
	Address  string
	Amount   string
	Value    string
}

var txArgs txArguments

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Sign and broadcast governance transactions",
}

func txFlags(cmd *cobra.Command) *cobra.Command {
	urlFlag(cmd, &txArgs.Url)
	cmd.Flags().Uint64VarP(&txArgs.Index, "index", "i", 0, "account index, looked up from the key when 0")
	cmd.Flags().Uint64VarP(&txArgs.Nonce, "nonce", "n", 0, "account nonce, queried when 0")
	cmd.Flags().StringVarP(&txArgs.Skey, "skeyPath", "s", "./config/priv_validator_key.json", "private key path")
	cmd.Flags().BoolVarP(&txArgs.NoSend, "nosend", "", false, "not send transaction but print it")
	return cmd
}

func voteFlag(cmd *cobra.Command) {
	cmd.Flags().Uint64VarP(&txArgs.Vote, "vote", "v", 0, "vote id")
}

func supportsFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&txArgs.Supports, "supports", "y", false, "vote yea")
}

func scriptFlag(cmd *cobra.Command, usage string) {
	cmd.Flags().StringVarP(&txArgs.Script, "script", "x", "", usage)
}

var newVoteCmd = &cobra.Command{
	Use:   "newvote",
	Short: "Create a proposal",
	Run: func(cmd *cobra.Command, args []string) {
		script, ok := hexArg("script", txArgs.Script)
		if !ok {
			return
		}
		sendTx(tx.GovTxTypeNewVote, &tx.NewVoteTx{
			Script:            script,
			Metadata:          txArgs.Metadata,
			Ext:               txArgs.Ext,
			CastVote:          txArgs.CastVote,
			ExecutesIfDecided: txArgs.Execute,
		})
	},
}

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast or change a delegate mode vote",
	Run: func(cmd *cobra.Command, args []string) {
		sendTx(tx.GovTxTypeVote, &tx.VoteTx{Vote: txArgs.Vote, Supports: txArgs.Supports, ExecutesIfDecided: txArgs.Execute})
	},
}

var voteUnitsCmd = &cobra.Command{
	Use:   "voteunits",
	Short: "Set a quadratic position to a number of units",
	Run: func(cmd *cobra.Command, args []string) {
		sendTx(tx.GovTxTypeVoteUnits, &tx.VoteUnitsTx{Vote: txArgs.Vote, Supports: txArgs.Supports, Units: txArgs.Units})
	},
}

var voteDimCmd = &cobra.Command{
	Use:   "votedim",
	Short: "Add one unit to a quadratic position",
	Run: func(cmd *cobra.Command, args []string) {
		sendTx(tx.GovTxTypeVoteDim, &tx.VoteDimTx{Vote: txArgs.Vote, Supports: txArgs.Supports})
	},
}

var removeVoteCmd = &cobra.Command{
	Use:   "removevote",
	Short: "Withdraw a quadratic position",
	Run: func(cmd *cobra.Command, args []string) {
		sendTx(tx.GovTxTypeRemoveVote, &tx.RemoveVoteTx{Vote: txArgs.Vote})
	},
}

var delegateCmd = &cobra.Command{
	Use:   "delegate",
	Short: "Delegate voting weight",
	Run: func(cmd *cobra.Command, args []string) {
		to, ok := addressArg(txArgs.Address)
		if !ok {
			return
		}
		sendTx(tx.GovTxTypeDelegate, &tx.DelegateTx{Delegate: to})
	},
}

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Execute an approved proposal",
	Run: func(cmd *cobra.Command, args []string) {
		script, ok := hexArg("script", txArgs.Script)
		if !ok {
			return
		}
		sendTx(tx.GovTxTypeExecuteVote, &tx.ExecuteVoteTx{Vote: txArgs.Vote, Script: script})
	},
}

var forwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Create a proposal from a script and vote yea on it",
	Run: func(cmd *cobra.Command, args []string) {
		script, ok := hexArg("script", txArgs.Script)
		if !ok {
			return
		}
		sendTx(tx.GovTxTypeForward, &tx.ForwardTx{Script: script})
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer governance tokens",
	Run: func(cmd *cobra.Command, args []string) {
		to, ok := addressArg(txArgs.Address)
		if !ok {
			return
		}
		amount, ok := uintArg("amount", txArgs.Amount)
		if !ok {
			return
		}
		sendTx(tx.GovTxTypeTransfer, &tx.TransferTx{To: to, Amount: amount})
	},
}

var changeSupportCmd = &cobra.Command{
	Use:   "change-support",
	Short: "Change the support required by future proposals",
	Run: func(cmd *cobra.Command, args []string) {
		v, ok := uintArg("value", txArgs.Value)
		if !ok {
			return
		}
		sendTx(tx.GovTxTypeChangeSupport, &tx.ChangeSupportTx{SupportRequired: v})
	},
}

var changeQuorumCmd = &cobra.Command{
	Use:   "change-quorum",
	Short: "Change the minimum quorum of future proposals",
	Run: func(cmd *cobra.Command, args []string) {
		v, ok := uintArg("value", txArgs.Value)
		if !ok {
			return
		}
		sendTx(tx.GovTxTypeChangeQuorum, &tx.ChangeQuorumTx{MinQuorum: v})
	},
}

func init() {
	scriptFlag(newVoteCmd, "hex script, or its 32-byte commitment in quadratic mode")
	newVoteCmd.Flags().StringVarP(&txArgs.Metadata, "metadata", "m", "", "proposal metadata")
	newVoteCmd.Flags().BoolVarP(&txArgs.Ext, "ext", "", false, "use --cast and --execute instead of the mode defaults")
	newVoteCmd.Flags().BoolVarP(&txArgs.CastVote, "cast", "", false, "creator votes yea")
	newVoteCmd.Flags().BoolVarP(&txArgs.Execute, "execute", "e", false, "execute when the vote decides it")

	voteFlag(voteCmd)
	supportsFlag(voteCmd)
	voteCmd.Flags().BoolVarP(&txArgs.Execute, "execute", "e", false, "execute when the vote decides it")

	voteFlag(voteUnitsCmd)
	supportsFlag(voteUnitsCmd)
	voteUnitsCmd.Flags().Uint64VarP(&txArgs.Units, "units", "", 1, "units")

	voteFlag(voteDimCmd)
	supportsFlag(voteDimCmd)

	voteFlag(removeVoteCmd)

	delegateCmd.Flags().StringVarP(&txArgs.Address, "to", "t", "", "delegate address")

	voteFlag(executeCmd)
	scriptFlag(executeCmd, "hex script, required in quadratic mode")

	scriptFlag(forwardCmd, "hex script")

	transferCmd.Flags().StringVarP(&txArgs.Address, "to", "t", "", "recipient address")
	transferCmd.Flags().StringVarP(&txArgs.Amount, "amount", "a", "", "decimal amount")

	changeSupportCmd.Flags().StringVarP(&txArgs.Value, "value", "", "", "decimal fraction of 10^18")
	changeQuorumCmd.Flags().StringVarP(&txArgs.Value, "value", "", "", "decimal fraction of 10^18")

	for _, c := range []*cobra.Command{
		newVoteCmd, voteCmd, voteUnitsCmd, voteDimCmd, removeVoteCmd, delegateCmd,
		executeCmd, forwardCmd, transferCmd, changeSupportCmd, changeQuorumCmd,
	} {
		txCmd.AddCommand(txFlags(c))
	}
}

func hexArg(name, s string) ([]byte, bool) {
	dat, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		fmt.Printf("invalid %s:%v\n", name, err)
		return nil, false
	}
	return dat, true
}

func addressArg(s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		fmt.Printf("invalid address:%v\n", s)
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

func uintArg(name, s string) (*uint256.Int, bool) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		fmt.Printf("invalid %s:%v\n", name, err)
		return nil, false
	}
	return v, true
}

func sendTx(tp tx.GovTxType, payload any) {
	cli, err := newClient(txArgs.Url)
	if err != nil {
		fmt.Println(err)
		return
	}
	ctx := context.Background()
	gres, err := cli.Genesis(ctx)
	if err != nil {
		fmt.Printf("get chain genesis err:%v\n", err)
		return
	}
	chainId := gres.Genesis.ChainID

	pv, err := crypto.LoadFilePV(txArgs.Skey)
	if err != nil {
		fmt.Printf("load key err:%v\n", err)
		return
	}
	index, nonce := txArgs.Index, txArgs.Nonce
	if index == 0 || nonce == 0 {
		var addr string
		if index == 0 {
			addr = pv.Address()
		}
		act, err := queryAccount(txArgs.Url, index, addr)
		if err != nil {
			fmt.Printf("query account err:%v\n", err)
			return
		}
		index = act.Index
		if nonce == 0 {
			nonce = act.Nonce
		}
	}

	gtx := &tx.GovTx{
		Version: tx.GovTxVersion0,
		Type:    tp,
		Nonce:   nonce,
		Account: index,
		Tx:      payload,
	}
	if err = pv.SignTx(gtx, chainId); err != nil {
		fmt.Printf("sign tx err:%v\n", err)
		return
	}
	dat, err := tx.MarshalGovTx(gtx)
	if err != nil {
		fmt.Printf("encode tx err:%v\n", err)
		return
	}
	if txArgs.NoSend {
		fmt.Println(string(dat))
		return
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		fmt.Printf("broadcast tx err:%v\n", err)
		return
	}
	dat, _ = json.Marshal(res)
	fmt.Printf("%v\n", string(dat))
}
