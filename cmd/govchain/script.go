package main

import (
	"fmt"
	"strings"

	"github.com/calehh/govchain/state"
	"github.com/calehh/govchain/target"
	"github.com/calehh/govchain/voting"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type scriptArguments struct {
	Calls         []string
	Counter       int
	SupportChange string
	QuorumChange  string
}

var scriptArgs scriptArguments

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Encode an execution script and print it with its commitment",
	Long: `Each --call is address:hexCalldata. The built in targets can be
addressed with --counter, --support and --quorum.`,
	Run: scriptRun,
}

func init() {
	scriptCmd.Flags().StringArrayVarP(&scriptArgs.Calls, "call", "c", nil, "address:calldata action")
	scriptCmd.Flags().IntVarP(&scriptArgs.Counter, "counter", "", 0, "number of counter execute() actions")
	scriptCmd.Flags().StringVarP(&scriptArgs.SupportChange, "support", "", "", "change support required to this value")
	scriptCmd.Flags().StringVarP(&scriptArgs.QuorumChange, "quorum", "", "", "change min quorum to this value")
}

func scriptRun(cmd *cobra.Command, args []string) {
	var actions []voting.Action
	for _, c := range scriptArgs.Calls {
		addr, data, found := strings.Cut(c, ":")
		if !found || !common.IsHexAddress(addr) {
			fmt.Printf("invalid call:%v\n", c)
			return
		}
		calldata, ok := hexArg("calldata", data)
		if !ok {
			return
		}
		actions = append(actions, voting.Action{To: common.HexToAddress(addr), Calldata: calldata})
	}
	for i := 0; i < scriptArgs.Counter; i++ {
		actions = append(actions, voting.Action{To: state.CounterAddress, Calldata: common.CopyBytes(target.ExecuteSelector)})
	}
	if scriptArgs.SupportChange != "" {
		v, ok := uintArg("support", scriptArgs.SupportChange)
		if !ok {
			return
		}
		actions = append(actions, voting.Action{To: state.ParamsAddress, Calldata: target.EncodeChangeSupport(v)})
	}
	if scriptArgs.QuorumChange != "" {
		v, ok := uintArg("quorum", scriptArgs.QuorumChange)
		if !ok {
			return
		}
		actions = append(actions, voting.Action{To: state.ParamsAddress, Calldata: target.EncodeChangeQuorum(v)})
	}
	script := voting.EncodeScript(actions...)
	fmt.Printf("script:%x\n", script)
	fmt.Printf("commitment:%x\n", voting.ScriptCommitment(script))
}
