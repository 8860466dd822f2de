package main

import (
	"fmt"

	"github.com/calehh/govchain/app"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type queryArguments struct {
	Url     string
	Vote    int64
	Address string
}

var queryArgs queryArguments

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query governance state",
}

func queryFlags(cmd *cobra.Command) *cobra.Command {
	urlFlag(cmd, &queryArgs.Url)
	return cmd
}

func printQuery(path string, data []byte) {
	val, err := abciQuery(queryArgs.Url, path, data)
	if err != nil {
		fmt.Printf("query %s err:%v\n", path, err)
		return
	}
	fmt.Println(string(val))
}

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "Show the number of proposals, or one proposal with --vote",
	Run: func(cmd *cobra.Command, args []string) {
		var data []byte
		if queryArgs.Vote >= 0 {
			data = app.EncodeIndex(uint64(queryArgs.Vote))
		}
		printQuery("/proposals/", data)
	},
}

var voterCmd = &cobra.Command{
	Use:   "voter",
	Short: "Show the position of an address on a proposal",
	Run: func(cmd *cobra.Command, args []string) {
		if !common.IsHexAddress(queryArgs.Address) || queryArgs.Vote < 0 {
			fmt.Println("--vote and a valid --address are required")
			return
		}
		printQuery("/voters/", app.EncodeVoterQuery(uint64(queryArgs.Vote), common.HexToAddress(queryArgs.Address)))
	},
}

func addressQuery(path string) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		if !common.IsHexAddress(queryArgs.Address) {
			fmt.Printf("invalid address:%v\n", queryArgs.Address)
			return
		}
		printQuery(path, common.HexToAddress(queryArgs.Address).Bytes())
	}
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the token balance and spendable points of an address",
	Run:   addressQuery("/balances/"),
}

var delegationCmd = &cobra.Command{
	Use:   "delegation",
	Short: "Show the delegate of an address and the weight delegated to it",
	Run:   addressQuery("/delegations/"),
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show the voting parameters",
	Run: func(cmd *cobra.Command, args []string) {
		printQuery("/params/", nil)
	},
}

func init() {
	proposalsCmd.Flags().Int64VarP(&queryArgs.Vote, "vote", "v", -1, "vote id")
	voterCmd.Flags().Int64VarP(&queryArgs.Vote, "vote", "v", -1, "vote id")
	for _, c := range []*cobra.Command{voterCmd, balanceCmd, delegationCmd} {
		c.Flags().StringVarP(&queryArgs.Address, "address", "a", "", "address")
	}
	for _, c := range []*cobra.Command{proposalsCmd, voterCmd, balanceCmd, delegationCmd, paramsCmd} {
		queryCmd.AddCommand(queryFlags(c))
	}
}
