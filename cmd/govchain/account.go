package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/calehh/govchain/app"
	"github.com/calehh/govchain/state"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
)

type accountArguments struct {
	Url     string
	Address string
	Index   uint64
}

var accountArgs accountArguments

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Query an account by index or address",
	Run:   accountRun,
}

func init() {
	urlFlag(accountCmd, &accountArgs.Url)
	accountCmd.Flags().StringVarP(&accountArgs.Address, "address", "a", "", "account address")
	accountCmd.Flags().Uint64VarP(&accountArgs.Index, "index", "i", 0, "account index")
}

func accountRun(cmd *cobra.Command, args []string) {
	act, err := queryAccount(accountArgs.Url, accountArgs.Index, accountArgs.Address)
	if err != nil {
		fmt.Printf("query account err:%v\n", err)
		return
	}
	fmt.Printf("nonce:%v index:%v name:%v pk:%x addr:%v voter:%v\n",
		act.Nonce, act.Index, act.Name, []byte(act.PubKey), act.Address(), act.GovAddress().Hex())
}

func newClient(url string) (*http.HTTP, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	return cli, nil
}

func abciQuery(url string, path string, data []byte) ([]byte, error) {
	cli, err := newClient(url)
	if err != nil {
		return nil, err
	}
	res, err := cli.ABCIQuery(context.Background(), path, data)
	if err != nil {
		return nil, err
	}
	if res.Response.Code != 0 {
		return nil, errors.New(res.Response.Log)
	}
	return res.Response.Value, nil
}

func queryAccount(url string, index uint64, address string) (*state.Account, error) {
	var dat []byte
	if len(address) > 0 {
		var err error
		dat, err = hex.DecodeString(strings.TrimPrefix(address, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid address %v: %w", address, err)
		}
	} else {
		dat = app.EncodeIndex(index)
	}
	val, err := abciQuery(url, "/accounts/", dat)
	if err != nil {
		return nil, err
	}
	var act state.Account
	if err = json.Unmarshal(val, &act); err != nil {
		return nil, err
	}
	return &act, nil
}
