package main

import (
	"encoding/hex"
	"fmt"

	"github.com/calehh/govchain/crypto"
	"github.com/spf13/cobra"
)

type pubkeyArguments struct {
	Skey string
}

var pubkeyArgs pubkeyArguments

var pubkeyCmd = &cobra.Command{
	Use:   "pubkey",
	Short: "Show the public key and addresses of a key file",
	Run:   pubkeyRun,
}

func init() {
	pubkeyCmd.Flags().StringVarP(&pubkeyArgs.Skey, "skeyPath", "s", "./config/priv_validator_key.json", "private key path")
}

func pubkeyRun(cmd *cobra.Command, args []string) {
	pv, err := crypto.LoadFilePV(pubkeyArgs.Skey)
	if err != nil {
		fmt.Printf("load key err:%v\n", err)
		return
	}
	fmt.Println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	fmt.Println("address:", pv.Address())
	fmt.Println("voter:", pv.GovAddress().Hex())
}
