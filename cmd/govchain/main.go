package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pubkeyCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(txCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
