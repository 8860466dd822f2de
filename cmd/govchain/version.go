package main

import (
	"fmt"

	"github.com/calehh/govchain/app"
	"github.com/calehh/govchain/tx"
	cmtversion "github.com/cometbft/cometbft/version"
	"github.com/spf13/cobra"
)

// GitCommit is set at build time with -ldflags.
var GitCommit string

const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

var Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)

func VersionWithCommit(gitCommit string) string {
	if len(gitCommit) >= 8 {
		return Version + "-" + gitCommit[:8]
	}
	return Version
}

var versionLong bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the node version",
	Aliases: []string{"V"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(VersionWithCommit(GitCommit))
		if !versionLong {
			return
		}
		fmt.Printf("app protocol: %d\n", app.AppVersion)
		fmt.Printf("tx envelope:  %d\n", tx.GovTxVersion0)
		fmt.Printf("cometbft:     %s\n", cmtversion.TMCoreSemVer)
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionLong, "long", "l", false, "also print protocol and cometbft versions")
}
