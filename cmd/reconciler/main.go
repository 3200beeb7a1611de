package main

import (
	"os"

	"github.com/Mutombwa/bard-reco-sub003/cmd/reconciler/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	os.Exit(cmd.ExecuteWithErrorHandling())
}
