package main

import (
	"os"
	"runtime/debug"

	"github.com/mezonai/utxochain/cmd"
	"github.com/mezonai/utxochain/logx"
	"github.com/mezonai/utxochain/monitoring"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			monitoring.IncreasePanicCount()
			_ = logx.Errorf("UTXOCHAIN CRASHED: %v\n%s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	cmd.Execute()
}
