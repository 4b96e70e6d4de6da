// main is the entry point for the qbmatrix CLI.
package main

import (
	"github.com/huangsam/qbmatrix/cmd"
	"github.com/huangsam/qbmatrix/internal/contract"
	"github.com/huangsam/qbmatrix/internal/iocache"
	"github.com/huangsam/qbmatrix/internal/outwriter"
)

func main() {
	defer iocache.CloseHistory()
	defer func() {
		if err := cmd.StopProfiling(); err != nil {
			contract.LogWarn("Failed to stop profiling", err)
		}
	}()

	cmd.SetStoreManager(iocache.Manager)
	cmd.SetResultWriter(outwriter.NewOutWriter())

	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Error starting CLI", err)
	}
}
