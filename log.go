package main

import (
	"io"

	btclogv1 "github.com/btcsuite/btclog"
	"github.com/btcsuite/btclog/v2"

	"jmfinder/node"
	"jmfinder/scan"
)

// newLoggers returns the scan logger and wires the node package logger to
// the same handler.
func newLoggers(w io.Writer, level btclogv1.Level) btclog.Logger {
	root := btclog.NewSLogger(btclog.NewDefaultHandler(w))

	nodeLog := root.SubSystem(node.Subsystem)
	nodeLog.SetLevel(level)
	node.UseLogger(nodeLog)

	scanLog := root.SubSystem(scan.Subsystem)
	scanLog.SetLevel(level)

	return scanLog
}
