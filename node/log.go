package node

import "github.com/btcsuite/btclog/v2"

// Subsystem is the logging tag used by this package.
const Subsystem = "NODE"

// log is disabled until UseLogger is called.
var log btclog.Logger = btclog.Disabled

// UseLogger sets the logger used by the package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
