// Package cli provides the interactive nestdevhive command-line client.
//
// It wires configuration, the local session store and the gRPC services into
// a REPL. A session saved by a previous run is restored on start, and a
// background watcher tracks whether the server is reachable.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
