// Package server wires and runs the sync server's HTTP transport.
//
// It owns the server lifecycle: startup, OS signal handling, and graceful
// shutdown, draining in-flight sync requests before exit.
package server
