package handler

import (
	"github.com/latticekv/lattice/internal/protocol"
)

// handleMultiCommand handles the MULTI command by routing it through the
// dispatcher against the client's session - the session's IN_TX flag, not
// the legacy per-connection Transaction, is now the single source of truth
// for transaction state.
func (h *CommandHandler) handleMultiCommand(client *Client) []byte {
	return h.dispatcher.Dispatch(client.Session, []string{"MULTI"})
}

// handleExecCommand handles the EXEC command. All of MULTI's invariants -
// the dirty-CAS null-array reply, EXECABORT on a bad queued command, the
// read-only-replica precondition, ordered execution and propagation - live
// in txengine.Engine.Exec; this is just the dispatch call.
func (h *CommandHandler) handleExecCommand(client *Client) []byte {
	return h.dispatcher.Dispatch(client.Session, []string{"EXEC"})
}

// handleDiscardCommand handles the DISCARD command.
func (h *CommandHandler) handleDiscardCommand(client *Client) []byte {
	return h.dispatcher.Dispatch(client.Session, []string{"DISCARD"})
}

// handleWatchCommand handles the WATCH command.
func (h *CommandHandler) handleWatchCommand(cmd *protocol.Command, client *Client) []byte {
	return h.dispatcher.Dispatch(client.Session, cmd.Args)
}

// handleUnwatchCommand handles the UNWATCH command.
func (h *CommandHandler) handleUnwatchCommand(client *Client) []byte {
	return h.dispatcher.Dispatch(client.Session, []string{"UNWATCH"})
}
