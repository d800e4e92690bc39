package handler

import (
	"github.com/latticekv/lattice/internal/protocol"
)

// OKResponse is returned by the legacy replay handlers below.
var OKResponse = []byte("+OK\r\n")

// handleMulti, handleExec, handleDiscard, handleWatch and handleUnwatch are
// registered in h.commands for AOF replay: the propagation sink wraps a
// batch of writes in synthetic MULTI/EXEC frames, and on replay those frames
// are looked up by name through the same command map as any other command.
// Real Redis treats MULTI/EXEC in the AOF purely as framing too - replay
// applies the bracketed commands one at a time rather than re-entering a
// live transaction, so these are no-ops. The live client path answers
// MULTI/EXEC/DISCARD/WATCH/UNWATCH through dispatcher.Dispatcher instead,
// which builds its replies from txengine.Engine's Result.
func (h *CommandHandler) handleMulti(cmd *protocol.Command) []byte {
	return OKResponse
}

func (h *CommandHandler) handleExec(cmd *protocol.Command) []byte {
	return OKResponse
}

func (h *CommandHandler) handleDiscard(cmd *protocol.Command) []byte {
	return OKResponse
}

func (h *CommandHandler) handleWatch(cmd *protocol.Command) []byte {
	return OKResponse
}

func (h *CommandHandler) handleUnwatch(cmd *protocol.Command) []byte {
	return OKResponse
}

// IsTransactionCommand checks if a command is a transaction control command.
func IsTransactionCommand(cmd string) bool {
	switch cmd {
	case "MULTI", "EXEC", "DISCARD", "WATCH", "UNWATCH":
		return true
	}
	return false
}
