package handler

import (
	"context"
	"strings"
	"time"

	"github.com/latticekv/lattice/internal/protocol"
)

// executeWithTransaction is the per-command entry point for a connected
// client. Pub/Sub subscription commands and blocking list commands need the
// raw *Client (to flip InPubSub, or to park the connection on the blocking
// manager) and are special-cased here; everything else - including MULTI,
// EXEC, DISCARD, WATCH, UNWATCH and every ordinary command, whether or not
// the session currently has a transaction open - goes through
// h.dispatcher.Dispatch, which is the only place left that decides whether a
// command gets queued, executed and propagated.
func (h *CommandHandler) executeWithTransaction(ctx context.Context, client *Client, cmd *protocol.Command, timeout time.Duration) PipelineResult {
	if cmd == nil || len(cmd.Args) == 0 {
		return PipelineResult{
			Response: protocol.EncodeError("ERR empty command"),
			Command:  "",
			Args:     nil,
		}
	}

	command := strings.ToUpper(cmd.Args[0])
	start := time.Now()

	// Check if client is in pub/sub mode
	if client.InPubSub {
		// In pub/sub mode, only allow specific commands
		switch command {
		case "SUBSCRIBE", "PSUBSCRIBE", "UNSUBSCRIBE", "PUNSUBSCRIBE", "PING", "QUIT":
			// These are allowed
		default:
			return PipelineResult{
				Response: protocol.EncodeError("ERR only (P)SUBSCRIBE / (P)UNSUBSCRIBE / PING / QUIT allowed in this context"),
				Duration: time.Since(start),
				Command:  command,
				Args:     cmd.Args[1:],
			}
		}
	}

	// Handle pub/sub subscription commands (need client context)
	switch command {
	case "SUBSCRIBE":
		response := h.handleSubscribe(cmd, client)
		return PipelineResult{
			Response: response,
			Duration: time.Since(start),
			Command:  command,
			Args:     cmd.Args[1:],
		}
	case "UNSUBSCRIBE":
		response := h.handleUnsubscribe(cmd, client)
		return PipelineResult{
			Response: response,
			Duration: time.Since(start),
			Command:  command,
			Args:     cmd.Args[1:],
		}
	case "PSUBSCRIBE":
		response := h.handlePSubscribe(cmd, client)
		return PipelineResult{
			Response: response,
			Duration: time.Since(start),
			Command:  command,
			Args:     cmd.Args[1:],
		}
	case "PUNSUBSCRIBE":
		response := h.handlePUnsubscribe(cmd, client)
		return PipelineResult{
			Response: response,
			Duration: time.Since(start),
			Command:  command,
			Args:     cmd.Args[1:],
		}
	}

	// Transaction control commands always go through the dispatcher, which
	// special-cases them against client.Session directly.
	if IsTransactionCommand(command) {
		response := h.dispatcher.Dispatch(client.Session, cmd.Args)
		return PipelineResult{
			Response: response,
			Duration: time.Since(start),
			Command:  command,
			Args:     cmd.Args[1:],
		}
	}

	// Blocking commands never run through the registry - they park the
	// connection on the blocking manager instead of returning a reply
	// synchronously - so they are rejected inside a transaction exactly as
	// before, and otherwise run their own dedicated path.
	if IsBlockingCommand(command) {
		if client.Session.InTx() {
			return PipelineResult{
				Response: protocol.EncodeError("ERR " + command + " is not allowed in a transaction"),
				Duration: time.Since(start),
				Command:  command,
				Args:     cmd.Args[1:],
			}
		}
		return h.executeBlockingCommand(ctx, client, cmd, command, start)
	}

	// Every other command: the dispatcher decides whether to queue it
	// (session is IN_TX) or run it immediately, and in either case applies
	// arity/role validation, slowlog observation and AOF/replica/monitor
	// propagation uniformly.
	response := h.dispatcher.Dispatch(client.Session, cmd.Args)
	return PipelineResult{
		Response: response,
		Duration: time.Since(start),
		Command:  command,
		Args:     cmd.Args[1:],
	}
}
