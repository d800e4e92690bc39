package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/latticekv/lattice/internal/protocol"
	corelog "github.com/latticekv/lattice/internal/slowlog"
)

// handleSlowLog handles SLOWLOG command
// SLOWLOG GET [count] - Get slow log entries
// SLOWLOG LEN - Get slow log length
// SLOWLOG RESET - Reset slow log
func (h *CommandHandler) handleSlowLog(cmd *protocol.Command) []byte {
	if len(cmd.Args) < 2 {
		return protocol.EncodeError("ERR wrong number of arguments for 'slowlog' command")
	}

	subcommand := strings.ToUpper(cmd.Args[1])

	switch subcommand {
	case "GET":
		return h.handleSlowLogGet(cmd)
	case "LEN":
		return h.handleSlowLogLen()
	case "RESET":
		return h.handleSlowLogReset()
	default:
		return protocol.EncodeError(fmt.Sprintf("ERR unknown subcommand '%s'. Try SLOWLOG GET, SLOWLOG LEN, SLOWLOG RESET", subcommand))
	}
}

// handleSlowLogGet returns slow log entries, each a 6-element array: id,
// timestamp, duration (microseconds), argv, peer address, client name.
func (h *CommandHandler) handleSlowLogGet(cmd *protocol.Command) []byte {
	count := 10
	if len(cmd.Args) >= 3 {
		var err error
		count, err = strconv.Atoi(cmd.Args[2])
		if err != nil {
			return protocol.EncodeError("ERR value is not an integer or out of range")
		}
	}

	entries := h.slowLog.GetCore().Get(count)

	encoded := make([][]byte, len(entries))
	for i, entry := range entries {
		encoded[i] = encodeSlowLogEntry(entry)
	}

	return protocol.EncodeRawArray(encoded)
}

func encodeSlowLogEntry(e corelog.Entry) []byte {
	fields := [][]byte{
		protocol.EncodeInteger64(e.ID),
		protocol.EncodeInteger64(e.Timestamp.Unix()),
		protocol.EncodeInteger64(e.DurationUs),
		protocol.EncodeArray(e.Args),
		protocol.EncodeBulkString(e.PeerAddr),
		protocol.EncodeBulkString(e.ClientName),
	}
	return protocol.EncodeRawArray(fields)
}

// handleSlowLogLen returns slow log length
func (h *CommandHandler) handleSlowLogLen() []byte {
	return protocol.EncodeInteger(h.slowLog.Len())
}

// handleSlowLogReset resets slow log
func (h *CommandHandler) handleSlowLogReset() []byte {
	h.slowLog.Reset()
	return protocol.EncodeSimpleString("OK")
}
