package txengine

// WriteKeys returns the keys a write command's argv affects, used to decide
// which WATCHers must be marked dirty-CAS. It returns nil both for commands
// it does not recognize and for the whole-keyspace commands (FLUSHALL,
// FLUSHDB), so neither marks any watcher dirty-CAS. keyspace.DB.TouchOnFlush
// implements the flush-time touch, but no command path calls it.
func WriteKeys(cmd string, args []string) []string {
	if len(args) == 0 {
		return nil
	}

	switch cmd {
	case "SET", "SETEX", "PSETEX", "SETNX", "GETSET", "GETDEL", "GETEX",
		"INCR", "INCRBY", "INCRBYFLOAT", "DECR", "DECRBY", "APPEND", "SETRANGE":
		return []string{args[0]}

	case "MSET", "MSETNX":
		keys := make([]string, 0, len(args)/2)
		for i := 0; i < len(args); i += 2 {
			keys = append(keys, args[i])
		}
		return keys

	case "LPUSH", "RPUSH", "LPUSHX", "RPUSHX", "LPOP", "RPOP", "LSET", "LREM", "LTRIM", "LINSERT":
		return []string{args[0]}

	case "RPOPLPUSH", "LMOVE":
		if len(args) >= 2 {
			return []string{args[0], args[1]}
		}
		return []string{args[0]}

	case "HSET", "HMSET", "HSETNX", "HDEL", "HINCRBY", "HINCRBYFLOAT":
		return []string{args[0]}

	case "SADD", "SREM", "SPOP", "SMOVE":
		return []string{args[0]}

	case "SUNIONSTORE", "SINTERSTORE", "SDIFFSTORE", "ZUNIONSTORE", "ZINTERSTORE":
		return []string{args[0]}

	case "ZADD", "ZINCRBY", "ZREM", "ZREMRANGEBYSCORE", "ZREMRANGEBYRANK", "ZREMRANGEBYLEX", "ZPOPMIN", "ZPOPMAX":
		return []string{args[0]}

	case "DEL", "UNLINK":
		return args

	case "RENAME", "RENAMENX", "COPY":
		if len(args) >= 2 {
			return []string{args[0], args[1]}
		}
		return []string{args[0]}

	case "EXPIRE", "EXPIREAT", "PEXPIRE", "PEXPIREAT", "PERSIST":
		return []string{args[0]}

	case "FLUSHALL", "FLUSHDB":
		return nil
	}

	return nil
}
