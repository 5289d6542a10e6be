package packet

// Client → server opcodes.
const (
	C_OPCODE_JOIN        byte = 0x01 // join-ready: name + screen size
	C_OPCODE_HEARTBEAT   byte = 0x02 // pointer target
	C_OPCODE_EJECT       byte = 0x03
	C_OPCODE_SPLIT       byte = 0x04
	C_OPCODE_RESPAWN     byte = 0x05
	C_OPCODE_RESIZE      byte = 0x06
	C_OPCODE_PING        byte = 0x07
	C_OPCODE_SPECTATE    byte = 0x08
	C_OPCODE_CHAT        byte = 0x09
	C_OPCODE_ADMIN_LOGIN byte = 0x0A
	C_OPCODE_ADMIN_KICK  byte = 0x0B
	C_OPCODE_QUIT        byte = 0x0C
)

// Server → client opcodes.
const (
	S_OPCODE_WELCOME      byte = 0x81
	S_OPCODE_PLAYER_JOIN  byte = 0x82
	S_OPCODE_PLAYER_LEAVE byte = 0x83
	S_OPCODE_PLAYER_DIED  byte = 0x84
	S_OPCODE_TICK_STATE   byte = 0x85
	S_OPCODE_LEADERBOARD  byte = 0x86
	S_OPCODE_KICK         byte = 0x87
	S_OPCODE_RIP          byte = 0x88
	S_OPCODE_SERVER_MSG   byte = 0x89
	S_OPCODE_CHAT         byte = 0x8A
	S_OPCODE_PONG         byte = 0x8B
)

// OpcodeName returns a short name for logging.
func OpcodeName(op byte) string {
	switch op {
	case C_OPCODE_JOIN:
		return "join"
	case C_OPCODE_HEARTBEAT:
		return "heartbeat"
	case C_OPCODE_EJECT:
		return "eject"
	case C_OPCODE_SPLIT:
		return "split"
	case C_OPCODE_RESPAWN:
		return "respawn"
	case C_OPCODE_RESIZE:
		return "resize"
	case C_OPCODE_PING:
		return "ping"
	case C_OPCODE_SPECTATE:
		return "spectate"
	case C_OPCODE_CHAT:
		return "chat"
	case C_OPCODE_ADMIN_LOGIN:
		return "admin-login"
	case C_OPCODE_ADMIN_KICK:
		return "admin-kick"
	case C_OPCODE_QUIT:
		return "quit"
	case S_OPCODE_WELCOME:
		return "welcome"
	case S_OPCODE_PLAYER_JOIN:
		return "player-joined"
	case S_OPCODE_PLAYER_LEAVE:
		return "player-disconnected"
	case S_OPCODE_PLAYER_DIED:
		return "player-died"
	case S_OPCODE_TICK_STATE:
		return "tick-state"
	case S_OPCODE_LEADERBOARD:
		return "leaderboard"
	case S_OPCODE_KICK:
		return "forced-disconnect"
	case S_OPCODE_RIP:
		return "rip"
	case S_OPCODE_SERVER_MSG:
		return "server-message"
	case S_OPCODE_CHAT:
		return "chat"
	case S_OPCODE_PONG:
		return "pong"
	}
	return "unknown"
}
