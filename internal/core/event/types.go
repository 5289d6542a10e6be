package event

// Player lifecycle events. IDs are session IDs (one player per session).

type PlayerJoined struct {
	PlayerID  uint64
	Name      string
	Spectator bool
}

type PlayerLeft struct {
	PlayerID uint64
	Name     string
}

type PlayerDied struct {
	PlayerID uint64
	Name     string
	Mass     float64
}

type PlayerKicked struct {
	PlayerID uint64
	Name     string
	Reason   string
}
