package timer

// PlayerSnapshot is an immutable copy of one seat's accounting, with
// durations in milliseconds for transport.
type PlayerSnapshot struct {
	Name               string `json:"name"`
	TotalReserveMs     int64  `json:"total_reserve_ms"`
	RemainingReserveMs int64  `json:"remaining_reserve_ms"`
	TotalUsedMs        int64  `json:"total_used_ms"`
	ReserveUsedMs      int64  `json:"reserve_used_ms"`
	Out                bool   `json:"out"`
}

// Snapshot is an immutable copy of the full game state, safe to hand to a
// renderer or serialize for broadcast while the game keeps advancing.
type Snapshot struct {
	Players         []PlayerSnapshot `json:"players"`
	ActiveIndex     int              `json:"active_index"`
	TurnTotalMs     int64            `json:"turn_total_ms"`
	TurnRemainingMs int64            `json:"turn_remaining_ms"`
	Running         bool             `json:"running"`
	OnReserve       bool             `json:"on_reserve"`
	BankUnusedTime  bool             `json:"bank_unused_time"`
}

// Snapshot copies the current state. The copy shares nothing with the live
// state machine.
func (gt *GameTimer) Snapshot() Snapshot {
	players := make([]PlayerSnapshot, len(gt.players))
	for i, p := range gt.players {
		players[i] = PlayerSnapshot{
			Name:               p.name,
			TotalReserveMs:     p.totalReserve.Milliseconds(),
			RemainingReserveMs: p.remainingReserve.Milliseconds(),
			TotalUsedMs:        p.totalUsed.Milliseconds(),
			ReserveUsedMs:      p.reserveUsed.Milliseconds(),
			Out:                p.out,
		}
	}
	return Snapshot{
		Players:         players,
		ActiveIndex:     gt.activeIndex,
		TurnTotalMs:     gt.turnTotal.Milliseconds(),
		TurnRemainingMs: gt.turnRemaining.Milliseconds(),
		Running:         gt.running,
		OnReserve:       gt.onReserve,
		BankUnusedTime:  gt.bankUnusedTime,
	}
}
