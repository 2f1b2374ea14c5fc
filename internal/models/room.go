package models

import (
	"time"
)

// Room 表示一個對戰房間
// 房間只存在於記憶體中，由 RoomService 統一管理，不寫入資料庫
type Room struct {
	ID           string     `json:"id"`
	ProblemID    uint       `json:"problemId"`
	ProblemTitle string     `json:"problemTitle"`
	Players      []Player   `json:"players"` // 依加入順序排列，players[0] 為房主，最多兩人
	Status       RoomStatus `json:"status"`
	Winner       *Player    `json:"winner,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Player 表示房間內的一名玩家
type Player struct {
	UserID   uint   `json:"id"`
	Username string `json:"username"`
}

// RoomStatus 定義房間狀態的類型
type RoomStatus string

const (
	RoomStatusWaiting    RoomStatus = "waiting"     // 等待對手加入
	RoomStatusInProgress RoomStatus = "in_progress" // 雙方對戰中
	RoomStatusFinished   RoomStatus = "finished"    // 已分出勝負或對戰中止
)

// HasPlayer 檢查指定用戶是否在房間內
func (r *Room) HasPlayer(userID uint) bool {
	for _, p := range r.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Opponent 回傳指定用戶的對手，若沒有對手則回傳 false
func (r *Room) Opponent(userID uint) (Player, bool) {
	for _, p := range r.Players {
		if p.UserID != userID {
			return p, true
		}
	}
	return Player{}, false
}

// Clone 複製房間資料，用於廣播時的一致性快照
func (r *Room) Clone() *Room {
	cp := *r
	cp.Players = make([]Player, len(r.Players))
	copy(cp.Players, r.Players)
	if r.Winner != nil {
		w := *r.Winner
		cp.Winner = &w
	}
	return &cp
}
