package models

import (
	"encoding/json"
)

// 客戶端送往伺服器的事件類型
const (
	MsgCreateRoom     = "createRoom"
	MsgJoinRoom       = "joinRoom"
	MsgJoinBattleRoom = "joinBattleRoom"
	MsgCodeChange     = "codeChange"
	MsgIWon           = "iWon"
	MsgGetLobbyState  = "getLobbyState"
)

// 伺服器推送給客戶端的事件類型
const (
	MsgLobbyUpdate        = "lobbyUpdate"
	MsgMatchStart         = "matchStart"
	MsgOpponentCodeChange = "opponentCodeChange"
	MsgMatchEnd           = "matchEnd"
	MsgNewCommentary      = "newCommentary"
	MsgError              = "error"
)

// ClientMessage 代表從 WebSocket 收到的客戶端事件
// Payload 依 Type 不同延後解析
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage 代表伺服器推送的事件
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// CreateRoomPayload 建立房間的請求內容
type CreateRoomPayload struct {
	ProblemID uint `json:"problemId"`
}

// JoinRoomPayload 加入房間的請求內容
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// IWonPayload 宣告獲勝事件的內容
type IWonPayload struct {
	RoomID string `json:"roomId"`
}

// CodeChangePayload 程式碼編輯事件的內容
type CodeChangePayload struct {
	RoomID  string `json:"roomId"`
	NewCode string `json:"newCode"`
}

// MatchStartPayload 對戰開始通知的內容
type MatchStartPayload struct {
	RoomID       string `json:"roomId"`
	ProblemID    uint   `json:"problemId"`
	ProblemTitle string `json:"problemTitle"`
}

// MatchEndPayload 對戰結束通知的內容
type MatchEndPayload struct {
	Winner string `json:"winner"`
	Reason string `json:"reason,omitempty"`
}

// NewLobbyUpdate 建立一個大廳房間列表更新事件
func NewLobbyUpdate(rooms []*Room) *ServerMessage {
	return &ServerMessage{Type: MsgLobbyUpdate, Payload: rooms}
}

// NewMatchStart 建立一個對戰開始事件
func NewMatchStart(roomID string, problemID uint, problemTitle string) *ServerMessage {
	return &ServerMessage{
		Type: MsgMatchStart,
		Payload: MatchStartPayload{
			RoomID:       roomID,
			ProblemID:    problemID,
			ProblemTitle: problemTitle,
		},
	}
}

// NewMatchEnd 建立一個對戰結束事件
func NewMatchEnd(winner, reason string) *ServerMessage {
	return &ServerMessage{
		Type:    MsgMatchEnd,
		Payload: MatchEndPayload{Winner: winner, Reason: reason},
	}
}

// NewOpponentCodeChange 建立一個對手程式碼更新事件
func NewOpponentCodeChange(code string) *ServerMessage {
	return &ServerMessage{Type: MsgOpponentCodeChange, Payload: code}
}

// NewCommentary 建立一條 AI 賽評事件
func NewCommentary(text string) *ServerMessage {
	return &ServerMessage{
		Type:    MsgNewCommentary,
		Payload: map[string]string{"text": text},
	}
}

// NewErrorMessage 建立一個只回給單一連線的錯誤事件
func NewErrorMessage(text string) *ServerMessage {
	return &ServerMessage{
		Type:    MsgError,
		Payload: map[string]string{"message": text},
	}
}
