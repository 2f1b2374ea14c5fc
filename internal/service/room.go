package service

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"codebattle/internal/models"
	"codebattle/internal/repository"
)

// 驗證類錯誤只回給呼叫端，不產生任何狀態變化
var (
	ErrProblemNotFound = errors.New("題目不存在")
	ErrRoomNotFound    = errors.New("房間不存在")
	ErrRoomNotJoinable = errors.New("房間不開放加入")
	ErrAlreadyInRoom   = errors.New("用戶已在房間內")
)

// RoomNotifier 是房間狀態機對外廣播的唯一出口
// 由 WebSocketManager 實作，測試時可替換成純記錄的假實作
type RoomNotifier interface {
	BroadcastLobby(msg *models.ServerMessage)
	BroadcastToRoom(roomID string, msg *models.ServerMessage, exceptUserID uint)
	SendToUsers(userIDs []uint, msg *models.ServerMessage)
}

// RoomService 管理所有對戰房間的生命週期
// rooms 只存在於記憶體中，所有變更都由同一把鎖序列化，
// 因此同一房間的狀態轉換有全序，搶最後一個名額的併發加入只會有一方成功
type RoomService struct {
	mu        sync.Mutex
	rooms     map[string]*models.Room
	userRooms map[uint]string // userID -> roomID，一名玩家同時只屬於一個房間

	problemRepo repository.ProblemRepository
	notifier    RoomNotifier
}

func NewRoomService(problemRepo repository.ProblemRepository, notifier RoomNotifier) *RoomService {
	return &RoomService{
		rooms:       make(map[string]*models.Room),
		userRooms:   make(map[uint]string),
		problemRepo: problemRepo,
		notifier:    notifier,
	}
}

// CreateRoom 建立一個新房間，建立者即為 players[0]
// 題目必須存在，房間以 waiting 狀態進入大廳
func (s *RoomService) CreateRoom(problemID uint, creator models.Player) (*models.Room, error) {
	problem, err := s.problemRepo.FindByID(problemID)
	if err != nil {
		return nil, ErrProblemNotFound
	}

	s.mu.Lock()
	if _, ok := s.userRooms[creator.UserID]; ok {
		s.mu.Unlock()
		return nil, ErrAlreadyInRoom
	}

	room := &models.Room{
		ID:           uuid.NewString(),
		ProblemID:    problem.ID,
		ProblemTitle: problem.Title,
		Players:      []models.Player{creator},
		Status:       models.RoomStatusWaiting,
		CreatedAt:    time.Now(),
	}
	s.rooms[room.ID] = room
	s.userRooms[creator.UserID] = room.ID

	snapshot := s.lobbySnapshotLocked()
	created := room.Clone()
	s.mu.Unlock()

	s.notifier.BroadcastLobby(models.NewLobbyUpdate(snapshot))
	return created, nil
}

// JoinRoom 讓玩家加入等待中的房間
// 人數湊滿兩人時轉為 in_progress，並對兩名玩家個別發送 matchStart
// 搶輸名額的一方只會收到錯誤回覆，不影響房間狀態
func (s *RoomService) JoinRoom(roomID string, player models.Player) error {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	if room.Status != models.RoomStatusWaiting || len(room.Players) >= 2 {
		s.mu.Unlock()
		return ErrRoomNotJoinable
	}
	// 與 CreateRoom 相同的全域檢查：已佔用任何房間的玩家不得再加入，
	// 否則舊房間會留著一個斷線也清不掉的幽靈玩家
	if _, ok := s.userRooms[player.UserID]; ok {
		s.mu.Unlock()
		return ErrAlreadyInRoom
	}

	room.Players = append(room.Players, player)
	room.Status = models.RoomStatusInProgress
	s.userRooms[player.UserID] = room.ID

	playerIDs := []uint{room.Players[0].UserID, room.Players[1].UserID}
	start := models.NewMatchStart(room.ID, room.ProblemID, room.ProblemTitle)
	snapshot := s.lobbySnapshotLocked()
	s.mu.Unlock()

	s.notifier.SendToUsers(playerIDs, start)
	s.notifier.BroadcastLobby(models.NewLobbyUpdate(snapshot))
	return nil
}

// ClaimWin 處理玩家宣告獲勝
// 只有 in_progress 的房間會被改寫，第一個被序列化的呼叫者得勝；
// 重複或過期的宣告是無聲的 no-op，因為網路競態會讓客戶端重送事件
func (s *RoomService) ClaimWin(roomID string, userID uint) {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if !ok || room.Status != models.RoomStatusInProgress || !room.HasPlayer(userID) {
		s.mu.Unlock()
		return
	}

	var winner models.Player
	for _, p := range room.Players {
		if p.UserID == userID {
			winner = p
		}
	}
	room.Winner = &winner
	room.Status = models.RoomStatusFinished

	snapshot := s.lobbySnapshotLocked()
	s.mu.Unlock()

	s.notifier.BroadcastToRoom(roomID, models.NewMatchEnd(winner.Username, ""), 0)
	s.notifier.BroadcastLobby(models.NewLobbyUpdate(snapshot))
}

// RelayCode 把玩家的程式碼轉發給房間內的其他訂閱者
// 純轉發，不是狀態轉換，也不落地保存
func (s *RoomService) RelayCode(roomID string, senderID uint, code string) {
	s.mu.Lock()
	_, ok := s.rooms[roomID]
	s.mu.Unlock()
	if !ok {
		return
	}

	s.notifier.BroadcastToRoom(roomID, models.NewOpponentCodeChange(code), senderID)
}

// HandleDisconnect 處理連線中斷
// 對戰中斷線由對手不戰而勝；房間無論先前狀態為何都會立即刪除
// Gateway 保證每次連線中斷只呼叫一次
func (s *RoomService) HandleDisconnect(userID uint) {
	s.mu.Lock()
	roomID, ok := s.userRooms[userID]
	if !ok {
		s.mu.Unlock()
		return
	}
	room := s.rooms[roomID]
	if room == nil {
		delete(s.userRooms, userID)
		s.mu.Unlock()
		return
	}

	var endMsg *models.ServerMessage
	if room.Status == models.RoomStatusInProgress && len(room.Players) == 2 {
		// 對手不戰而勝
		if opponent, found := room.Opponent(userID); found {
			room.Winner = &opponent
			room.Status = models.RoomStatusFinished
			endMsg = models.NewMatchEnd(opponent.Username, "opponent disconnected")
		}
	}

	for _, p := range room.Players {
		delete(s.userRooms, p.UserID)
	}
	delete(s.rooms, roomID)

	snapshot := s.lobbySnapshotLocked()
	s.mu.Unlock()

	if endMsg != nil {
		s.notifier.BroadcastToRoom(roomID, endMsg, 0)
	}
	s.notifier.BroadcastLobby(models.NewLobbyUpdate(snapshot))
}

// GetRoom 查詢單一房間的快照
func (s *RoomService) GetRoom(roomID string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room.Clone(), nil
}

// LobbyState 回傳所有房間的一致性快照，依建立時間排序
func (s *RoomService) LobbyState() []*models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lobbySnapshotLocked()
}

// lobbySnapshotLocked 在持鎖狀態下複製所有房間，廣播永遠不會看到變更到一半的房間
func (s *RoomService) lobbySnapshotLocked() []*models.Room {
	snapshot := make([]*models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		snapshot = append(snapshot, room.Clone())
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].CreatedAt.Before(snapshot[j].CreatedAt)
	})
	return snapshot
}
