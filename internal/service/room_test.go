package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"codebattle/internal/models"
)

// stubProblemRepo 提供測試用的題目查詢
type stubProblemRepo struct {
	problems map[uint]*models.Problem
}

func newStubProblemRepo() *stubProblemRepo {
	return &stubProblemRepo{problems: map[uint]*models.Problem{
		1: {Model: gorm.Model{ID: 1}, Title: "Two Sum", Difficulty: models.DifficultyEasy},
	}}
}

func (s *stubProblemRepo) Create(p *models.Problem) error {
	s.problems[p.ID] = p
	return nil
}

func (s *stubProblemRepo) FindByID(id uint) (*models.Problem, error) {
	p, ok := s.problems[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (s *stubProblemRepo) FindAll() ([]models.Problem, error) {
	var out []models.Problem
	for _, p := range s.problems {
		out = append(out, *p)
	}
	return out, nil
}

type roomBroadcast struct {
	roomID string
	msg    *models.ServerMessage
	except uint
}

type directSend struct {
	userIDs []uint
	msg     *models.ServerMessage
}

// recordingNotifier 記錄所有廣播呼叫，取代真實的 WebSocketManager
type recordingNotifier struct {
	mu     sync.Mutex
	lobby  []*models.ServerMessage
	room   []roomBroadcast
	direct []directSend
}

func (n *recordingNotifier) BroadcastLobby(msg *models.ServerMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lobby = append(n.lobby, msg)
}

func (n *recordingNotifier) BroadcastToRoom(roomID string, msg *models.ServerMessage, exceptUserID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.room = append(n.room, roomBroadcast{roomID: roomID, msg: msg, except: exceptUserID})
}

func (n *recordingNotifier) SendToUsers(userIDs []uint, msg *models.ServerMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.direct = append(n.direct, directSend{userIDs: userIDs, msg: msg})
}

// lastLobbyRooms 取最後一次大廳廣播的房間快照
func (n *recordingNotifier) lastLobbyRooms(t *testing.T) []*models.Room {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.lobby)
	rooms, ok := n.lobby[len(n.lobby)-1].Payload.([]*models.Room)
	require.True(t, ok)
	return rooms
}

func newTestRoomService() (*RoomService, *recordingNotifier) {
	notifier := &recordingNotifier{}
	return NewRoomService(newStubProblemRepo(), notifier), notifier
}

var (
	alice = models.Player{UserID: 1, Username: "alice"}
	bob   = models.Player{UserID: 2, Username: "bob"}
	carol = models.Player{UserID: 3, Username: "carol"}
)

func TestCreateRoom(t *testing.T) {
	svc, notifier := newTestRoomService()

	room, err := svc.CreateRoom(1, alice)
	require.NoError(t, err)

	assert.Equal(t, models.RoomStatusWaiting, room.Status)
	require.Len(t, room.Players, 1)
	assert.Equal(t, alice, room.Players[0])
	assert.Equal(t, "Two Sum", room.ProblemTitle)

	// 建立房間後大廳會收到新快照
	rooms := notifier.lastLobbyRooms(t)
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].ID)
}

func TestCreateRoomUnknownProblem(t *testing.T) {
	svc, notifier := newTestRoomService()

	_, err := svc.CreateRoom(99, alice)
	assert.ErrorIs(t, err, ErrProblemNotFound)
	assert.Empty(t, notifier.lobby) // 驗證失敗不產生任何狀態變化
}

func TestJoinRoomStartsMatch(t *testing.T) {
	svc, notifier := newTestRoomService()

	room, err := svc.CreateRoom(1, alice)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(room.ID, bob))

	got, err := svc.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusInProgress, got.Status)
	require.Len(t, got.Players, 2)

	// matchStart 是針對兩名玩家的點對點通知，不是大廳廣播
	require.Len(t, notifier.direct, 1)
	assert.ElementsMatch(t, []uint{alice.UserID, bob.UserID}, notifier.direct[0].userIDs)
	assert.Equal(t, models.MsgMatchStart, notifier.direct[0].msg.Type)
	payload, ok := notifier.direct[0].msg.Payload.(models.MatchStartPayload)
	require.True(t, ok)
	assert.Equal(t, room.ID, payload.RoomID)
	assert.Equal(t, uint(1), payload.ProblemID)
}

func TestJoinRoomNeverExceedsTwoPlayers(t *testing.T) {
	svc, _ := newTestRoomService()

	room, err := svc.CreateRoom(1, alice)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(room.ID, bob))

	// 第三人加入只會看到房間已滿
	err = svc.JoinRoom(room.ID, carol)
	assert.ErrorIs(t, err, ErrRoomNotJoinable)

	got, err := svc.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Len(t, got.Players, 2)
}

func TestJoinRoomRejectsOccupiedPlayer(t *testing.T) {
	svc, _ := newTestRoomService()

	roomA, err := svc.CreateRoom(1, alice)
	require.NoError(t, err)
	roomB, err := svc.CreateRoom(1, bob)
	require.NoError(t, err)

	// alice 已佔用房間 A，不得再加入其他房間
	err = svc.JoinRoom(roomB.ID, alice)
	assert.ErrorIs(t, err, ErrAlreadyInRoom)

	got, err := svc.GetRoom(roomB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusWaiting, got.Status)
	assert.Len(t, got.Players, 1)

	// 加入自己所在的房間同樣被拒
	assert.ErrorIs(t, svc.JoinRoom(roomA.ID, alice), ErrAlreadyInRoom)

	// 兩人斷線後大廳必須清空，不能留下無人能刪的孤兒房間
	svc.HandleDisconnect(alice.UserID)
	svc.HandleDisconnect(bob.UserID)
	assert.Empty(t, svc.LobbyState())
	_, err = svc.GetRoom(roomA.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinRoomConcurrentRace(t *testing.T) {
	svc, notifier := newTestRoomService()

	room, err := svc.CreateRoom(1, alice)
	require.NoError(t, err)

	// 多人同時搶最後一個名額，只能有一人成功
	const contenders = 16
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			player := models.Player{UserID: uint(100 + i), Username: "runner"}
			errs[i] = svc.JoinRoom(room.ID, player)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrRoomNotJoinable)
		}
	}
	assert.Equal(t, 1, succeeded)

	got, err := svc.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Len(t, got.Players, 2)
	assert.Len(t, notifier.direct, 1) // 落敗者不會收到 matchStart
}

func TestClaimWinFirstCallerWins(t *testing.T) {
	svc, notifier := newTestRoomService()

	room, err := svc.CreateRoom(1, alice)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(room.ID, bob))

	svc.ClaimWin(room.ID, alice.UserID)
	svc.ClaimWin(room.ID, bob.UserID) // 第二個宣告是無聲的 no-op

	got, err := svc.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusFinished, got.Status)
	require.NotNil(t, got.Winner)
	assert.Equal(t, alice.UserID, got.Winner.UserID)

	// 只會有一次 matchEnd 廣播
	ends := 0
	for _, b := range notifier.room {
		if b.msg.Type == models.MsgMatchEnd {
			ends++
			payload := b.msg.Payload.(models.MatchEndPayload)
			assert.Equal(t, "alice", payload.Winner)
		}
	}
	assert.Equal(t, 1, ends)
}

func TestClaimWinOnWaitingRoomIsNoop(t *testing.T) {
	svc, notifier := newTestRoomService()

	room, err := svc.CreateRoom(1, alice)
	require.NoError(t, err)

	svc.ClaimWin(room.ID, alice.UserID)

	got, err := svc.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusWaiting, got.Status)
	assert.Nil(t, got.Winner)
	assert.Empty(t, notifier.room)
}

func TestDisconnectForfeitsInProgressMatch(t *testing.T) {
	svc, notifier := newTestRoomService()

	room, err := svc.CreateRoom(1, alice)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(room.ID, bob))

	svc.HandleDisconnect(alice.UserID)

	// 對手不戰而勝，房間隨即從註冊表移除
	_, err = svc.GetRoom(room.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	var end *models.ServerMessage
	for _, b := range notifier.room {
		if b.msg.Type == models.MsgMatchEnd {
			end = b.msg
		}
	}
	require.NotNil(t, end)
	payload := end.Payload.(models.MatchEndPayload)
	assert.Equal(t, "bob", payload.Winner)
	assert.Equal(t, "opponent disconnected", payload.Reason)

	assert.Empty(t, notifier.lastLobbyRooms(t))
}

func TestDisconnectFromWaitingRoomDeletesWithoutWinner(t *testing.T) {
	svc, notifier := newTestRoomService()

	room, err := svc.CreateRoom(1, alice)
	require.NoError(t, err)

	svc.HandleDisconnect(alice.UserID)

	_, err = svc.GetRoom(room.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// 沒有對手就沒有 matchEnd，只有大廳快照更新
	for _, b := range notifier.room {
		assert.NotEqual(t, models.MsgMatchEnd, b.msg.Type)
	}
	assert.Empty(t, notifier.lastLobbyRooms(t))
}

func TestDisconnectAfterFinishKeepsOriginalWinner(t *testing.T) {
	svc, notifier := newTestRoomService()

	room, err := svc.CreateRoom(1, alice)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(room.ID, bob))

	svc.ClaimWin(room.ID, alice.UserID)
	svc.HandleDisconnect(alice.UserID) // 勝者先離開，不得改寫勝負

	ends := 0
	for _, b := range notifier.room {
		if b.msg.Type == models.MsgMatchEnd {
			ends++
			payload := b.msg.Payload.(models.MatchEndPayload)
			assert.Equal(t, "alice", payload.Winner)
		}
	}
	assert.Equal(t, 1, ends)

	_, err = svc.GetRoom(room.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRelayCodeSkipsSender(t *testing.T) {
	svc, notifier := newTestRoomService()

	room, err := svc.CreateRoom(1, alice)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(room.ID, bob))

	svc.RelayCode(room.ID, alice.UserID, "print('hi')")

	require.Len(t, notifier.room, 1)
	relay := notifier.room[0]
	assert.Equal(t, models.MsgOpponentCodeChange, relay.msg.Type)
	assert.Equal(t, alice.UserID, relay.except)
	assert.Equal(t, "print('hi')", relay.msg.Payload)

	// 不存在的房間轉發是無聲的 no-op
	svc.RelayCode("missing", alice.UserID, "x")
	assert.Len(t, notifier.room, 1)
}

// TestLobbyFlowEndToEnd 依序走完一場完整對戰的大廳視角
func TestLobbyFlowEndToEnd(t *testing.T) {
	svc, notifier := newTestRoomService()

	room, err := svc.CreateRoom(1, alice)
	require.NoError(t, err)

	rooms := notifier.lastLobbyRooms(t)
	require.Len(t, rooms, 1)
	assert.Equal(t, models.RoomStatusWaiting, rooms[0].Status)
	assert.Len(t, rooms[0].Players, 1)

	require.NoError(t, svc.JoinRoom(room.ID, bob))

	rooms = notifier.lastLobbyRooms(t)
	require.Len(t, rooms, 1)
	assert.Equal(t, models.RoomStatusInProgress, rooms[0].Status)
	assert.Len(t, rooms[0].Players, 2)
	require.Len(t, notifier.direct, 1)
	assert.Equal(t, models.MsgMatchStart, notifier.direct[0].msg.Type)

	svc.ClaimWin(room.ID, alice.UserID)

	svc.HandleDisconnect(alice.UserID)
	svc.HandleDisconnect(bob.UserID)
	assert.Empty(t, svc.LobbyState())
}

func TestLobbySnapshotIsIsolated(t *testing.T) {
	svc, _ := newTestRoomService()

	room, err := svc.CreateRoom(1, alice)
	require.NoError(t, err)

	snapshot := svc.LobbyState()
	require.Len(t, snapshot, 1)
	snapshot[0].Players = append(snapshot[0].Players, carol)

	// 修改快照不影響註冊表中的房間
	got, err := svc.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Len(t, got.Players, 1)
}
