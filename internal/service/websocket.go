package service

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"codebattle/internal/models"
)

// Client 代表一個 WebSocket 客戶端連接
type Client struct {
	ID       string                     // 連線識別碼
	Conn     *websocket.Conn            // WebSocket 連接
	UserID   uint                       // 用戶 ID
	Username string                     // 用戶名
	RoomID   string                     // 目前訂閱的對戰房間，空字串表示只在大廳
	SendChan chan *models.ServerMessage // 消息發送通道，用於異步傳送消息

	sendMux sync.Mutex // 序列化投遞與關閉，廣播不會寫到已關閉的通道
	closed  bool
}

// closeSend 關閉發送通道，之後對這個連線的投遞都是 no-op
func (c *Client) closeSend() {
	c.sendMux.Lock()
	defer c.sendMux.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.SendChan)
}

// WebSocketManager 管理所有的 WebSocket 連接和消息傳遞
// 所有連線都隱含訂閱大廳頻道，另外最多訂閱一個對戰房間
type WebSocketManager struct {
	clientsMux sync.RWMutex
	clients    map[string]*Client          // 連線 ID -> client，即大廳的全部訂閱者
	users      map[uint]*Client            // 用戶 ID -> 目前有效的連線，重連時取代舊連線
	roomSubs   map[string]map[*Client]bool // 房間 ID -> 訂閱者集合

	rooms *RoomService
}

// NewWebSocketManager 創建並初始化新的 WebSocket 管理器
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:  make(map[string]*Client),
		users:    make(map[uint]*Client),
		roomSubs: make(map[string]map[*Client]bool),
	}
}

// BindRooms 綁定房間狀態機，於服務組裝時呼叫一次
func (s *WebSocketManager) BindRooms(rooms *RoomService) {
	s.rooms = rooms
}

// HandleConnection 處理新的 WebSocket 連接請求，阻塞直到連線結束
func (s *WebSocketManager) HandleConnection(conn *websocket.Conn, userID uint, username string) {
	client := &Client{
		ID:       uuid.NewString(),
		Conn:     conn,
		UserID:   userID,
		Username: username,
		SendChan: make(chan *models.ServerMessage, 256), // 設置緩衝大小為 256 的消息通道
	}

	s.addClient(client)

	defer s.teardown(client)

	// 啟動讀寫處理
	go s.writePump(client)
	s.readPump(client)
}

// teardown 在連線結束時先同步通知狀態機，再清理資源
// 若這條連線已被同一用戶的新連線取代，斷線轉換不得執行
func (s *WebSocketManager) teardown(client *Client) {
	if s.isCurrent(client) {
		s.rooms.HandleDisconnect(client.UserID)
	}
	s.removeClient(client)
	client.Conn.Close()
	client.closeSend()
}

// readPump 持續監聽並分派從客戶端接收的事件
func (s *WebSocketManager) readPump(client *Client) {
	client.Conn.SetReadLimit(65536)
	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket unexpected close error: %v", err)
			}
			break
		}

		// 解析接收到的事件
		var msg models.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("message parse error: %v", err)
			continue
		}

		s.dispatch(client, &msg)
	}
}

// dispatch 將客戶端事件轉成對狀態機的呼叫
// 驗證失敗只回覆給發送端，競態落敗同樣不會波及其他連線
func (s *WebSocketManager) dispatch(client *Client, msg *models.ClientMessage) {
	player := models.Player{UserID: client.UserID, Username: client.Username}

	switch msg.Type {
	case models.MsgCreateRoom:
		var p models.CreateRoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.send(client, models.NewErrorMessage("無效的請求內容"))
			return
		}
		if _, err := s.rooms.CreateRoom(p.ProblemID, player); err != nil {
			s.send(client, models.NewErrorMessage(err.Error()))
		}

	case models.MsgJoinRoom:
		var p models.JoinRoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.send(client, models.NewErrorMessage("無效的請求內容"))
			return
		}
		if err := s.rooms.JoinRoom(p.RoomID, player); err != nil {
			s.send(client, models.NewErrorMessage(err.Error()))
		}

	case models.MsgJoinBattleRoom:
		var p models.JoinRoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.send(client, models.NewErrorMessage("無效的請求內容"))
			return
		}
		s.Subscribe(client, p.RoomID)

	case models.MsgCodeChange:
		var p models.CodeChangePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return
		}
		s.rooms.RelayCode(p.RoomID, client.UserID, p.NewCode)

	case models.MsgIWon:
		var p models.IWonPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return
		}
		s.rooms.ClaimWin(p.RoomID, client.UserID)

	case models.MsgGetLobbyState:
		s.send(client, models.NewLobbyUpdate(s.rooms.LobbyState()))

	default:
		log.Printf("unknown message type: %s", msg.Type)
	}
}

// writePump 處理向客戶端發送消息的邏輯
func (s *WebSocketManager) writePump(client *Client) {
	// 設置心跳檢查計時器
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.SendChan:
			// 設置寫入超時
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := client.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			messageBytes, err := json.Marshal(message)
			if err != nil {
				log.Printf("message encoding error: %v", err)
				continue
			}

			if _, err := w.Write(messageBytes); err != nil {
				return
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			// 發送心跳包
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Subscribe 將連線訂閱到指定的對戰房間，一條連線最多訂閱一個房間
func (s *WebSocketManager) Subscribe(client *Client, roomID string) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	if client.RoomID != "" {
		s.unsubscribeLocked(client)
	}

	if s.roomSubs[roomID] == nil {
		s.roomSubs[roomID] = make(map[*Client]bool)
	}
	s.roomSubs[roomID][client] = true
	client.RoomID = roomID
}

// BroadcastLobby 向所有連線中的客戶端廣播大廳事件
func (s *WebSocketManager) BroadcastLobby(msg *models.ServerMessage) {
	s.clientsMux.RLock()
	targets := make([]*Client, 0, len(s.clients))
	for _, client := range s.clients {
		targets = append(targets, client)
	}
	s.clientsMux.RUnlock()

	for _, client := range targets {
		s.send(client, msg)
	}
}

// BroadcastToRoom 向房間的訂閱者廣播事件
// exceptUserID 不為零時跳過該用戶，用於程式碼轉發不回送給發送者
func (s *WebSocketManager) BroadcastToRoom(roomID string, msg *models.ServerMessage, exceptUserID uint) {
	s.clientsMux.RLock()
	targets := make([]*Client, 0, len(s.roomSubs[roomID]))
	for client := range s.roomSubs[roomID] {
		if exceptUserID != 0 && client.UserID == exceptUserID {
			continue
		}
		targets = append(targets, client)
	}
	s.clientsMux.RUnlock()

	for _, client := range targets {
		s.send(client, msg)
	}
}

// SendToUsers 對指定用戶逐一送出事件，用於 matchStart 這類點對點通知
func (s *WebSocketManager) SendToUsers(userIDs []uint, msg *models.ServerMessage) {
	s.clientsMux.RLock()
	targets := make([]*Client, 0, len(userIDs))
	for _, id := range userIDs {
		if client, ok := s.users[id]; ok {
			targets = append(targets, client)
		}
	}
	s.clientsMux.RUnlock()

	for _, client := range targets {
		s.send(client, msg)
	}
}

// send 將消息放入客戶端的發送通道
// 廣播快照與 teardown 可能交錯，已關閉的連線直接丟棄消息；
// 客戶端消息隊列已滿時直接關閉連接，由連線的 teardown 統一清理
func (s *WebSocketManager) send(client *Client, msg *models.ServerMessage) {
	client.sendMux.Lock()
	defer client.sendMux.Unlock()
	if client.closed {
		return
	}

	select {
	case client.SendChan <- msg:
	default:
		client.Conn.Close()
	}
}

// addClient 安全地登記新的客戶端連接
// 同一用戶重連時取代舊連線，不會產生重複映射
func (s *WebSocketManager) addClient(client *Client) {
	s.clientsMux.Lock()
	old := s.users[client.UserID]
	s.clients[client.ID] = client
	s.users[client.UserID] = client
	s.clientsMux.Unlock()

	if old != nil {
		old.Conn.Close()
	}
}

// removeClient 安全地移除客戶端連接
func (s *WebSocketManager) removeClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	delete(s.clients, client.ID)
	if s.users[client.UserID] == client {
		delete(s.users, client.UserID)
	}
	s.unsubscribeLocked(client)
}

func (s *WebSocketManager) unsubscribeLocked(client *Client) {
	if client.RoomID == "" {
		return
	}
	if subs, ok := s.roomSubs[client.RoomID]; ok {
		delete(subs, client)
		// 沒有訂閱者的房間頻道直接移除
		if len(subs) == 0 {
			delete(s.roomSubs, client.RoomID)
		}
	}
	client.RoomID = ""
}

// isCurrent 檢查該連線是否仍是用戶目前的有效連線
func (s *WebSocketManager) isCurrent(client *Client) bool {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()
	return s.users[client.UserID] == client
}

// ClientCount 獲取目前連線中的客戶端數量
func (s *WebSocketManager) ClientCount() int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()
	return len(s.clients)
}
