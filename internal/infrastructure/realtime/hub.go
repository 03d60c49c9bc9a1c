package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
)

const (
	// 書き込みの締め切り
	writeWait = 10 * time.Second
	// pong を待つ時間
	pongWait = 60 * time.Second
	// ping の間隔。pongWait より短くする
	pingPeriod = (pongWait * 9) / 10
	// クライアントから受け付けるメッセージの最大サイズ
	maxMessageSize = 512
	// クライアントごとの送信バッファ
	sendBufferSize = 256
)

// Event クライアントへ送るメッセージ
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type envelope struct {
	userID  string
	payload []byte
}

// Hub ユーザーごとのWebSocket接続を管理し、イベントを配信する
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	publish    chan envelope
	done       chan struct{}
	stopOnce   sync.Once

	upgrader       websocket.Upgrader
	allowedOrigins map[string]struct{}
	allowAnyOrigin bool
	logger         *otelinfra.Logger
}

// HubOption Hubのオプション
type HubOption func(*Hub)

// WithAllowedOrigins 接続を許可するOriginを指定する
// "*" はすべてのOriginを許可する。未指定なら同一オリジンのみ
func WithAllowedOrigins(origins ...string) HubOption {
	return func(h *Hub) {
		for _, origin := range origins {
			origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
			switch origin {
			case "":
			case "*":
				h.allowAnyOrigin = true
			default:
				h.allowedOrigins[strings.ToLower(origin)] = struct{}{}
			}
		}
	}
}

// NewHub 新しいHubを作成
func NewHub(logger *otelinfra.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan envelope, sendBufferSize),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		allowedOrigins: make(map[string]struct{}),
		logger:         logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader.CheckOrigin = h.checkOrigin
	return h
}

// checkOrigin ブラウザからの接続は許可されたOriginか同一オリジンに限る
// access_token クエリで認証できるため、他サイトからの接続を拒否する
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// ブラウザ以外のクライアント
		return true
	}
	if h.allowAnyOrigin {
		return true
	}
	if _, ok := h.allowedOrigins[strings.ToLower(strings.TrimSuffix(origin, "/"))]; ok {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Run ctx が終了するまでイベントを配信する
func (h *Hub) Run(ctx context.Context) {
	defer h.stop()

	for {
		select {
		case <-ctx.Done():
			for userID, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			return

		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
			h.logger.Debug(ctx, "Realtime client connected", map[string]interface{}{
				"user_id":     client.userID,
				"connections": len(set),
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.publish:
			for client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.payload:
				default:
					// 受信が追いつかないクライアントは切断する
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Publish ユーザーの全接続へイベントを送る。接続がなければ破棄される
func (h *Hub) Publish(ctx context.Context, userID, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error(ctx, "Failed to encode realtime event", err, map[string]interface{}{
			"user_id":    userID,
			"event_type": eventType,
		})
		return
	}

	select {
	case h.publish <- envelope{userID: userID, payload: payload}:
	case <-h.done:
	case <-ctx.Done():
	}
}

// ServeWS HTTP接続をWebSocketへ昇格させ、userID の購読者として登録する
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return nil
}

// Client 1本のWebSocket接続
type Client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// readPump 受信は切断検知と pong のためだけに読む
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn(context.Background(), "Realtime connection closed unexpectedly", map[string]interface{}{
					"user_id": c.userID,
					"error":   err.Error(),
				})
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
