package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 4 * 1024
	maxSendChannelSize = 64
)

// Client одно WebSocket соединение с одной подпиской.
type Client struct {
	UserID string
	Topic  string

	ctx      context.Context
	cancel   context.CancelFunc
	conn     *websocket.Conn
	send     chan []byte
	mu       sync.RWMutex
	isClosed bool
	draining bool
	hub      *Hub
}

func NewClient(ctx context.Context, conn *websocket.Conn, userID, topic string) *Client {
	ctx, cancel := context.WithCancel(ctx)

	return &Client{
		UserID: userID,
		Topic:  topic,
		ctx:    ctx,
		cancel: cancel,
		conn:   conn,
		send:   make(chan []byte, maxSendChannelSize),
	}
}

// Context отменяется при закрытии соединения.
func (c *Client) Context() context.Context {
	return c.ctx
}

// ReadPump держит соединение: клиент ничего не присылает, читаем только control-фреймы.
func (c *Client) ReadPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure) {
				log.Printf("ws client %s read error: %v", c.UserID, err)
			}
			return
		}
	}
}

func (c *Client) WritePump() error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return nil
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return err
			}
			if c.hub != nil {
				c.hub.stats.EventsSent.Inc()
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func (c *Client) SendJSON(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("ws client marshal error: %v", err)
		return false
	}

	return c.SendRaw(data)
}

// SendRaw не блокирует: при переполнении очереди событие отбрасывается.
// Следующий снимок все равно полный.
func (c *Client) SendRaw(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.isClosed || c.draining {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		if c.hub != nil {
			c.hub.stats.EventsDropped.Inc()
		}
		return false
	}
}

// Fail отправляет событие напрямую, минуя очередь, и закрывает соединение.
// Вызывается только когда WritePump не запущен.
func (c *Client) Fail(ev OutEvent) {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(ev); err != nil {
		log.Printf("ws client %s: failed to send error: %v", c.UserID, err)
	}
	c.Close()
}

// Finish ставит последнее событие в очередь и закрывает ее: WritePump допишет
// событие, отправит close-фрейм и закроет соединение.
func (c *Client) Finish(ev OutEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("ws client marshal error: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed || c.draining {
		return
	}
	c.draining = true
	if data != nil {
		select {
		case c.send <- data:
		default:
		}
	}
	close(c.send)
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed {
		return
	}

	c.isClosed = true
	c.cancel()
	if !c.draining {
		close(c.send)
	}
	c.conn.Close()
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isClosed
}
