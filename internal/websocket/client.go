package websocket

import (
	"bytes"
	"fmt"
	"log"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту читать следующее сообщение.
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту.
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения
	maxMessageSize = 4096

	// Размер буфера канала отправки сообщений клиенту
	defaultClientBufferSize = 128

	// Максимальное количество переполнений буфера до отключения клиента
	maxBufferWarnings = 3
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Client является посредником между WebSocket-соединением и хабом.
// Игроки не аутентифицируются, поэтому единственная идентичность
// соединения — его ConnectionID.
type Client struct {
	// Уникальный ID соединения
	ConnectionID string

	hub  *Hub
	conn *websocket.Conn

	// Буферизованный канал для исходящих сообщений
	send chan []byte

	// Флаг закрытия канала send (для предотвращения panic при двойном закрытии)
	sendClosed atomic.Bool

	// Счётчик переполнений буфера отправки
	bufferWarnings atomic.Int32

	lastActivity time.Time
}

// NewClient создает нового клиента
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ConnectionID: uuid.New().String(),
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, defaultClientBufferSize),
		lastActivity: time.Now(),
	}
}

// StartPumps регистрирует клиента в хабе и запускает горутины чтения/записи
func (c *Client) StartPumps(messageHandler func(message []byte, client *Client) error) {
	c.hub.RegisterClient(c)
	go c.writePump()
	go c.readPump(messageHandler)
}

// readPump читает сообщения от клиента и передает их обработчику
func (c *Client) readPump(messageHandler func(message []byte, client *Client) error) {
	defer func() {
		// Disconnect: хаб детерминированно убирает клиента из всех комнат
		c.hub.UnregisterClient(c)
		c.conn.Close()
		log.Printf("WebSocket: read pump stopped (Conn: %s)", c.ConnectionID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.lastActivity = time.Now()
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket: read error (Conn: %s): %v", c.ConnectionID, err)
			}
			break
		}

		c.lastActivity = time.Now()

		if handlerErr := safeHandleMessage(message, c, messageHandler); handlerErr != nil {
			// Ошибка обработчика фатальна для соединения
			log.Printf("WebSocket: handler error (Conn: %s): %v. Closing connection.", c.ConnectionID, handlerErr)
			break
		}

		// Любое входящее сообщение сбрасывает счётчик переполнений
		c.bufferWarnings.Store(0)
	}
}

// safeHandleMessage — обертка для вызова обработчика с recover.
// Паника в обработчике считается фатальной ошибкой соединения.
func safeHandleMessage(message []byte, client *Client, messageHandler func(message []byte, client *Client) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC recovered in message handler (Conn: %s). Panic: %v\nStack trace:\n%s",
				client.ConnectionID, r, string(debug.Stack()))
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()

	message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
	if messageHandler == nil {
		log.Printf("Warning: no message handler registered for connection %s", client.ConnectionID)
		return nil
	}
	return messageHandler(message, client)
}

// writePump отправляет сообщения клиенту из канала send
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		log.Printf("WebSocket: write pump stopped (Conn: %s)", c.ConnectionID)
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("WebSocket: SetWriteDeadline error (Conn: %s): %v", c.ConnectionID, err)
				return
			}

			if !ok {
				// Хаб закрыл канал клиента
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				log.Printf("WebSocket: NextWriter error (Conn: %s): %v", c.ConnectionID, err)
				return
			}
			if _, err := w.Write(message); err != nil {
				log.Printf("WebSocket: write error (Conn: %s): %v", c.ConnectionID, err)
			}
			if err := w.Close(); err != nil {
				log.Printf("WebSocket: writer close error (Conn: %s): %v", c.ConnectionID, err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("WebSocket: ping error (Conn: %s): %v", c.ConnectionID, err)
				return
			}
		}
	}
}

// trySend кладёт сообщение в буфер клиента без блокировки.
// Возвращает false при переполнении буфера или закрытом канале.
func (c *Client) trySend(message []byte) bool {
	if c.sendClosed.Load() {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		warnings := c.bufferWarnings.Add(1)
		log.Printf("WebSocket: send buffer full (Conn: %s), warning %d/%d", c.ConnectionID, warnings, maxBufferWarnings)
		return false
	}
}

// shouldDisconnect сообщает, что клиент слишком медленный и его пора отключить
func (c *Client) shouldDisconnect() bool {
	return c.bufferWarnings.Load() >= maxBufferWarnings
}

// CloseSend безопасно закрывает канал send (только один раз).
// Возвращает true, если канал был закрыт этим вызовом.
func (c *Client) CloseSend() bool {
	if c.sendClosed.CompareAndSwap(false, true) {
		close(c.send)
		return true
	}
	return false
}
