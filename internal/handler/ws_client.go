package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/choiseongjun/chat-with-stream/internal/domain"
	"github.com/choiseongjun/chat-with-stream/internal/service"
	"github.com/choiseongjun/chat-with-stream/pkg/log"
	"github.com/choiseongjun/chat-with-stream/pkg/pubsub"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 8 * 1024
	sendTimeout  = 5 * time.Second
)

// inboundFrame is what a connected client sends to post a message.
type inboundFrame struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// outboundError tells the client a send was rejected without dropping
// the connection.
type outboundError struct {
	Error string `json:"error"`
}

type wsClient struct {
	conn     *websocket.Conn
	sub      pubsub.Subscription
	roomID   int64
	userID   int64
	messages service.MessageService
	users    service.UserService
	errs     chan outboundError
	done     chan struct{}
}

func newWSClient(
	conn *websocket.Conn,
	sub pubsub.Subscription,
	roomID, userID int64,
	messages service.MessageService,
	users service.UserService,
) *wsClient {
	return &wsClient{
		conn:     conn,
		sub:      sub,
		roomID:   roomID,
		userID:   userID,
		messages: messages,
		users:    users,
		errs:     make(chan outboundError, 8),
		done:     make(chan struct{}),
	}
}

// readPump consumes inbound frames until the peer disconnects. Each frame
// is a message send; each pong refreshes the user's presence.
func (c *wsClient) readPump() {
	defer func() {
		close(c.done)
		c.sub.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.touchPresence()
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.L().Warn().Err(err).
					Int64(log.FieldUserID, c.userID).
					Int64(log.FieldRoomID, c.roomID).
					Msg("websocket closed unexpectedly")
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Content == "" {
			c.reject("malformed frame")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		_, err = c.messages.SendMessage(ctx, c.userID, &domain.CreateMessageRequest{
			RoomID:  c.roomID,
			Content: frame.Content,
			Type:    frame.Type,
		})
		cancel()
		if err != nil {
			c.reject(err.Error())
		}
	}
}

// reject queues an error frame for the writer. The connection has a single
// writer goroutine, so the reader never touches the socket directly.
func (c *wsClient) reject(msg string) {
	select {
	case c.errs <- outboundError{Error: msg}:
	default:
	}
}

// writePump forwards the room feed and keeps the connection alive with
// pings. It exits when the feed closes or the reader shuts down.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.sub.Events():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case rejection := <-c.errs:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(rejection); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) touchPresence() {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := c.users.Touch(ctx, c.userID); err != nil {
		log.L().Debug().Err(err).Int64(log.FieldUserID, c.userID).Msg("presence refresh failed")
	}
}
