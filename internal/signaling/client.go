package signaling

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/quangtn/voicelink/pkg/logger"
)

var ErrNotConnected = errors.New("signaling channel is down")

// Handler receives inbound call events. Subscribed once at construction;
// the call Controller satisfies this interface.
type Handler interface {
	HandleInvite(peerID string, offer webrtc.SessionDescription, isVideo bool)
	HandleAnswer(peerID string, answer webrtc.SessionDescription)
	HandleRemoteCandidate(peerID string, candidate webrtc.ICECandidateInit)
	HandleEnd(peerID string)
	HandleReject(peerID string)
}

// Client is a websocket connection to the signaling server. It registers the
// local identity on every (re)connect and relays the five call message kinds
// between the server and the Handler.
type Client struct {
	url               string
	userID            string
	token             string
	handler           Handler
	reconnectAttempts int
	reconnectDelay    time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(url, userID, token string, handler Handler, reconnectAttempts int, reconnectDelay time.Duration) *Client {
	if reconnectAttempts <= 0 {
		reconnectAttempts = 5
	}
	if reconnectDelay <= 0 {
		reconnectDelay = time.Second
	}
	return &Client{
		url:               url,
		userID:            userID,
		token:             token,
		handler:           handler,
		reconnectAttempts: reconnectAttempts,
		reconnectDelay:    reconnectDelay,
		done:              make(chan struct{}),
	}
}

// Connect dials the server, registers the local user id and starts the read
// loop. Returns an error only when the initial dial fails.
func (c *Client) Connect() error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.register(); err != nil {
		logger.Log.Warnf("register with signaling server failed: %v", err)
	}
	go c.readLoop()
	return nil
}

func (c *Client) dial() (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(c.url, header)
	return conn, err
}

func (c *Client) register() error {
	return c.send(Message{Type: TypeRegister, UserID: c.userID})
}

// Connected reports whether the channel is currently usable. While down,
// calls cannot be placed or received; the API surfaces this as degraded
// connection status.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) SendInvite(peerID string, offer webrtc.SessionDescription, isVideo bool) error {
	return c.send(Message{Type: TypeInvite, CallerID: c.userID, CalleeID: peerID, Offer: &offer, IsVideo: isVideo})
}

func (c *Client) SendAnswer(peerID string, answer webrtc.SessionDescription) error {
	return c.send(Message{Type: TypeAnswer, CallerID: peerID, CalleeID: c.userID, Answer: &answer})
}

func (c *Client) SendIceCandidate(peerID string, candidate webrtc.ICECandidateInit) error {
	return c.send(Message{Type: TypeIceCandidate, SenderID: c.userID, TargetID: peerID, Candidate: &candidate})
}

func (c *Client) SendEnd(peerID string) error {
	return c.send(Message{Type: TypeEnd, SenderID: c.userID, TargetID: peerID})
}

func (c *Client) SendReject(peerID string) error {
	return c.send(Message{Type: TypeReject, CallerID: peerID, CalleeID: c.userID})
}

func (c *Client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			logger.Log.Warnf("signaling read failed: %v", err)
			if !c.reconnect() {
				return
			}
			continue
		}

		msg, err := ParseMessage(raw)
		if err != nil {
			logger.Log.Warnf("bad signaling message: %v", err)
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) reconnect() bool {
	c.mu.Lock()
	c.connected = false
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	delay := c.reconnectDelay
	for attempt := 1; attempt <= c.reconnectAttempts; attempt++ {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}
		delay *= 2

		conn, err := c.dial()
		if err != nil {
			logger.Log.Warnf("signaling reconnect %d/%d failed: %v", attempt, c.reconnectAttempts, err)
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.connected = true
		c.mu.Unlock()

		if err := c.register(); err != nil {
			logger.Log.Warnf("re-register after reconnect failed: %v", err)
		}
		logger.Log.Infof("signaling reconnected after %d attempts", attempt)
		return true
	}
	logger.Log.Errorf("signaling reconnect gave up after %d attempts", c.reconnectAttempts)
	return false
}

func (c *Client) dispatch(msg *Message) {
	switch msg.Type {
	case TypeInvite:
		if msg.Offer == nil {
			logger.Log.Warnf("call-invite from %s without offer", msg.CallerID)
			return
		}
		c.handler.HandleInvite(msg.CallerID, *msg.Offer, msg.IsVideo)
	case TypeAnswer:
		if msg.Answer == nil {
			logger.Log.Warnf("call-answer from %s without answer", msg.CalleeID)
			return
		}
		c.handler.HandleAnswer(msg.CalleeID, *msg.Answer)
	case TypeIceCandidate:
		if msg.Candidate == nil {
			return
		}
		c.handler.HandleRemoteCandidate(msg.SenderID, *msg.Candidate)
	case TypeEnd:
		c.handler.HandleEnd(msg.SenderID)
	case TypeReject:
		c.handler.HandleReject(msg.CalleeID)
	case TypeError:
		logger.Log.Warnf("signaling server error: %s", msg.Text)
	default:
		logger.Log.Debugf("unsupported signal type %q", msg.Type)
	}
}
