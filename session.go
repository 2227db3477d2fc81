package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Conn is the narrow transport surface the room depends on. Transport
// objects carry no room state; everything the room needs about a connection
// lives in its own session records.
type Conn interface {
	Send(data []byte, binary bool) error
	Close() error
}

// Codec serializes outbound messages for one session.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Binary() bool
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }
func (jsonCodec) Binary() bool                  { return false }

type msgpackCodec struct{}

func (msgpackCodec) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }
func (msgpackCodec) Binary() bool                  { return true }

// JSONCodec returns the default text codec.
func JSONCodec() Codec { return jsonCodec{} }

// MsgpackCodec returns the binary codec for clients that negotiate it.
func MsgpackCodec() Codec { return msgpackCodec{} }

// wsConn wraps a websocket connection with a write mutex and deadline.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewWSConn adapts a gorilla connection to the room's Conn surface.
func NewWSConn(conn *websocket.Conn) Conn {
	return &wsConn{conn: conn}
}

func (c *wsConn) Send(data []byte, binary bool) error {
	messageType := websocket.TextMessage
	if binary {
		messageType = websocket.BinaryMessage
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// session pairs a live connection with its negotiated codec.
type session struct {
	conn  Conn
	codec Codec
}

func (s *session) send(codec Codec, v any) error {
	data, err := codec.Marshal(v)
	if err != nil {
		return err
	}
	return s.conn.Send(data, codec.Binary())
}

func (s *session) sendMessage(v any) error {
	return s.send(s.codec, v)
}
