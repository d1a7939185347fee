package session

import (
	"bufio"
	"net"

	"github.com/gorilla/websocket"
)

// maxLineBytes bounds a single inbound frame so a misbehaving client cannot
// grow the read buffer without limit.
const maxLineBytes = 64 * 1024

// Transport carries one line-framed JSON message per call in either
// direction. Implementations exist for raw TCP (newline-delimited) and
// WebSocket (one text message per frame); the protocol on top is identical.
type Transport interface {
	// ReadLine blocks for the next inbound frame. Any error, including
	// end-of-stream, means the connection is gone.
	ReadLine() ([]byte, error)

	// WriteLine sends one outbound frame. Callers serialize access; the
	// transport itself does not lock.
	WriteLine(data []byte) error

	Close() error
	RemoteAddr() string
}

type tcpTransport struct {
	conn    net.Conn
	scanner *bufio.Scanner
	writer  *bufio.Writer
}

// NewTCPTransport wraps a TCP connection in newline-delimited framing.
func NewTCPTransport(conn net.Conn) Transport {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), maxLineBytes)
	return &tcpTransport{
		conn:    conn,
		scanner: scanner,
		writer:  bufio.NewWriter(conn),
	}
}

func (t *tcpTransport) ReadLine() ([]byte, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, net.ErrClosed
	}
	return t.scanner.Bytes(), nil
}

func (t *tcpTransport) WriteLine(data []byte) error {
	if _, err := t.writer.Write(data); err != nil {
		return err
	}
	if err := t.writer.WriteByte('\n'); err != nil {
		return err
	}
	return t.writer.Flush()
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

func (t *tcpTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

type wsTransport struct {
	conn *websocket.Conn
}

// NewWebSocketTransport adapts a WebSocket connection to the same framing:
// one text message per protocol envelope, no newline needed.
func NewWebSocketTransport(conn *websocket.Conn) Transport {
	conn.SetReadLimit(maxLineBytes)
	return &wsTransport{conn: conn}
}

func (t *wsTransport) ReadLine() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (t *wsTransport) WriteLine(data []byte) error {
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

func (t *wsTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
