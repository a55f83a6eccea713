package jdwp

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/logging"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

// IDSizes records the per-connection byte widths the target VM reports for
// each handle kind (VirtualMachine.IDSizes, command set 1 command 7). Most
// HotSpot builds use 8 for everything, but nothing in this protocol
// guarantees it.
type IDSizes struct {
	FieldIDSize         int
	MethodIDSize        int
	ObjectIDSize        int
	ReferenceTypeIDSize int
	FrameIDSize         int
}

// Client is a connected JDWP session to one target JVM. It owns the TCP
// socket, the background read loop, and reply correlation. The dispatch
// pattern (atomic id counter, pending map, single reader goroutine) mirrors
// teranos-QNTX/qntx-code/langserver/gopls/client.go's StdioClient.
type Client struct {
	host string
	port int

	mu       sync.Mutex
	conn     net.Conn
	sizes    IDSizes
	attached bool

	nextID  uint32
	pending map[uint32]chan *incomingPacket

	events chan *CompositeEvent

	closeOnce sync.Once
	done      chan struct{}
}

// CompositeEvent is one decoded Event.Composite notification. Interpreting
// the payload of each sub-event is left to callers (internal/orchestrator
// drains them into internal/inspector's event history; internal/control
// reads none).
type CompositeEvent struct {
	SuspendPolicy byte
	Kind          EventKind
	RequestID     uint32
	ThreadID      uint64
	Raw           []byte
}

// NewClient constructs an unattached client for host:port. Attach must be
// called before any command is sent.
func NewClient(host string, port int) *Client {
	return &Client{
		host:    host,
		port:    port,
		pending: make(map[uint32]chan *incomingPacket),
		events:  make(chan *CompositeEvent, 64),
	}
}

// Events returns the channel of incoming composite events. Callers that do
// not need events (e.g. a client created solely to probe the platform
// classpath) may ignore it; the read loop never blocks on it and drops
// events once its buffer is full.
func (c *Client) Events() <-chan *CompositeEvent {
	return c.events
}

// Attach dials the target, performs the JDWP handshake, negotiates ID
// sizes, and starts the read loop. Reattaching an already-attached client
// is a no-op.
func (c *Client) Attach(ctx context.Context) error {
	c.mu.Lock()
	if c.attached {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return xerrors.Wrap(xerrors.WrapKind(err, xerrors.TransportFailed), "dialing "+addr)
	}

	if err := performHandshake(conn); err != nil {
		conn.Close()
		return xerrors.WrapKind(err, xerrors.ProtocolMismatch)
	}

	c.mu.Lock()
	c.conn = conn
	c.done = make(chan struct{})
	c.attached = true
	c.mu.Unlock()

	go c.readLoop()

	sizes, err := c.fetchIDSizes(ctx)
	if err != nil {
		c.Detach()
		return xerrors.WrapKind(err, xerrors.ProtocolMismatch)
	}
	c.mu.Lock()
	c.sizes = sizes
	c.mu.Unlock()

	logging.Logger.Infow("jdwp attached", logging.FieldHost, c.host, logging.FieldPort, c.port)
	return nil
}

func performHandshake(conn net.Conn) error {
	if _, err := conn.Write([]byte(handshakeMagic)); err != nil {
		return xerrors.Wrapf(err, "sending handshake")
	}
	reply := make([]byte, len(handshakeMagic))
	if _, err := readFull(conn, reply); err != nil {
		return xerrors.Wrapf(err, "reading handshake reply")
	}
	if string(reply) != handshakeMagic {
		return xerrors.Newf("unexpected handshake reply %q", reply)
	}
	return nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// IsAlive sends VirtualMachine.Version, the cheapest round trip available,
// and reports whether the session still answers.
func (c *Client) IsAlive(ctx context.Context) bool {
	c.mu.Lock()
	attached := c.attached
	c.mu.Unlock()
	if !attached {
		return false
	}
	_, err := c.Command(ctx, csVirtualMachine, cmdVMVersion, nil)
	return err == nil
}

// GetHandle reattaches using the last-known host:port, for the "session
// dropped, reconnect to the same endpoint" case spec.md section 4.1 names.
func (c *Client) GetHandle(ctx context.Context) (*Client, error) {
	c.mu.Lock()
	alive := c.attached
	c.mu.Unlock()
	if alive && c.IsAlive(ctx) {
		return c, nil
	}
	fresh := NewClient(c.host, c.port)
	if err := fresh.Attach(ctx); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Detach closes the local socket without sending VirtualMachine.Dispose:
// per spec.md section 4.1 this engine never tears down the debuggee, only
// its own view of it, since the upstream proxy may be serving other
// collaborators on the same connection.
func (c *Client) Detach() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		conn := c.conn
		c.attached = false
		done := c.done
		c.mu.Unlock()

		if conn != nil {
			conn.Close()
		}
		if done != nil {
			close(done)
		}
		logging.Logger.Infow("jdwp detached", logging.FieldHost, c.host, logging.FieldPort, c.port)
	})
}

// Sizes returns the negotiated ID widths. Only meaningful after Attach.
func (c *Client) Sizes() IDSizes {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sizes
}

func (c *Client) fetchIDSizes(ctx context.Context) (IDSizes, error) {
	reply, err := c.Command(ctx, csVirtualMachine, cmdVMIDSizes, nil)
	if err != nil {
		return IDSizes{}, err
	}
	if len(reply) < 20 {
		return IDSizes{}, xerrors.Newf("jdwp: short IDSizes reply (%d bytes)", len(reply))
	}
	return IDSizes{
		FieldIDSize:         int(binary.BigEndian.Uint32(reply[0:4])),
		MethodIDSize:        int(binary.BigEndian.Uint32(reply[4:8])),
		ObjectIDSize:        int(binary.BigEndian.Uint32(reply[8:12])),
		ReferenceTypeIDSize: int(binary.BigEndian.Uint32(reply[12:16])),
		FrameIDSize:         int(binary.BigEndian.Uint32(reply[16:20])),
	}, nil
}

// Command sends one request and blocks for its reply, or until ctx is
// done. A non-zero JDWP error code is surfaced as an error rather than a
// reply payload.
func (c *Client) Command(ctx context.Context, cmdSet, cmd byte, data []byte) ([]byte, error) {
	c.mu.Lock()
	if !c.attached {
		c.mu.Unlock()
		return nil, xerrors.NotAttached
	}
	conn := c.conn
	id := atomic.AddUint32(&c.nextID, 1)
	replyCh := make(chan *incomingPacket, 1)
	c.pending[id] = replyCh
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	pkt := &commandPacket{id: id, cmdSet: cmdSet, cmd: cmd, data: data}
	if _, err := conn.Write(pkt.encode()); err != nil {
		return nil, xerrors.Wrap(xerrors.WrapKind(err, xerrors.TransportFailed), "writing jdwp command")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case reply, ok := <-replyCh:
		if !ok {
			return nil, xerrors.TransportFailed
		}
		if reply.errorCode != ErrNone {
			return nil, jdwpError(reply.errorCode)
		}
		return reply.data, nil
	}
}

func jdwpError(code ErrorCode) error {
	switch code {
	case ErrInvalidThread:
		return xerrors.Wrapf(xerrors.ThreadNotFound, "jdwp error %d", code)
	case ErrThreadNotSuspended:
		return xerrors.Wrapf(xerrors.ThreadNotSuspended, "jdwp error %d", code)
	case ErrInvalidObject:
		return xerrors.Wrapf(xerrors.ObjectNotCached, "jdwp error %d", code)
	default:
		return xerrors.Newf("jdwp error code %d", code)
	}
}

// readLoop is the single reader for the connection: it demultiplexes
// replies to pending callers and forwards unsolicited Event.Composite
// command packets onto the events channel.
func (c *Client) readLoop() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	for {
		pkt, err := readPacket(conn)
		if err != nil {
			c.mu.Lock()
			for id, ch := range c.pending {
				close(ch)
				delete(c.pending, id)
			}
			c.mu.Unlock()
			close(c.events)
			return
		}

		if pkt.isReply() {
			c.mu.Lock()
			ch, ok := c.pending[pkt.id]
			c.mu.Unlock()
			if ok {
				ch <- pkt
			}
			continue
		}

		if pkt.cmdSet == csEvent && pkt.cmd == cmdEventComposite {
			if ev, err := decodeComposite(pkt.data); err == nil {
				select {
				case c.events <- ev:
				default:
					logging.Logger.Warnw("dropping event, channel full")
				}
			}
		}
	}
}

func decodeComposite(data []byte) (*CompositeEvent, error) {
	if len(data) < 9 {
		return nil, xerrors.New("short composite event")
	}
	ev := &CompositeEvent{
		SuspendPolicy: data[0],
		Raw:           data,
	}
	if len(data) >= 9 {
		ev.Kind = EventKind(data[5])
		ev.RequestID = binary.BigEndian.Uint32(data[6:10])
	}
	return ev, nil
}
