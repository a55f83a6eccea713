package jdwp

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer drives one end of a net.Pipe as a stand-in JDWP peer: it
// answers the handshake, then replies to VirtualMachine.IDSizes with fixed
// 8-byte sizes, then echoes back an empty successful reply for anything
// else until told to stop.
func fakeServer(t *testing.T, conn net.Conn) {
	t.Helper()

	buf := make([]byte, len(handshakeMagic))
	_, err := readFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, handshakeMagic, string(buf))
	_, err = conn.Write([]byte(handshakeMagic))
	require.NoError(t, err)

	for {
		pkt, err := readPacket(conn)
		if err != nil {
			return
		}

		var body []byte
		if pkt.cmdSet == csVirtualMachine && pkt.cmd == cmdVMIDSizes {
			body = make([]byte, 20)
			for i := 0; i < 5; i++ {
				binary.BigEndian.PutUint32(body[i*4:i*4+4], 8)
			}
		}

		reply := make([]byte, 11+len(body))
		binary.BigEndian.PutUint32(reply[0:4], uint32(len(reply)))
		binary.BigEndian.PutUint32(reply[4:8], pkt.id)
		reply[8] = flagReply
		// error code 0 in bytes 9:11 already zero-valued
		copy(reply[11:], body)
		if _, err := conn.Write(reply); err != nil {
			return
		}
	}
}

func pipeClient(t *testing.T) (*Client, net.Conn) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	go fakeServer(t, serverConn)

	c := &Client{
		host:    "test",
		port:    0,
		pending: make(map[uint32]chan *incomingPacket),
		events:  make(chan *CompositeEvent, 8),
	}
	c.conn = clientConn
	c.attached = true
	c.done = make(chan struct{})
	go c.readLoop()
	return c, clientConn
}

func TestClientIDSizesNegotiation(t *testing.T) {
	c, conn := pipeClient(t)
	defer conn.Close()

	sizes, err := c.fetchIDSizes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, sizes.ObjectIDSize)
	assert.Equal(t, 8, sizes.ReferenceTypeIDSize)
	assert.Equal(t, 8, sizes.FieldIDSize)
	assert.Equal(t, 8, sizes.MethodIDSize)
	assert.Equal(t, 8, sizes.FrameIDSize)
}

func TestClientAttachFailsWithoutServer(t *testing.T) {
	c := NewClient("127.0.0.1", 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.Attach(ctx)
	require.Error(t, err)
}

func TestClientNotAttachedBeforeAttach(t *testing.T) {
	c := NewClient("127.0.0.1", 55005)
	_, err := c.Command(context.Background(), csVirtualMachine, cmdVMVersion, nil)
	assert.Error(t, err)
}

func TestDetachIsIdempotentAndLocalOnly(t *testing.T) {
	c, conn := pipeClient(t)
	defer conn.Close()
	c.Detach()
	c.Detach() // must not panic on double close
	assert.False(t, c.attached)
}

func TestWriterReaderRoundTripObjectID(t *testing.T) {
	sizes := IDSizes{ObjectIDSize: 8, ReferenceTypeIDSize: 8, FieldIDSize: 8, MethodIDSize: 8, FrameIDSize: 8}
	w := NewWriter(sizes)
	w.WriteObjectID(ObjectID(0xdeadbeef)).WriteInt32(42).WriteString("hello")

	r := NewReader(sizes, w.Bytes())
	id, err := r.ReadObjectID()
	require.NoError(t, err)
	assert.Equal(t, ObjectID(0xdeadbeef), id)

	n, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(42), n)

	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestValueRoundTripPrimitives(t *testing.T) {
	sizes := IDSizes{ObjectIDSize: 8}
	cases := []Value{
		{Tag: TagInt, I: -7},
		{Tag: TagLong, J: 1 << 40},
		{Tag: TagBoolean, Z: true},
		{Tag: TagDouble, D: 3.5},
	}
	for _, v := range cases {
		w := NewWriter(sizes)
		w.WriteValue(v)
		r := NewReader(sizes, w.Bytes())
		got, err := r.ReadValue()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
