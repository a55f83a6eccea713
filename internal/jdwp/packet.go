package jdwp

import (
	"encoding/binary"
	"io"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

const handshakeMagic = "JDWP-Handshake"

const (
	flagNone  byte = 0x00
	flagReply byte = 0x80
)

// commandPacket is an outbound request: length, id, flags=0, command set,
// command, payload.
type commandPacket struct {
	id        uint32
	cmdSet    byte
	cmd       byte
	data      []byte
}

func (p *commandPacket) encode() []byte {
	length := 11 + len(p.data)
	buf := make([]byte, length)
	binary.BigEndian.PutUint32(buf[0:4], uint32(length))
	binary.BigEndian.PutUint32(buf[4:8], p.id)
	buf[8] = flagNone
	buf[9] = p.cmdSet
	buf[10] = p.cmd
	copy(buf[11:], p.data)
	return buf
}

// incomingPacket is either a reply to one of our commands (flags & 0x80 set)
// or a command sent to us by the VM (only ever Event.Composite in practice).
type incomingPacket struct {
	id        uint32
	flags     byte
	errorCode ErrorCode
	cmdSet    byte
	cmd       byte
	data      []byte
}

func (p *incomingPacket) isReply() bool {
	return p.flags&flagReply != 0
}

// readPacket reads one full JDWP packet from r, blocking until the length
// prefix and the rest of the frame arrive.
func readPacket(r io.Reader) (*incomingPacket, error) {
	var header [11]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, xerrors.Wrapf(err, "reading jdwp packet header")
	}

	length := binary.BigEndian.Uint32(header[0:4])
	if length < 11 {
		return nil, xerrors.Newf("jdwp: implausible packet length %d", length)
	}

	id := binary.BigEndian.Uint32(header[4:8])
	flags := header[8]

	pkt := &incomingPacket{id: id, flags: flags}

	body := make([]byte, length-11)
	if len(body) > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, xerrors.Wrapf(err, "reading jdwp packet body")
		}
	}

	if pkt.isReply() {
		pkt.errorCode = ErrorCode(binary.BigEndian.Uint16(header[9:11]))
		pkt.data = body
	} else {
		pkt.cmdSet = header[9]
		pkt.cmd = header[10]
		pkt.data = body
	}
	return pkt, nil
}
