package jdwp

import (
	"encoding/binary"
	"math"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

// ObjectID, ThreadID, ReferenceTypeID, MethodID, FieldID and FrameID are all
// just variable-width opaque handles on the wire; the type aliases below
// exist purely so call sites read like the protocol they encode.
type (
	ObjectID        uint64
	ThreadID        uint64
	ReferenceTypeID uint64
	MethodID        uint64
	FieldID         uint64
	FrameID         uint64
)

// Writer accumulates a JDWP command payload. Every Write* method appends in
// wire order; callers build a request body and pass writer.Bytes() as the
// command's data.
type Writer struct {
	sizes IDSizes
	buf   []byte
}

func NewWriter(sizes IDSizes) *Writer {
	return &Writer{sizes: sizes}
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteByte(b byte) *Writer {
	w.buf = append(w.buf, b)
	return w
}

func (w *Writer) WriteInt32(v int32) *Writer {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	w.buf = append(w.buf, tmp[:]...)
	return w
}

func (w *Writer) WriteInt64(v int64) *Writer {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	w.buf = append(w.buf, tmp[:]...)
	return w
}

func (w *Writer) WriteString(s string) *Writer {
	w.WriteInt32(int32(len(s)))
	w.buf = append(w.buf, s...)
	return w
}

func (w *Writer) writeID(id uint64, size int) *Writer {
	tmp := make([]byte, size)
	for i := size - 1; i >= 0; i-- {
		tmp[i] = byte(id)
		id >>= 8
	}
	w.buf = append(w.buf, tmp...)
	return w
}

func (w *Writer) WriteObjectID(id ObjectID) *Writer {
	return w.writeID(uint64(id), w.sizes.ObjectIDSize)
}

func (w *Writer) WriteThreadID(id ThreadID) *Writer {
	return w.writeID(uint64(id), w.sizes.ObjectIDSize)
}

func (w *Writer) WriteReferenceTypeID(id ReferenceTypeID) *Writer {
	return w.writeID(uint64(id), w.sizes.ReferenceTypeIDSize)
}

func (w *Writer) WriteMethodID(id MethodID) *Writer {
	return w.writeID(uint64(id), w.sizes.MethodIDSize)
}

func (w *Writer) WriteFieldID(id FieldID) *Writer {
	return w.writeID(uint64(id), w.sizes.FieldIDSize)
}

func (w *Writer) WriteFrameID(id FrameID) *Writer {
	return w.writeID(uint64(id), w.sizes.FrameIDSize)
}

// Reader walks a JDWP reply payload in wire order.
type Reader struct {
	sizes IDSizes
	buf   []byte
	pos   int
}

func NewReader(sizes IDSizes, data []byte) *Reader {
	return &Reader{sizes: sizes, buf: data}
}

func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) require(n int) error {
	if r.Remaining() < n {
		return xerrors.Newf("jdwp: short reply, need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

func (r *Reader) ReadByte() (byte, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) ReadInt32() (int32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return int32(v), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return int64(v), nil
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return "", err
	}
	if err := r.require(int(n)); err != nil {
		return "", err
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *Reader) readID(size int) (uint64, error) {
	if err := r.require(size); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < size; i++ {
		v = (v << 8) | uint64(r.buf[r.pos+i])
	}
	r.pos += size
	return v, nil
}

func (r *Reader) ReadObjectID() (ObjectID, error) {
	v, err := r.readID(r.sizes.ObjectIDSize)
	return ObjectID(v), err
}

func (r *Reader) ReadThreadID() (ThreadID, error) {
	v, err := r.readID(r.sizes.ObjectIDSize)
	return ThreadID(v), err
}

func (r *Reader) ReadReferenceTypeID() (ReferenceTypeID, error) {
	v, err := r.readID(r.sizes.ReferenceTypeIDSize)
	return ReferenceTypeID(v), err
}

func (r *Reader) ReadMethodID() (MethodID, error) {
	v, err := r.readID(r.sizes.MethodIDSize)
	return MethodID(v), err
}

func (r *Reader) ReadFieldID() (FieldID, error) {
	v, err := r.readID(r.sizes.FieldIDSize)
	return FieldID(v), err
}

func (r *Reader) ReadFrameID() (FrameID, error) {
	v, err := r.readID(r.sizes.FrameIDSize)
	return FrameID(v), err
}

// Value is a decoded tagged JDWP value (the wire form used by GetValues,
// SetValues, InvokeMethod arguments/results, and event locations).
type Value struct {
	Tag   byte
	Z     bool
	B     byte
	C     uint16
	S     int16
	I     int32
	J     int64
	F     float32
	D     float64
	Obj   ObjectID // valid when Tag is one of the object-family tags
}

// IsObjectFamily reports whether Tag denotes a handle rather than a
// primitive (object, array, string, thread, thread group, class loader,
// class object, or null).
func IsObjectFamily(tag byte) bool {
	switch tag {
	case TagObject, TagArray, TagString, TagThread, TagThreadGroup, TagClassLoader, TagClassObject, 0x4e: // 'N' = null-tagged object
		return true
	default:
		return false
	}
}

// ReadValue reads one tagged value (a one-byte type tag followed by its
// encoding) as used throughout ObjectReference/StackFrame/ArrayReference.
func (r *Reader) ReadValue() (Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return Value{}, err
	}
	v := Value{Tag: tag}
	switch tag {
	case TagBoolean:
		b, err := r.ReadByte()
		if err != nil {
			return v, err
		}
		v.Z = b != 0
	case TagByte:
		b, err := r.ReadByte()
		if err != nil {
			return v, err
		}
		v.B = b
	case TagChar, TagShort:
		if err := r.require(2); err != nil {
			return v, err
		}
		v.C = binary.BigEndian.Uint16(r.buf[r.pos : r.pos+2])
		r.pos += 2
	case TagInt:
		i, err := r.ReadInt32()
		if err != nil {
			return v, err
		}
		v.I = i
	case TagLong:
		j, err := r.ReadInt64()
		if err != nil {
			return v, err
		}
		v.J = j
	case TagFloat:
		i, err := r.ReadInt32()
		if err != nil {
			return v, err
		}
		v.F = int32BitsToFloat32(i)
	case TagDouble:
		j, err := r.ReadInt64()
		if err != nil {
			return v, err
		}
		v.D = int64BitsToFloat64(j)
	case TagVoid:
		// no payload
	default:
		// Object-family tag: an object id follows.
		id, err := r.ReadObjectID()
		if err != nil {
			return v, err
		}
		v.Obj = id
	}
	return v, nil
}

// WriteValue writes a tagged value in the same wire form ReadValue parses.
func (w *Writer) WriteValue(v Value) *Writer {
	w.WriteByte(v.Tag)
	switch v.Tag {
	case TagBoolean:
		if v.Z {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
	case TagByte:
		w.WriteByte(v.B)
	case TagChar, TagShort:
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], v.C)
		w.buf = append(w.buf, tmp[:]...)
	case TagInt:
		w.WriteInt32(v.I)
	case TagLong:
		w.WriteInt64(v.J)
	case TagFloat:
		w.WriteInt32(float32BitsToInt32(v.F))
	case TagDouble:
		w.WriteInt64(float64BitsToInt64(v.D))
	case TagVoid:
		// nothing
	default:
		w.WriteObjectID(v.Obj)
	}
	return w
}

func int32BitsToFloat32(bits int32) float32 {
	return math.Float32frombits(uint32(bits))
}

func float32BitsToInt32(f float32) int32 {
	return int32(math.Float32bits(f))
}

func int64BitsToFloat64(bits int64) float64 {
	return math.Float64frombits(uint64(bits))
}

func float64BitsToInt64(f float64) int64 {
	return int64(math.Float64bits(f))
}
