package jdwp

// Location identifies one bytecode position: the declaring reference
// type's kind tag, the reference type itself, the method, and a bytecode
// index within it. This is the wire shape used by ThreadReference.Frames,
// breakpoint locations, and step events.
type Location struct {
	TypeTag byte
	Class   ReferenceTypeID
	Method  MethodID
	Index   uint64
}

func (r *Reader) ReadLocation() (Location, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return Location{}, err
	}
	class, err := r.ReadReferenceTypeID()
	if err != nil {
		return Location{}, err
	}
	method, err := r.ReadMethodID()
	if err != nil {
		return Location{}, err
	}
	if err := r.require(8); err != nil {
		return Location{}, err
	}
	idx, err := r.ReadInt64()
	if err != nil {
		return Location{}, err
	}
	return Location{TypeTag: tag, Class: class, Method: method, Index: uint64(idx)}, nil
}

func (w *Writer) WriteLocation(l Location) *Writer {
	w.WriteByte(l.TypeTag)
	w.WriteReferenceTypeID(l.Class)
	w.WriteMethodID(l.Method)
	w.WriteInt64(int64(l.Index))
	return w
}
