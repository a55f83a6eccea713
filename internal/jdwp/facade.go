package jdwp

// This file is the thin typed facade spec.md section 9 calls for: "model
// the remote reflection surface as a thin typed facade over the protocol
// (thread, frame, object, class, method handles)". Every exported method
// here composes exactly one JDWP request/reply pair using Client.Command,
// except GetProperty and SystemProperty, which chain several; callers in internal/inspector, internal/control, internal/classpath,
// internal/remote and internal/eval never touch command-set/command bytes
// directly.

import (
	"context"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

// FrameInfo is one entry of ThreadReference.Frames.
type FrameInfo struct {
	ID       FrameID
	Location Location
}

// AllThreads lists every thread known to the target VM.
func (c *Client) AllThreads(ctx context.Context) ([]ThreadID, error) {
	reply, err := c.Command(ctx, csVirtualMachine, cmdVMAllThreads, nil)
	if err != nil {
		return nil, err
	}
	r := NewReader(c.Sizes(), reply)
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	out := make([]ThreadID, 0, n)
	for i := int32(0); i < n; i++ {
		id, err := r.ReadThreadID()
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// ThreadName returns a thread's display name.
func (c *Client) ThreadName(ctx context.Context, t ThreadID) (string, error) {
	w := NewWriter(c.Sizes())
	w.WriteThreadID(t)
	reply, err := c.Command(ctx, csThreadReference, cmdTRName, w.Bytes())
	if err != nil {
		return "", err
	}
	return NewReader(c.Sizes(), reply).ReadString()
}

// ThreadStatus returns the raw thread status and suspend-status codes
// (ThreadReference.Status).
func (c *Client) ThreadStatus(ctx context.Context, t ThreadID) (status int32, suspendCount int32, err error) {
	w := NewWriter(c.Sizes())
	w.WriteThreadID(t)
	reply, err := c.Command(ctx, csThreadReference, cmdTRStatus, w.Bytes())
	if err != nil {
		return 0, 0, err
	}
	r := NewReader(c.Sizes(), reply)
	status, err = r.ReadInt32()
	if err != nil {
		return 0, 0, err
	}
	suspendCount, err = r.ReadInt32()
	return status, suspendCount, err
}

// ThreadFrameCount returns the number of frames on a suspended thread's
// stack. Fails if the thread is not suspended.
func (c *Client) ThreadFrameCount(ctx context.Context, t ThreadID) (int32, error) {
	w := NewWriter(c.Sizes())
	w.WriteThreadID(t)
	reply, err := c.Command(ctx, csThreadReference, cmdTRFrameCount, w.Bytes())
	if err != nil {
		return 0, err
	}
	return NewReader(c.Sizes(), reply).ReadInt32()
}

// ThreadFrames returns up to length frames starting at startFrame (0 =
// topmost). length = -1 requests all remaining frames.
func (c *Client) ThreadFrames(ctx context.Context, t ThreadID, startFrame, length int32) ([]FrameInfo, error) {
	w := NewWriter(c.Sizes())
	w.WriteThreadID(t)
	w.WriteInt32(startFrame)
	w.WriteInt32(length)
	reply, err := c.Command(ctx, csThreadReference, cmdTRFrames, w.Bytes())
	if err != nil {
		return nil, err
	}
	r := NewReader(c.Sizes(), reply)
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	out := make([]FrameInfo, 0, n)
	for i := int32(0); i < n; i++ {
		id, err := r.ReadFrameID()
		if err != nil {
			return nil, err
		}
		loc, err := r.ReadLocation()
		if err != nil {
			return nil, err
		}
		out = append(out, FrameInfo{ID: id, Location: loc})
	}
	return out, nil
}

// ReferenceTypeSignature returns the JNI-style type signature for a class
// (e.g. "Ldemo/C;").
func (c *Client) ReferenceTypeSignature(ctx context.Context, rt ReferenceTypeID) (string, error) {
	w := NewWriter(c.Sizes())
	w.WriteReferenceTypeID(rt)
	reply, err := c.Command(ctx, csReferenceType, cmdRTSignature, w.Bytes())
	if err != nil {
		return "", err
	}
	return NewReader(c.Sizes(), reply).ReadString()
}

// ReferenceTypeSourceFile returns the source file name recorded for a
// class, or NoDebugInfo if the class was compiled without it.
func (c *Client) ReferenceTypeSourceFile(ctx context.Context, rt ReferenceTypeID) (string, error) {
	w := NewWriter(c.Sizes())
	w.WriteReferenceTypeID(rt)
	reply, err := c.Command(ctx, csReferenceType, cmdRTSourceFile, w.Bytes())
	if err != nil {
		return "", xerrors.WrapKind(err, xerrors.NoDebugInfo)
	}
	return NewReader(c.Sizes(), reply).ReadString()
}

// ReferenceTypeClassLoader returns the defining class loader of a
// reference type, or the null object id for the bootstrap loader.
func (c *Client) ReferenceTypeClassLoader(ctx context.Context, rt ReferenceTypeID) (ObjectID, error) {
	w := NewWriter(c.Sizes())
	w.WriteReferenceTypeID(rt)
	reply, err := c.Command(ctx, csReferenceType, cmdRTClassLoader, w.Bytes())
	if err != nil {
		return 0, err
	}
	return NewReader(c.Sizes(), reply).ReadObjectID()
}

// FieldInfo describes one declared field (ReferenceType.Fields).
type FieldInfo struct {
	ID        FieldID
	Name      string
	Signature string
	ModBits   int32
}

// ReferenceTypeFields lists the fields declared directly on rt (not
// inherited ones — callers walk ClassTypeSuperclass to collect those).
func (c *Client) ReferenceTypeFields(ctx context.Context, rt ReferenceTypeID) ([]FieldInfo, error) {
	w := NewWriter(c.Sizes())
	w.WriteReferenceTypeID(rt)
	reply, err := c.Command(ctx, csReferenceType, cmdRTFields, w.Bytes())
	if err != nil {
		return nil, err
	}
	r := NewReader(c.Sizes(), reply)
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	out := make([]FieldInfo, 0, n)
	for i := int32(0); i < n; i++ {
		id, err := r.ReadFieldID()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		sig, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		mod, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		out = append(out, FieldInfo{ID: id, Name: name, Signature: sig, ModBits: mod})
	}
	return out, nil
}

// MethodInfo describes one declared method (ReferenceType.Methods).
type MethodInfo struct {
	ID        MethodID
	Name      string
	Signature string
	ModBits   int32
}

// ReferenceTypeMethods lists the methods declared directly on rt.
func (c *Client) ReferenceTypeMethods(ctx context.Context, rt ReferenceTypeID) ([]MethodInfo, error) {
	w := NewWriter(c.Sizes())
	w.WriteReferenceTypeID(rt)
	reply, err := c.Command(ctx, csReferenceType, cmdRTMethods, w.Bytes())
	if err != nil {
		return nil, err
	}
	r := NewReader(c.Sizes(), reply)
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	out := make([]MethodInfo, 0, n)
	for i := int32(0); i < n; i++ {
		id, err := r.ReadMethodID()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		sig, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		mod, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		out = append(out, MethodInfo{ID: id, Name: name, Signature: sig, ModBits: mod})
	}
	return out, nil
}

// ClassTypeSuperclass returns the superclass reference type, or 0 for
// java.lang.Object.
func (c *Client) ClassTypeSuperclass(ctx context.Context, rt ReferenceTypeID) (ReferenceTypeID, error) {
	w := NewWriter(c.Sizes())
	w.WriteReferenceTypeID(rt)
	reply, err := c.Command(ctx, csClassType, cmdCTSuperclass, w.Bytes())
	if err != nil {
		return 0, err
	}
	return NewReader(c.Sizes(), reply).ReadReferenceTypeID()
}

// ClassesBySignature resolves a JNI-style signature (e.g. "Ldemo/C;") to
// its loaded reference types. Multiple entries are possible when several
// class loaders have each defined a class under that name.
func (c *Client) ClassesBySignature(ctx context.Context, signature string) ([]ReferenceTypeID, error) {
	w := NewWriter(c.Sizes())
	w.WriteString(signature)
	reply, err := c.Command(ctx, csVirtualMachine, cmdVMClassesBySignature, w.Bytes())
	if err != nil {
		return nil, err
	}
	r := NewReader(c.Sizes(), reply)
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	out := make([]ReferenceTypeID, 0, n)
	for i := int32(0); i < n; i++ {
		if _, err := r.ReadByte(); err != nil { // typeTag
			return nil, err
		}
		rt, err := r.ReadReferenceTypeID()
		if err != nil {
			return nil, err
		}
		if _, err := r.ReadInt32(); err != nil { // status
			return nil, err
		}
		out = append(out, rt)
	}
	return out, nil
}

// ObjectReferenceType returns the runtime reference type and its type tag
// for a live object.
func (c *Client) ObjectReferenceType(ctx context.Context, obj ObjectID) (byte, ReferenceTypeID, error) {
	w := NewWriter(c.Sizes())
	w.WriteObjectID(obj)
	reply, err := c.Command(ctx, csObjectReference, cmdORReferenceType, w.Bytes())
	if err != nil {
		return 0, 0, err
	}
	r := NewReader(c.Sizes(), reply)
	tag, err := r.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	rt, err := r.ReadReferenceTypeID()
	return tag, rt, err
}

// ObjectGetValues reads instance field values (ObjectReference.GetValues).
func (c *Client) ObjectGetValues(ctx context.Context, obj ObjectID, fields []FieldID) ([]Value, error) {
	w := NewWriter(c.Sizes())
	w.WriteObjectID(obj)
	w.WriteInt32(int32(len(fields)))
	for _, f := range fields {
		w.WriteFieldID(f)
	}
	reply, err := c.Command(ctx, csObjectReference, cmdORGetValues, w.Bytes())
	if err != nil {
		return nil, err
	}
	r := NewReader(c.Sizes(), reply)
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	out := make([]Value, 0, n)
	for i := int32(0); i < n; i++ {
		v, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// StackFrameThisObject returns the receiver of a frame, or object id 0 if
// the frame is static.
func (c *Client) StackFrameThisObject(ctx context.Context, t ThreadID, f FrameID) (ObjectID, error) {
	w := NewWriter(c.Sizes())
	w.WriteThreadID(t)
	w.WriteFrameID(f)
	reply, err := c.Command(ctx, csStackFrame, cmdSFThisObject, w.Bytes())
	if err != nil {
		return 0, err
	}
	r := NewReader(c.Sizes(), reply)
	v, err := r.ReadValue()
	if err != nil {
		return 0, err
	}
	return v.Obj, nil
}

// SlotRequest asks StackFrame.GetValues for the slot-th local of kind tag.
type SlotRequest struct {
	Slot int32
	Tag  byte
}

// StackFrameGetValues reads local variable values by slot.
func (c *Client) StackFrameGetValues(ctx context.Context, t ThreadID, f FrameID, slots []SlotRequest) ([]Value, error) {
	w := NewWriter(c.Sizes())
	w.WriteThreadID(t)
	w.WriteFrameID(f)
	w.WriteInt32(int32(len(slots)))
	for _, s := range slots {
		w.WriteInt32(s.Slot)
		w.WriteByte(s.Tag)
	}
	reply, err := c.Command(ctx, csStackFrame, cmdSFGetValues, w.Bytes())
	if err != nil {
		return nil, err
	}
	r := NewReader(c.Sizes(), reply)
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	out := make([]Value, 0, n)
	for i := int32(0); i < n; i++ {
		v, err := r.ReadValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// VariableSlot describes one entry of Method.VariableTable.
type VariableSlot struct {
	Slot       int32
	Name       string
	Signature  string
	CodeIndex  int64
	Length     int32
}

// MethodVariableTable returns a method's local variable table, used both
// to render get-locals and to build an evaluation context (spec.md
// section 4.8 step 1).
func (c *Client) MethodVariableTable(ctx context.Context, rt ReferenceTypeID, m MethodID) (argCount int32, slots []VariableSlot, err error) {
	w := NewWriter(c.Sizes())
	w.WriteReferenceTypeID(rt)
	w.WriteMethodID(m)
	reply, err := c.Command(ctx, csMethod, cmdMethodVariableTable, w.Bytes())
	if err != nil {
		return 0, nil, err
	}
	r := NewReader(c.Sizes(), reply)
	argCount, err = r.ReadInt32()
	if err != nil {
		return 0, nil, err
	}
	n, err := r.ReadInt32()
	if err != nil {
		return 0, nil, err
	}
	slots = make([]VariableSlot, 0, n)
	for i := int32(0); i < n; i++ {
		codeIndex, err := r.ReadInt64()
		if err != nil {
			return 0, nil, err
		}
		name, err := r.ReadString()
		if err != nil {
			return 0, nil, err
		}
		sig, err := r.ReadString()
		if err != nil {
			return 0, nil, err
		}
		length, err := r.ReadInt32()
		if err != nil {
			return 0, nil, err
		}
		slot, err := r.ReadInt32()
		if err != nil {
			return 0, nil, err
		}
		slots = append(slots, VariableSlot{Slot: slot, Name: name, Signature: sig, CodeIndex: codeIndex, Length: length})
	}
	return argCount, slots, nil
}

// LineEntry maps a bytecode index to a source line (Method.LineTable).
type LineEntry struct {
	CodeIndex int64
	Line      int32
}

// MethodLineTable returns the line-number table for a method (used by
// set-breakpoint to resolve a source line to a location); the method's
// start and end code indexes are read and discarded.
func (c *Client) MethodLineTable(ctx context.Context, rt ReferenceTypeID, m MethodID) ([]LineEntry, error) {
	w := NewWriter(c.Sizes())
	w.WriteReferenceTypeID(rt)
	w.WriteMethodID(m)
	reply, err := c.Command(ctx, csMethod, cmdMethodLineTable, w.Bytes())
	if err != nil {
		return nil, err
	}
	r := NewReader(c.Sizes(), reply)
	if _, err := r.ReadInt64(); err != nil { // start
		return nil, err
	}
	if _, err := r.ReadInt64(); err != nil { // end
		return nil, err
	}
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	out := make([]LineEntry, 0, n)
	for i := int32(0); i < n; i++ {
		idx, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		line, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		out = append(out, LineEntry{CodeIndex: idx, Line: line})
	}
	return out, nil
}

// ArrayLength returns the element count of an array object.
func (c *Client) ArrayLength(ctx context.Context, arr ObjectID) (int32, error) {
	w := NewWriter(c.Sizes())
	w.WriteObjectID(arr)
	reply, err := c.Command(ctx, csArrayReference, cmdARLength, w.Bytes())
	if err != nil {
		return 0, err
	}
	return NewReader(c.Sizes(), reply).ReadInt32()
}

// ArrayGetValues reads length elements of arr starting at index
// (ArrayReference.GetValues).
func (c *Client) ArrayGetValues(ctx context.Context, arr ObjectID, index, length int32) ([]Value, error) {
	w := NewWriter(c.Sizes())
	w.WriteObjectID(arr)
	w.WriteInt32(index)
	w.WriteInt32(length)
	reply, err := c.Command(ctx, csArrayReference, cmdARGetValues, w.Bytes())
	if err != nil {
		return nil, err
	}
	r := NewReader(c.Sizes(), reply)
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	out := make([]Value, 0, n)
	for i := int32(0); i < n; i++ {
		if IsObjectFamily(tag) {
			v, err := r.ReadValue()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			continue
		}
		v := Value{Tag: tag}
		switch tag {
		case TagBoolean:
			b, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			v.Z = b != 0
		case TagByte:
			b, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			v.B = b
		case TagChar, TagShort:
			iv, err := r.ReadInt32()
			if err != nil {
				return nil, err
			}
			v.C = uint16(iv)
		case TagInt:
			iv, err := r.ReadInt32()
			if err != nil {
				return nil, err
			}
			v.I = iv
		case TagLong:
			jv, err := r.ReadInt64()
			if err != nil {
				return nil, err
			}
			v.J = jv
		case TagFloat:
			iv, err := r.ReadInt32()
			if err != nil {
				return nil, err
			}
			v.F = int32BitsToFloat32(iv)
		case TagDouble:
			jv, err := r.ReadInt64()
			if err != nil {
				return nil, err
			}
			v.D = int64BitsToFloat64(jv)
		}
		out = append(out, v)
	}
	return out, nil
}

// StringValue returns the UTF text of a java.lang.String object.
func (c *Client) StringValue(ctx context.Context, str ObjectID) (string, error) {
	w := NewWriter(c.Sizes())
	w.WriteObjectID(str)
	reply, err := c.Command(ctx, csStringReference, cmdSRValue, w.Bytes())
	if err != nil {
		return "", err
	}
	return NewReader(c.Sizes(), reply).ReadString()
}

// VMResume resumes every thread in the target.
func (c *Client) VMResume(ctx context.Context) error {
	_, err := c.Command(ctx, csVirtualMachine, cmdVMResume, nil)
	return err
}

// ThreadResume resumes a single suspended thread.
func (c *Client) ThreadResume(ctx context.Context, t ThreadID) error {
	w := NewWriter(c.Sizes())
	w.WriteThreadID(t)
	_, err := c.Command(ctx, csThreadReference, cmdTRResume, w.Bytes())
	return err
}

// EventRequestClear removes a single event request.
func (c *Client) EventRequestClear(ctx context.Context, kind EventKind, requestID uint32) error {
	w := NewWriter(c.Sizes())
	w.WriteByte(byte(kind))
	w.WriteInt32(int32(requestID))
	_, err := c.Command(ctx, csEventRequest, cmdERClear, w.Bytes())
	return err
}

// EventRequestClearAllBreakpoints clears every breakpoint request at once.
func (c *Client) EventRequestClearAllBreakpoints(ctx context.Context) error {
	_, err := c.Command(ctx, csEventRequest, cmdERClearAllBreakpoints, nil)
	return err
}

// SetBreakpoint installs a location-only breakpoint request and returns
// its request id.
func (c *Client) SetBreakpoint(ctx context.Context, loc Location, suspendPolicy byte) (uint32, error) {
	w := NewWriter(c.Sizes())
	w.WriteByte(byte(EventBreakpoint))
	w.WriteByte(suspendPolicy)
	w.WriteInt32(1) // one modifier
	w.WriteByte(modLocationOnly)
	w.WriteLocation(loc)
	reply, err := c.Command(ctx, csEventRequest, cmdERSet, w.Bytes())
	if err != nil {
		return 0, err
	}
	id, err := NewReader(c.Sizes(), reply).ReadInt32()
	return uint32(id), err
}

// SetStep installs a single-shot, count-filtered step request at the
// given depth (StepDepthInto/Over/Out) and line granularity.
func (c *Client) SetStep(ctx context.Context, t ThreadID, depth int32, suspendPolicy byte) (uint32, error) {
	w := NewWriter(c.Sizes())
	w.WriteByte(byte(EventStep))
	w.WriteByte(suspendPolicy)
	w.WriteInt32(2) // step modifier + count modifier
	w.WriteByte(modStep)
	w.WriteThreadID(t)
	w.WriteInt32(StepSizeLine)
	w.WriteInt32(depth)
	w.WriteByte(modCount)
	w.WriteInt32(1)
	reply, err := c.Command(ctx, csEventRequest, cmdERSet, w.Bytes())
	if err != nil {
		return 0, err
	}
	id, err := NewReader(c.Sizes(), reply).ReadInt32()
	return uint32(id), err
}

// GetProperty invokes System.getProperty(name) on the target and returns
// its string result. Used by classpath discovery to read
// "java.class.path", "java.version" and "java.home" (spec.md section 4.4,
// 4.5). t must be a thread suspended at a breakpoint.
func (c *Client) GetProperty(ctx context.Context, t ThreadID, systemClass ReferenceTypeID, getPropertyMethod MethodID, name string) (string, error) {
	strID, err := c.newString(ctx, name)
	if err != nil {
		return "", err
	}
	arg := Value{Tag: TagString, Obj: strID}
	result, excObj, err := c.ClassTypeInvokeStatic(ctx, systemClass, t, getPropertyMethod, []Value{arg}, InvokeSingleThreaded)
	if err != nil {
		return "", err
	}
	if excObj != 0 {
		return "", xerrors.Wrap(xerrors.InvocationThrew, "System.getProperty threw")
	}
	if result.Obj == 0 {
		return "", nil
	}
	return c.StringValue(ctx, result.Obj)
}

// SystemProperty resolves java.lang.System.getProperty(String) once and
// calls it with name, wrapping GetProperty for callers that don't already
// hold the resolved class/method (internal/classpath, internal/platform).
func (c *Client) SystemProperty(ctx context.Context, t ThreadID, name string) (string, error) {
	classes, err := c.ClassesBySignature(ctx, "Ljava/lang/System;")
	if err != nil || len(classes) == 0 {
		return "", xerrors.ClassNotLoaded
	}
	methods, err := c.ReferenceTypeMethods(ctx, classes[0])
	if err != nil {
		return "", err
	}
	for _, m := range methods {
		if m.Name == "getProperty" && m.Signature == "(Ljava/lang/String;)Ljava/lang/String;" {
			return c.GetProperty(ctx, t, classes[0], m.ID, name)
		}
	}
	return "", xerrors.MethodNotFound
}

func (c *Client) newString(ctx context.Context, s string) (ObjectID, error) {
	w := NewWriter(c.Sizes())
	w.WriteString(s)
	reply, err := c.Command(ctx, csVirtualMachine, cmdVMCreateString, w.Bytes())
	if err != nil {
		return 0, err
	}
	return NewReader(c.Sizes(), reply).ReadObjectID()
}

// InvokeSingleThreaded is the InvokeMethod options bit requiring that only
// the invoking thread run during the call (spec.md section 4.7: "no other
// target threads are allowed to run during each invocation").
const InvokeSingleThreaded int32 = 1

// ClassTypeInvokeStatic calls ClassType.InvokeMethod: invoke a static
// method on class rt using thread t as the invoking (and only running)
// thread. Returns the method's result value and, on a thrown exception, a
// non-zero exception object id.
func (c *Client) ClassTypeInvokeStatic(ctx context.Context, rt ReferenceTypeID, t ThreadID, m MethodID, args []Value, options int32) (Value, ObjectID, error) {
	w := NewWriter(c.Sizes())
	w.WriteReferenceTypeID(rt)
	w.WriteThreadID(t)
	w.WriteMethodID(m)
	w.WriteInt32(int32(len(args)))
	for _, a := range args {
		w.WriteValue(a)
	}
	w.WriteInt32(options)
	reply, err := c.Command(ctx, csClassType, cmdCTInvokeMethod, w.Bytes())
	if err != nil {
		return Value{}, 0, err
	}
	r := NewReader(c.Sizes(), reply)
	result, err := r.ReadValue()
	if err != nil {
		return Value{}, 0, err
	}
	exc, err := r.ReadValue()
	if err != nil {
		return Value{}, 0, err
	}
	return result, exc.Obj, nil
}

// ObjectInvokeInstance calls ObjectReference.InvokeMethod: invoke an
// instance method on obj (whose class must be rt or an ancestor) using
// thread t. Used for remote calls on loader objects such as
// ClassLoader.defineClass, getParent and getURLs, and
// Thread.getContextClassLoader.
func (c *Client) ObjectInvokeInstance(ctx context.Context, obj ObjectID, t ThreadID, rt ReferenceTypeID, m MethodID, args []Value, options int32) (Value, ObjectID, error) {
	w := NewWriter(c.Sizes())
	w.WriteObjectID(obj)
	w.WriteThreadID(t)
	w.WriteReferenceTypeID(rt)
	w.WriteMethodID(m)
	w.WriteInt32(int32(len(args)))
	for _, a := range args {
		w.WriteValue(a)
	}
	w.WriteInt32(options)
	reply, err := c.Command(ctx, csObjectReference, cmdORInvokeMethod, w.Bytes())
	if err != nil {
		return Value{}, 0, err
	}
	r := NewReader(c.Sizes(), reply)
	result, err := r.ReadValue()
	if err != nil {
		return Value{}, 0, err
	}
	exc, err := r.ReadValue()
	if err != nil {
		return Value{}, 0, err
	}
	return result, exc.Obj, nil
}

// ArrayTypeNewInstance creates a new array of the given length
// (ArrayType.NewInstance), used by the remote executor to mirror compiled
// bytecode into the target before defineClass.
func (c *Client) ArrayTypeNewInstance(ctx context.Context, arrayType ReferenceTypeID, length int32) (ObjectID, error) {
	w := NewWriter(c.Sizes())
	w.WriteReferenceTypeID(arrayType)
	w.WriteInt32(length)
	reply, err := c.Command(ctx, csArrayType, cmdATNewInstance, w.Bytes())
	if err != nil {
		return 0, err
	}
	v, err := NewReader(c.Sizes(), reply).ReadValue()
	if err != nil {
		return 0, err
	}
	return v.Obj, nil
}

// ArraySetValues writes length bytes from data into arr starting at
// index (ArrayReference.SetValues), one value per wire element —
// required because JDWP's SetValues payload for a primitive array is the
// untagged element encoding, not the tagged Value form.
func (c *Client) ArraySetValues(ctx context.Context, arr ObjectID, index int32, data []byte) error {
	w := NewWriter(c.Sizes())
	w.WriteObjectID(arr)
	w.WriteInt32(index)
	w.WriteInt32(int32(len(data)))
	for _, b := range data {
		w.WriteByte(b)
	}
	_, err := c.Command(ctx, csArrayReference, cmdARSetValues, w.Bytes())
	return err
}

// ClassObjectReferenceReflectedType converts a java.lang.Class mirror
// (the object Class.forName returns) into the ReferenceTypeID it
// represents. Remote Executor's invoke step needs this: the facade's
// invoke helpers take a ReferenceTypeID, not a Class instance.
func (c *Client) ClassObjectReferenceReflectedType(ctx context.Context, classObj ObjectID) (ReferenceTypeID, error) {
	w := NewWriter(c.Sizes())
	w.WriteObjectID(classObj)
	reply, err := c.Command(ctx, csClassObjectReference, cmdCORReflectedType, w.Bytes())
	if err != nil {
		return 0, err
	}
	r := NewReader(c.Sizes(), reply)
	if _, err := r.ReadByte(); err != nil { // typeTag
		return 0, err
	}
	return r.ReadReferenceTypeID()
}
