// Package inspector implements the read-out side of the debug engine:
// thread/frame/local/field enumeration and the typed rendering rules for
// known container shapes (spec.md section 4.2). Every rendered object or
// array value is inserted into the session's object cache as a side
// effect, matching the teacher's "typed remote value -> formatted string"
// pattern in teranos-QNTX/code/gopls/mcp_server.go's handle* functions.
package inspector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/logging"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/objcache"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/session"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

// ThreadSummary is one list-threads entry.
type ThreadSummary struct {
	ID         jdwp.ThreadID
	Name       string
	Status     int32
	Suspended  bool
	FrameCount int
}

// Frame is one get-stack entry.
type Frame struct {
	ClassName  string
	MethodName string
	SourceName string
	Line       int
	raw        jdwp.FrameInfo
}

// Inspector reads thread, frame, local, and field state from a session and
// renders it into the textual/structured shapes spec.md section 4.2
// defines.
type Inspector struct {
	sess    *session.Session
	history *EventHistory
}

func New(sess *session.Session) *Inspector {
	return &Inspector{sess: sess, history: NewEventHistory(100)}
}

// History returns the bounded ring of recent protocol events (spec.md
// section 3).
func (in *Inspector) History() *EventHistory { return in.history }

// ListThreads implements spec.md's list-threads operation.
func (in *Inspector) ListThreads(ctx context.Context) ([]ThreadSummary, error) {
	client, err := in.sess.Client(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := client.AllThreads(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ThreadSummary, 0, len(ids))
	for _, id := range ids {
		name, err := client.ThreadName(ctx, id)
		if err != nil {
			logging.Logger.Debugw("thread name lookup failed", logging.FieldThreadID, id, logging.FieldError, err)
			continue
		}
		status, suspendCount, err := client.ThreadStatus(ctx, id)
		if err != nil {
			continue
		}
		summary := ThreadSummary{ID: id, Name: name, Status: status, Suspended: suspendCount > 0}
		if summary.Suspended {
			if n, err := client.ThreadFrameCount(ctx, id); err == nil {
				summary.FrameCount = int(n)
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

// IsSuspended reports whether a thread currently has a positive suspend
// count, the precondition get-stack and all remote-invocation-driving
// operations require.
func IsSuspended(ctx context.Context, client *jdwp.Client, t jdwp.ThreadID) (bool, error) {
	_, suspendCount, err := client.ThreadStatus(ctx, t)
	if err != nil {
		return false, xerrors.WrapKind(err, xerrors.ThreadNotFound)
	}
	return suspendCount > 0, nil
}

// GetStack implements spec.md's get-stack operation.
func (in *Inspector) GetStack(ctx context.Context, threadID jdwp.ThreadID) ([]Frame, error) {
	client, err := in.sess.Client(ctx)
	if err != nil {
		return nil, err
	}

	suspended, err := IsSuspended(ctx, client, threadID)
	if err != nil {
		return nil, err
	}
	if !suspended {
		return nil, xerrors.ThreadNotSuspended
	}

	raw, err := client.ThreadFrames(ctx, threadID, 0, -1)
	if err != nil {
		return nil, err
	}

	out := make([]Frame, 0, len(raw))
	for _, f := range raw {
		frame := Frame{raw: f}
		className, methodName, sourceName, line := in.describeLocation(ctx, client, f.Location)
		frame.ClassName = className
		frame.MethodName = methodName
		frame.SourceName = sourceName
		frame.Line = line
		out = append(out, frame)
	}
	return out, nil
}

func (in *Inspector) describeLocation(ctx context.Context, client *jdwp.Client, loc jdwp.Location) (className, methodName, sourceName string, line int) {
	sig, err := client.ReferenceTypeSignature(ctx, loc.Class)
	if err == nil {
		className = signatureToClassName(sig)
	}
	methods, err := client.ReferenceTypeMethods(ctx, loc.Class)
	if err == nil {
		for _, m := range methods {
			if m.ID == loc.Method {
				methodName = m.Name
				break
			}
		}
	}
	if sourceName, err = client.ReferenceTypeSourceFile(ctx, loc.Class); err != nil {
		sourceName = ""
	}
	if lines, err := client.MethodLineTable(ctx, loc.Class, loc.Method); err == nil {
		line = lineForIndex(lines, loc.Index)
	}
	return className, methodName, sourceName, line
}

func lineForIndex(table []jdwp.LineEntry, index uint64) int {
	line := 0
	for _, e := range table {
		if uint64(e.CodeIndex) > index {
			break
		}
		line = int(e.Line)
	}
	return line
}

// signatureToClassName converts a JNI type signature ("Ldemo/pkg/C;") to a
// dotted class name ("demo.pkg.C"). Non-object signatures pass through
// unchanged.
func signatureToClassName(sig string) string {
	if strings.HasPrefix(sig, "L") && strings.HasSuffix(sig, ";") {
		inner := sig[1 : len(sig)-1]
		return strings.ReplaceAll(inner, "/", ".")
	}
	return sig
}

// syntheticCapturePrefix is the compiler-generated prefix for fields and
// locals that capture an enclosing scope (e.g. "this$0", "val$x"). Hidden
// locals and captures matching it are excluded from both get-locals and
// evaluation context building (spec.md section 3, section 4.8 step 1).
const syntheticCapturePrefix = "this$"
const syntheticValPrefix = "val$"

func IsSyntheticCapture(name string) bool {
	return strings.HasPrefix(name, syntheticCapturePrefix) || strings.HasPrefix(name, syntheticValPrefix)
}

// Local is one named, rendered local variable.
type Local struct {
	Name         string
	DeclaredType string
	Value        string
}

// GetLocals implements spec.md's get-locals operation.
func (in *Inspector) GetLocals(ctx context.Context, threadID jdwp.ThreadID, frameIndex int) ([]Local, error) {
	client, err := in.sess.Client(ctx)
	if err != nil {
		return nil, err
	}
	suspended, err := IsSuspended(ctx, client, threadID)
	if err != nil {
		return nil, err
	}
	if !suspended {
		return nil, xerrors.ThreadNotSuspended
	}

	frames, err := client.ThreadFrames(ctx, threadID, int32(frameIndex), 1)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, xerrors.FrameOutOfRange
	}
	frame := frames[0]

	_, slots, err := client.MethodVariableTable(ctx, frame.Location.Class, frame.Location.Method)
	if err != nil {
		return nil, xerrors.WrapKind(err, xerrors.NoDebugInfo)
	}

	requests := make([]jdwp.SlotRequest, 0, len(slots))
	for _, s := range slots {
		if IsSyntheticCapture(s.Name) {
			continue
		}
		requests = append(requests, jdwp.SlotRequest{Slot: s.Slot, Tag: TagForSignature(s.Signature)})
	}
	if len(requests) == 0 {
		return nil, nil
	}

	values, err := client.StackFrameGetValues(ctx, threadID, frame.ID, requests)
	if err != nil {
		return nil, err
	}

	cache := in.sess.Cache()
	out := make([]Local, 0, len(values))
	j := 0
	for _, s := range slots {
		if IsSyntheticCapture(s.Name) {
			continue
		}
		out = append(out, Local{
			Name:         s.Name,
			DeclaredType: SignatureToTypeName(s.Signature),
			Value:        in.render(ctx, client, cache, values[j]),
		})
		j++
	}
	return out, nil
}

// TagForSignature maps a JNI field/variable signature to the JDWP value
// tag GetValues/StackFrame.GetValues expects.
func TagForSignature(sig string) byte {
	if len(sig) == 0 {
		return jdwp.TagObject
	}
	switch sig[0] {
	case 'Z':
		return jdwp.TagBoolean
	case 'B':
		return jdwp.TagByte
	case 'C':
		return jdwp.TagChar
	case 'S':
		return jdwp.TagShort
	case 'I':
		return jdwp.TagInt
	case 'J':
		return jdwp.TagLong
	case 'F':
		return jdwp.TagFloat
	case 'D':
		return jdwp.TagDouble
	case '[':
		return jdwp.TagArray
	default:
		return jdwp.TagObject
	}
}

// SignatureToTypeName renders a JNI signature as a source-level type name
// (used for declared-type display and evaluation context parameters).
func SignatureToTypeName(sig string) string {
	if len(sig) == 0 {
		return "java.lang.Object"
	}
	switch sig[0] {
	case 'Z':
		return "boolean"
	case 'B':
		return "byte"
	case 'C':
		return "char"
	case 'S':
		return "short"
	case 'I':
		return "int"
	case 'J':
		return "long"
	case 'F':
		return "float"
	case 'D':
		return "double"
	case 'V':
		return "void"
	case '[':
		return SignatureToTypeName(sig[1:]) + "[]"
	case 'L':
		return signatureToClassName(sig)
	default:
		return sig
	}
}

// RenderValue applies the same rendering rules GetLocals and GetFields use
// to a value obtained some other way, such as an evaluate() result. Used
// by the orchestration layer so expression results and watched values are
// formatted identically to locals and fields.
func (in *Inspector) RenderValue(ctx context.Context, client *jdwp.Client, v jdwp.Value) string {
	return in.render(ctx, client, in.sess.Cache(), v)
}

// render applies spec.md section 4.2's rendering rules to a decoded value,
// inserting object-family values into the cache as a side effect.
func (in *Inspector) render(ctx context.Context, client *jdwp.Client, cache *objcache.Cache, v jdwp.Value) string {
	switch v.Tag {
	case jdwp.TagBoolean:
		return strconv.FormatBool(v.Z)
	case jdwp.TagByte:
		return strconv.Itoa(int(int8(v.B)))
	case jdwp.TagChar:
		return fmt.Sprintf("'%c'", rune(v.C))
	case jdwp.TagShort:
		return strconv.Itoa(int(int16(v.C)))
	case jdwp.TagInt:
		return strconv.FormatInt(int64(v.I), 10)
	case jdwp.TagLong:
		return strconv.FormatInt(v.J, 10)
	case jdwp.TagFloat:
		return strconv.FormatFloat(float64(v.F), 'g', -1, 32)
	case jdwp.TagDouble:
		return strconv.FormatFloat(v.D, 'g', -1, 64)
	case jdwp.TagVoid:
		return "void"
	case jdwp.TagString:
		if v.Obj == 0 {
			return "null"
		}
		text, err := client.StringValue(ctx, v.Obj)
		if err != nil {
			return fmt.Sprintf("String#%d (unreadable)", uint64(v.Obj))
		}
		return strconv.Quote(text)
	case jdwp.TagArray:
		if v.Obj == 0 {
			return "null"
		}
		return in.renderArrayHandle(ctx, client, cache, v.Obj)
	default:
		if v.Obj == 0 {
			return "null"
		}
		return in.renderObjectHandle(ctx, client, cache, v.Obj)
	}
}

func (in *Inspector) renderArrayHandle(ctx context.Context, client *jdwp.Client, cache *objcache.Cache, id jdwp.ObjectID) string {
	tag, rt, err := client.ObjectReferenceType(ctx, id)
	elemType := "Object"
	if err == nil {
		if sig, serr := client.ReferenceTypeSignature(ctx, rt); serr == nil {
			elemType = SignatureToTypeName(strings.TrimPrefix(sig, "["))
		}
		cache.Put(&objcache.Handle{ID: id, TypeTag: tag, Signature: signatureOrEmpty(ctx, client, rt)})
	}
	length := 0
	if n, lerr := client.ArrayLength(ctx, id); lerr == nil {
		length = int(n)
	}
	return fmt.Sprintf("Array#%d (%s[%d])", uint64(id), elemType, length)
}

func (in *Inspector) renderObjectHandle(ctx context.Context, client *jdwp.Client, cache *objcache.Cache, id jdwp.ObjectID) string {
	tag, rt, err := client.ObjectReferenceType(ctx, id)
	typeName := "Object"
	if err == nil {
		typeName = DeclaredTypeName(ctx, client, rt)
		cache.Put(&objcache.Handle{ID: id, TypeTag: tag, Signature: signatureOrEmpty(ctx, client, rt)})
	}
	return fmt.Sprintf("Object#%d (%s)", uint64(id), typeName)
}

func signatureOrEmpty(ctx context.Context, client *jdwp.Client, rt jdwp.ReferenceTypeID) string {
	sig, err := client.ReferenceTypeSignature(ctx, rt)
	if err != nil {
		return ""
	}
	return sig
}

// syntheticProxyMarker is the marker sequence spec.md's declared-type rule
// (section 3) hunts for when walking a class chain: a name containing it
// is a runtime proxy that cannot be referenced from source.
const syntheticProxyMarker = "$$"

// DeclaredTypeName walks rt's superclass chain until it finds a class
// whose simple-name does not contain the synthetic-proxy marker sequence
// "$$", returning that name. If every name in the chain contains the
// marker, the substring of the topmost name preceding its first "$$" is
// used instead (spec.md section 3's declared-type rule).
func DeclaredTypeName(ctx context.Context, client *jdwp.Client, rt jdwp.ReferenceTypeID) string {
	visited := map[jdwp.ReferenceTypeID]bool{}
	var topmostName string
	current := rt
	for current != 0 && !visited[current] {
		visited[current] = true
		sig, err := client.ReferenceTypeSignature(ctx, current)
		if err != nil {
			break
		}
		name := signatureToClassName(sig)
		if topmostName == "" {
			topmostName = name
		}
		if !strings.Contains(name, syntheticProxyMarker) {
			return name
		}
		super, err := client.ClassTypeSuperclass(ctx, current)
		if err != nil || super == 0 {
			break
		}
		current = super
	}
	if idx := strings.Index(topmostName, syntheticProxyMarker); idx >= 0 {
		return topmostName[:idx]
	}
	return topmostName
}
