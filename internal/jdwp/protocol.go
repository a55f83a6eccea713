// Package jdwp implements a minimal client for the Java Debug Wire
// Protocol: packet framing, the handshake, request/reply correlation, and
// the small set of command sets this engine actually drives (virtual
// machine, reference/class/object/thread/array/string references, event
// requests, and the composite event stream).
//
// Grounded on teranos-QNTX/qntx-code/langserver/gopls/client.go: the same
// atomic request-id counter, pending-reply map keyed by id, and a single
// background read loop dispatching replies to waiting callers. That client
// frames JSON-RPC over stdio pipes to a spawned process; this one frames
// binary JDWP packets over a TCP socket to an already-running target.
package jdwp

// Command sets, per the JDWP specification.
const (
	csVirtualMachine       = 1
	csReferenceType        = 2
	csClassType            = 3
	csArrayType            = 4
	csInterfaceType        = 5
	csMethod               = 6
	csField                = 8
	csObjectReference      = 9
	csStringReference      = 10
	csThreadReference      = 11
	csThreadGroupReference = 12
	csArrayReference       = 13
	csClassLoaderReference = 14
	csEventRequest         = 15
	csStackFrame           = 16
	csClassObjectReference = 17
	csEvent                = 64
)

// VirtualMachine commands (command set 1).
const (
	cmdVMVersion            = 1
	cmdVMClassesBySignature = 2
	cmdVMAllThreads         = 4
	cmdVMDispose            = 6
	cmdVMIDSizes            = 7
	cmdVMSuspend            = 8
	cmdVMResume             = 9
	cmdVMCreateString       = 11
	cmdVMTopLevelThreadGroups = 3
)

// ReferenceType commands (command set 2).
const (
	cmdRTSignature   = 1
	cmdRTClassLoader = 2
	cmdRTFields      = 4
	cmdRTMethods     = 5
	cmdRTGetValues   = 6
	cmdRTSourceFile  = 7
	cmdRTInterfaces  = 10
)

// ClassType commands (command set 3).
const (
	cmdCTSuperclass   = 1
	cmdCTSetValues    = 2
	cmdCTInvokeMethod = 3
)

// Method commands (command set 6).
const (
	cmdMethodLineTable     = 1
	cmdMethodVariableTable = 2
)

// ObjectReference commands (command set 9).
const (
	cmdORReferenceType = 1
	cmdORGetValues     = 2
	cmdORInvokeMethod  = 6
)

// StringReference commands (command set 10).
const cmdSRValue = 1

// ThreadReference commands (command set 11).
const (
	cmdTRName       = 1
	cmdTRSuspend    = 2
	cmdTRResume     = 3
	cmdTRStatus     = 4
	cmdTRFrames     = 6
	cmdTRFrameCount = 7
)

// ArrayType commands (command set 4).
const cmdATNewInstance = 1

// ClassObjectReference commands (command set 17).
const cmdCORReflectedType = 1

// ArrayReference commands (command set 13).
const (
	cmdARLength    = 1
	cmdARGetValues = 2
	cmdARSetValues = 3
)

// ClassLoaderReference commands (command set 14).
const cmdCLRVisibleClasses = 1

// EventRequest commands (command set 15).
const (
	cmdERSet                 = 1
	cmdERClear               = 2
	cmdERClearAllBreakpoints = 3
)

// StackFrame commands (command set 16).
const (
	cmdSFGetValues  = 1
	cmdSFThisObject = 3
)

// Event commands (command set 64).
const cmdEventComposite = 100

// EventKind identifies the kind of event carried in a composite event set.
type EventKind byte

const (
	EventBreakpoint   EventKind = 2
	EventStep         EventKind = 1
	EventException    EventKind = 4
	EventThreadStart  EventKind = 6
	EventThreadDeath  EventKind = 7
	EventClassPrepare EventKind = 8
	EventVMDeath      EventKind = 99
)

// SuspendPolicy values for EventRequest.Set.
const (
	SuspendPolicyNone        = 0
	SuspendPolicyEventThread = 1
	SuspendPolicyAll         = 2
)

// StepDepth values for a step event request's modifier.
const (
	StepDepthInto = 0
	StepDepthOver = 1
	StepDepthOut  = 2
)

// StepSize is always line granularity for this engine (spec.md section 4.3).
const StepSizeLine = 1

// Modifier kinds for EventRequest.Set.
const (
	modCount           = 1
	modLocationOnly    = 7
	modStep            = 10
)

// Tag bytes used in the JDWP value encoding (spec.md's rendering rules
// operate on the decoded form of these).
const (
	TagArray       = '['
	TagByte        = 'B'
	TagChar        = 'C'
	TagObject      = 'L'
	TagFloat       = 'F'
	TagDouble      = 'D'
	TagInt         = 'I'
	TagLong        = 'J'
	TagShort       = 'S'
	TagVoid        = 'V'
	TagBoolean     = 'Z'
	TagString      = 's'
	TagThread      = 't'
	TagThreadGroup = 'g'
	TagClassLoader = 'l'
	TagClassObject = 'c'
)

// ErrorCode is a JDWP reply error code (0 = no error).
type ErrorCode uint16

const (
	ErrNone            ErrorCode = 0
	ErrInvalidThread   ErrorCode = 10
	ErrThreadNotSuspended ErrorCode = 13
	ErrInvalidObject   ErrorCode = 20
	ErrInvalidClass    ErrorCode = 21
	ErrClassNotPrepared ErrorCode = 22
	ErrInvalidMethodID ErrorCode = 23
	ErrInvalidLocation ErrorCode = 24
	ErrInvalidFieldID  ErrorCode = 25
	ErrInvalidFrameID  ErrorCode = 30
	ErrNotImplemented  ErrorCode = 99
	ErrVMDead          ErrorCode = 112
)
