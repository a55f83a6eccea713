// Package xerrors re-exports github.com/cockroachdb/errors for consistent
// wrapping, wrapping, and hinting across the codebase, and layers the
// debug-engine error taxonomy from spec.md section 7 on top of it.
package xerrors

import (
	crdb "github.com/cockroachdb/errors"
)

var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	Mark         = crdb.Mark
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
	Is           = crdb.Is
	As           = crdb.As
	Unwrap       = crdb.Unwrap
	GetAllHints  = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
)

// Kind is a sentinel error identifying one of the taxonomy entries in
// spec.md section 7. Kind itself implements error, so a call site with no
// distinct underlying cause returns the sentinel directly — Is(err, KindX)
// then holds by plain pointer identity. A call site wrapping a real cause
// must route it through WrapKind (or Mark, for anything WrapKind's
// "kind.Error(): cause" message shape doesn't fit) so the sentinel survives
// in the chain; passing kind.Error() as a bare string, the way a bug fixed
// here once did throughout this tree, produces a new error with no relation
// to the sentinel and silently breaks every Is(err, KindX) check.
type Kind struct {
	name string
}

func (k *Kind) Error() string { return k.name }

// WrapKind wraps cause with kind's message, the way Wrap(cause,
// kind.Error()) reads, but marks the result so Is(result, kind) still
// succeeds — Wrap alone discards kind's identity the moment its message is
// flattened to a string.
func WrapKind(cause error, kind *Kind) error {
	return Mark(Wrap(cause, kind.Error()), kind)
}

// Session layer.
var (
	NotAttached      = &Kind{"not attached"}
	TransportFailed  = &Kind{"transport failed"}
	ProtocolMismatch = &Kind{"protocol mismatch"}
)

// Inspection layer.
var (
	ThreadNotFound     = &Kind{"thread not found"}
	ThreadNotSuspended = &Kind{"thread not suspended"}
	FrameOutOfRange    = &Kind{"frame out of range"}
	NoDebugInfo        = &Kind{"no debug info"}
)

// Control layer.
var (
	ClassNotLoaded    = &Kind{"class not loaded"}
	NoExecutableCode  = &Kind{"no executable code at line"}
	BreakpointNotFound = &Kind{"breakpoint not found"}
)

// Discovery layer.
var (
	NotSuspended    = &Kind{"thread not suspended at a breakpoint"}
	NoContextLoader = &Kind{"no context class loader"}
	PlatformNotFound = &Kind{"no matching platform runtime found"}
	ClasspathEmpty  = &Kind{"classpath is empty"}
)

// Compiler.
var CompilationFailed = &Kind{"compilation failed"}

// Remote execution layer.
var (
	DefineFailed        = &Kind{"defineClass failed"}
	InitializerThrew    = &Kind{"class initializer threw"}
	MethodNotFound      = &Kind{"static method not found"}
	InvocationThrew     = &Kind{"invocation threw"}
	IncompatibleThreadState = &Kind{"incompatible thread state"}
)

// Registry/cache layer.
var (
	ObjectNotCached = &Kind{"object not in cache"}
	WatcherNotFound = &Kind{"watcher not found"}
)

// Wrap3Env attaches the deterministic remediation hint spec.md section 7
// requires for the three "environment" errors. cause may be nil, in which
// case kind itself (already an error) is the returned chain's root; a
// non-nil cause is folded in via WrapKind so both it and kind survive.
func Wrap3Env(kind *Kind, remediation string, cause error) error {
	var wrapped error
	if cause == nil {
		wrapped = kind
	} else {
		wrapped = WrapKind(cause, kind)
	}
	return WithHint(wrapped, remediation)
}
