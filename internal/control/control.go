// Package control implements spec.md section 4.3's Execution Controller:
// resume, line-granularity step (over/into/out), and breakpoint
// set/clear. It is a thin command-composition layer over internal/jdwp,
// the same layering the teacher uses between StdioClient (transport) and
// Service (operations) in
// teranos-QNTX/qntx-code/langserver/gopls/client.go and service.go.
package control

import (
	"context"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/inspector"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/logging"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/session"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

// Controller drives execution of the target VM.
type Controller struct {
	sess *session.Session
}

func New(sess *session.Session) *Controller {
	return &Controller{sess: sess}
}

// Resume implements spec.md's resume() operation: resumes every thread.
func (c *Controller) Resume(ctx context.Context) error {
	client, err := c.sess.Client(ctx)
	if err != nil {
		return err
	}
	return client.VMResume(ctx)
}

// StepDepth mirrors the three granularities spec.md section 4.3 names.
type StepDepth int32

const (
	StepOver StepDepth = jdwp.StepDepthOver
	StepInto StepDepth = jdwp.StepDepthInto
	StepOut  StepDepth = jdwp.StepDepthOut
)

// Step installs a single-shot, count-filtered line-granularity step
// request at the requested depth and resumes the thread. The request's
// state machine is created -> enabled -> fired -> auto-disposed: JDWP
// itself retires a count-filtered request once it fires, so no explicit
// clear is issued here.
func (c *Controller) Step(ctx context.Context, threadID jdwp.ThreadID, depth StepDepth) error {
	client, err := c.sess.Client(ctx)
	if err != nil {
		return err
	}

	suspended, err := inspector.IsSuspended(ctx, client, threadID)
	if err != nil {
		return err
	}
	if !suspended {
		return xerrors.ThreadNotSuspended
	}

	if _, err := client.SetStep(ctx, threadID, int32(depth), jdwp.SuspendPolicyEventThread); err != nil {
		return err
	}
	return client.ThreadResume(ctx, threadID)
}

// Breakpoint mirrors the externally-authoritative breakpoint record
// spec.md section 3 describes (the proxy owns the list; this engine only
// knows the request id it received back from EventRequest.Set).
type Breakpoint struct {
	RequestID  uint32
	ClassName  string
	LineNumber int
}

// SetBreakpoint resolves className to a loaded reference type, finds the
// first executable location on line, and installs an enabled breakpoint
// (spec.md's set-breakpoint operation).
func (c *Controller) SetBreakpoint(ctx context.Context, className string, line int) (*Breakpoint, error) {
	client, err := c.sess.Client(ctx)
	if err != nil {
		return nil, err
	}

	signature := classNameToSignature(className)
	classes, err := client.ClassesBySignature(ctx, signature)
	if err != nil || len(classes) == 0 {
		return nil, xerrors.ClassNotLoaded
	}
	rt := classes[0]

	loc, err := firstExecutableLocation(ctx, client, rt, line)
	if err != nil {
		return nil, err
	}

	requestID, err := client.SetBreakpoint(ctx, loc, jdwp.SuspendPolicyEventThread)
	if err != nil {
		return nil, err
	}

	logging.Logger.Infow("breakpoint set", logging.FieldClassName, className, logging.FieldBreakpointID, requestID)
	return &Breakpoint{RequestID: requestID, ClassName: className, LineNumber: line}, nil
}

func firstExecutableLocation(ctx context.Context, client *jdwp.Client, rt jdwp.ReferenceTypeID, line int) (jdwp.Location, error) {
	methods, err := client.ReferenceTypeMethods(ctx, rt)
	if err != nil {
		return jdwp.Location{}, err
	}
	for _, m := range methods {
		table, err := client.MethodLineTable(ctx, rt, m.ID)
		if err != nil {
			continue
		}
		for _, e := range table {
			if int(e.Line) == line {
				return jdwp.Location{TypeTag: jdwp.TagClassObject, Class: rt, Method: m.ID, Index: uint64(e.CodeIndex)}, nil
			}
		}
	}
	return jdwp.Location{}, xerrors.NoExecutableCode
}

func classNameToSignature(className string) string {
	return "L" + dotsToSlashes(className) + ";"
}

func dotsToSlashes(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			out[i] = '/'
		} else {
			out[i] = s[i]
		}
	}
	return string(out)
}
