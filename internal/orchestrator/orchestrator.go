// Package orchestrator implements spec.md section 4.10's Orchestration
// Layer: it exposes every operation from the other components as a named
// MCP tool, enforces the one ordering contract the lower layers refuse to
// enforce on their own (configure-compiler-classpath before evaluate), and
// composes the two operations — evaluate-watchers and get-current-thread —
// that need more than one collaborator.
//
// Grounded on teranos-QNTX/code/gopls/mcp_server.go's MCPServer: a
// constructor that wires a client and a mark3labs/mcp-go server, a
// registerTools method that declares each tool with mcp.NewTool +
// server.AddTool, one handler method per tool following the
// RequireString/RequireInt-then-dispatch shape, and a Serve method that
// calls server.ServeStdio.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/classpath"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/control"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/eval"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/inspector"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/logging"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/platform"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/proxyclient"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/session"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/watcher"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

// Orchestrator wires every component and exposes them over MCP.
type Orchestrator struct {
	sess *session.Session

	control         *control.Controller
	inspector       *inspector.Inspector
	classpath       *classpath.Discoverer
	platform        *platform.Discoverer
	evaluator       *eval.Evaluator
	watchers        *watcher.Registry
	proxy           *proxyclient.Client
	defaultJDWPHost string
	defaultJDWPPort int

	server *server.MCPServer
}

// New wires every collaborator around sess and returns a ready-to-serve
// Orchestrator. host/port are the target runtime's default JDWP endpoint
// (spec.md section 6); attach() may still be called with explicit
// overrides.
func New(sess *session.Session, proxy *proxyclient.Client, defaultHost string, defaultPort int) *Orchestrator {
	o := &Orchestrator{
		sess:            sess,
		control:         control.New(sess),
		inspector:       inspector.New(sess),
		classpath:       classpath.New(sess),
		platform:        platform.New(sess),
		evaluator:       eval.New(sess),
		watchers:        watcher.New(),
		proxy:           proxy,
		defaultJDWPHost: defaultHost,
		defaultJDWPPort: defaultPort,
	}

	o.server = server.NewMCPServer("jdbridge", "1.0.0", server.WithToolCapabilities(true))
	o.registerTools()
	return o
}

// Serve starts the MCP server over stdio.
func (o *Orchestrator) Serve() error {
	return server.ServeStdio(o.server)
}

func (o *Orchestrator) registerTools() {
	o.server.AddTool(mcp.NewTool("attach",
		mcp.WithDescription("Attach to the target runtime's JDWP endpoint"),
		mcp.WithString("host", mcp.Description("Target host, defaults to the configured JDWP host")),
		mcp.WithNumber("port", mcp.Description("Target port, defaults to the configured JDWP port")),
	), o.handleAttach)

	o.server.AddTool(mcp.NewTool("detach",
		mcp.WithDescription("Detach from the target runtime without issuing a VM dispose"),
	), o.handleDetach)

	o.server.AddTool(mcp.NewTool("list_threads",
		mcp.WithDescription("List every thread in the target runtime"),
	), o.handleListThreads)

	o.server.AddTool(mcp.NewTool("get_stack",
		mcp.WithDescription("Get the call stack of a suspended thread"),
		mcp.WithNumber("threadId", mcp.Required(), mcp.Description("Thread identifier")),
	), o.handleGetStack)

	o.server.AddTool(mcp.NewTool("get_locals",
		mcp.WithDescription("Get the visible local variables of a frame"),
		mcp.WithNumber("threadId", mcp.Required(), mcp.Description("Thread identifier")),
		mcp.WithNumber("frameIndex", mcp.Required(), mcp.Description("Frame index, 0 is the current frame")),
	), o.handleGetLocals)

	o.server.AddTool(mcp.NewTool("get_fields",
		mcp.WithDescription("Get the fields of a cached object, rendering known collection shapes specially"),
		mcp.WithNumber("objectId", mcp.Required(), mcp.Description("Object identifier")),
	), o.handleGetFields)

	o.server.AddTool(mcp.NewTool("resume",
		mcp.WithDescription("Resume every thread in the target runtime"),
	), o.handleResume)

	o.server.AddTool(mcp.NewTool("step_over",
		mcp.WithDescription("Step over the current line of a suspended thread"),
		mcp.WithNumber("threadId", mcp.Required(), mcp.Description("Thread identifier")),
	), o.handleStepOver)

	o.server.AddTool(mcp.NewTool("step_into",
		mcp.WithDescription("Step into the current line of a suspended thread"),
		mcp.WithNumber("threadId", mcp.Required(), mcp.Description("Thread identifier")),
	), o.handleStepInto)

	o.server.AddTool(mcp.NewTool("step_out",
		mcp.WithDescription("Step out of the current frame of a suspended thread"),
		mcp.WithNumber("threadId", mcp.Required(), mcp.Description("Thread identifier")),
	), o.handleStepOut)

	o.server.AddTool(mcp.NewTool("set_breakpoint",
		mcp.WithDescription("Set a breakpoint at a class and line"),
		mcp.WithString("className", mcp.Required(), mcp.Description("Fully-qualified class name")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("Source line number")),
	), o.handleSetBreakpoint)

	o.server.AddTool(mcp.NewTool("clear_breakpoint",
		mcp.WithDescription("Clear every enabled breakpoint at a class and line"),
		mcp.WithString("className", mcp.Required(), mcp.Description("Fully-qualified class name")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("Source line number")),
	), o.handleClearBreakpoint)

	o.server.AddTool(mcp.NewTool("clear_breakpoint_by_id",
		mcp.WithDescription("Clear a single breakpoint by its proxy request id"),
		mcp.WithNumber("requestId", mcp.Required(), mcp.Description("Breakpoint request id")),
	), o.handleClearBreakpointByID)

	o.server.AddTool(mcp.NewTool("clear_all_breakpoints",
		mcp.WithDescription("Clear every breakpoint known to the proxy"),
	), o.handleClearAllBreakpoints)

	o.server.AddTool(mcp.NewTool("configure_compiler_classpath",
		mcp.WithDescription("Discover the target's platform and classpath and configure the source compiler; required once before evaluate"),
		mcp.WithNumber("threadId", mcp.Required(), mcp.Description("A thread currently suspended at a breakpoint")),
	), o.handleConfigureCompilerClasspath)

	o.server.AddTool(mcp.NewTool("evaluate",
		mcp.WithDescription("Evaluate a source expression against a suspended frame"),
		mcp.WithNumber("threadId", mcp.Required(), mcp.Description("Thread identifier")),
		mcp.WithNumber("frameIndex", mcp.Required(), mcp.Description("Frame index, 0 is the current frame")),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Source expression, may reference this and locals")),
	), o.handleEvaluate)

	o.server.AddTool(mcp.NewTool("watcher_create",
		mcp.WithDescription("Create a named expression watcher bound to a breakpoint"),
		mcp.WithString("label", mcp.Required(), mcp.Description("Human-readable label")),
		mcp.WithString("breakpointId", mcp.Required(), mcp.Description("Breakpoint request id this watcher fires at")),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Source expression")),
	), o.handleWatcherCreate)

	o.server.AddTool(mcp.NewTool("watcher_get",
		mcp.WithDescription("Get one watcher by id"),
		mcp.WithString("watcherId", mcp.Required(), mcp.Description("Watcher id")),
	), o.handleWatcherGet)

	o.server.AddTool(mcp.NewTool("watcher_for_breakpoint",
		mcp.WithDescription("List every watcher attached to a breakpoint"),
		mcp.WithString("breakpointId", mcp.Required(), mcp.Description("Breakpoint request id")),
	), o.handleWatcherForBreakpoint)

	o.server.AddTool(mcp.NewTool("watcher_all",
		mcp.WithDescription("List every registered watcher"),
	), o.handleWatcherAll)

	o.server.AddTool(mcp.NewTool("watcher_delete",
		mcp.WithDescription("Delete one watcher by id"),
		mcp.WithString("watcherId", mcp.Required(), mcp.Description("Watcher id")),
	), o.handleWatcherDelete)

	o.server.AddTool(mcp.NewTool("watcher_delete_for_breakpoint",
		mcp.WithDescription("Delete every watcher attached to a breakpoint"),
		mcp.WithString("breakpointId", mcp.Required(), mcp.Description("Breakpoint request id")),
	), o.handleWatcherDeleteForBreakpoint)

	o.server.AddTool(mcp.NewTool("watcher_clear",
		mcp.WithDescription("Delete every watcher"),
	), o.handleWatcherClear)

	o.server.AddTool(mcp.NewTool("evaluate_watchers",
		mcp.WithDescription("Evaluate watchers for a suspended thread, either at the current frame or across the full stack"),
		mcp.WithNumber("threadId", mcp.Required(), mcp.Description("Thread identifier")),
		mcp.WithString("scope", mcp.Required(), mcp.Description("Either current-frame or full-stack")),
		mcp.WithString("breakpointId", mcp.Description("Breakpoint request id, required for current-frame unless inferred from the current location")),
	), o.handleEvaluateWatchers)

	o.server.AddTool(mcp.NewTool("get_current_thread",
		mcp.WithDescription("Get the thread most recently paused at a breakpoint, per the proxy"),
	), o.handleGetCurrentThread)

	o.server.AddTool(mcp.NewTool("recent_events",
		mcp.WithDescription("List the most recent protocol events observed on the JDWP event channel"),
	), o.handleRecentEvents)
}

func (o *Orchestrator) handleAttach(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	host := request.GetString("host", o.defaultJDWPHost)
	port := request.GetInt("port", o.defaultJDWPPort)

	if err := o.sess.Attach(ctx, host, port); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if client, err := o.sess.Client(ctx); err == nil {
		go o.pumpEvents(client)
	}
	return mcp.NewToolResultText(fmt.Sprintf("attached to %s:%d", host, port)), nil
}

// pumpEvents drains one client's composite events into the shared event
// history until the connection drops (spec.md section 3's optional event
// history). A transparent reattach inside Session.Client does not start a
// new pump, so events arriving between a dead connection and the next
// explicit attach call are lost rather than recorded.
func (o *Orchestrator) pumpEvents(client *jdwp.Client) {
	for ev := range client.Events() {
		o.inspector.History().Record(inspector.HistoryEntry{
			Kind:      ev.Kind,
			RequestID: ev.RequestID,
			ThreadID:  jdwp.ThreadID(ev.ThreadID),
		})
	}
}

func (o *Orchestrator) handleDetach(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	o.sess.Detach()
	return mcp.NewToolResultText("detached"), nil
}

func (o *Orchestrator) handleListThreads(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threads, err := o.inspector.ListThreads(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	for _, t := range threads {
		fmt.Fprintf(&b, "%d\t%s\tstatus=%d\tsuspended=%v\tframes=%d\n", uint64(t.ID), t.Name, t.Status, t.Suspended, t.FrameCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (o *Orchestrator) handleGetStack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threadID, err := requireThreadID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	frames, err := o.inspector.GetStack(ctx, threadID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	for i, f := range frames {
		fmt.Fprintf(&b, "%d\t%s.%s(%s:%d)\n", i, f.ClassName, f.MethodName, f.SourceName, f.Line)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (o *Orchestrator) handleGetLocals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threadID, err := requireThreadID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	frameIndex, err := request.RequireInt("frameIndex")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	locals, err := o.inspector.GetLocals(ctx, threadID, frameIndex)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	for _, l := range locals {
		fmt.Fprintf(&b, "%s = %s\n", l.Name, l.Value)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (o *Orchestrator) handleGetFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	objectID, err := request.RequireInt("objectId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := o.inspector.GetFields(ctx, jdwp.ObjectID(objectID))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(renderFieldsResult(result)), nil
}

func renderFieldsResult(r *inspector.FieldsResult) string {
	var b strings.Builder
	switch {
	case r.IsArray:
		for i, e := range r.ArrayElements {
			fmt.Fprintf(&b, "[%d] = %s\n", i, e)
		}
		if r.ArrayRemainder > 0 {
			fmt.Fprintf(&b, "... (%d more)\n", r.ArrayRemainder)
		}
	case r.IsCollection:
		fmt.Fprintf(&b, "Kind: %s\nSize: %d\n", r.CollectionKind, r.Size)
		for _, e := range r.ListElements {
			fmt.Fprintf(&b, "%s\n", e)
		}
		for _, e := range r.MapEntries {
			fmt.Fprintf(&b, "%s\n", e)
		}
		for _, f := range r.RawFields {
			fmt.Fprintf(&b, "%s = %s\n", f.Name, f.Value)
		}
	default:
		for _, f := range r.Fields {
			fmt.Fprintf(&b, "%s = %s\n", f.Name, f.Value)
		}
	}
	return b.String()
}

func (o *Orchestrator) handleResume(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := o.control.Resume(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("resumed"), nil
}

func (o *Orchestrator) handleStepOver(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return o.step(ctx, request, control.StepOver)
}

func (o *Orchestrator) handleStepInto(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return o.step(ctx, request, control.StepInto)
}

func (o *Orchestrator) handleStepOut(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return o.step(ctx, request, control.StepOut)
}

func (o *Orchestrator) step(ctx context.Context, request mcp.CallToolRequest, depth control.StepDepth) (*mcp.CallToolResult, error) {
	threadID, err := requireThreadID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := o.control.Step(ctx, threadID, depth); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("stepped"), nil
}

func (o *Orchestrator) handleSetBreakpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	className, err := request.RequireString("className")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := request.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bp, err := o.control.SetBreakpoint(ctx, className, line)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("breakpoint %d set at %s:%d", bp.RequestID, bp.ClassName, bp.LineNumber)), nil
}

// handleClearBreakpoint, handleClearBreakpointByID and
// handleClearAllBreakpoints all route through the proxy's HTTP API rather
// than the local EventRequest.Clear command: the proxy is the
// authoritative breakpoint store (spec.md section 3), and a breakpoint
// visible here may have been installed by a different peer sharing the
// same proxy connection. clear-breakpoint additionally needs the proxy's
// className/lineNumber listing to translate a location into the request
// ids it clears.
func (o *Orchestrator) handleClearBreakpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	className, err := request.RequireString("className")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := request.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	all, err := o.proxy.Breakpoints(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cleared := 0
	for _, bp := range all {
		if bp.ClassName != className || bp.LineNumber != line {
			continue
		}
		if err := o.proxy.DeleteBreakpoint(ctx, bp.RequestID); err != nil {
			logging.Logger.Warnw("failed clearing breakpoint", logging.FieldClassName, className, logging.FieldError, err)
			continue
		}
		cleared++
	}
	return mcp.NewToolResultText(fmt.Sprintf("cleared %d breakpoint(s) at %s:%d", cleared, className, line)), nil
}

func (o *Orchestrator) handleClearBreakpointByID(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID, err := request.RequireInt("requestId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := o.proxy.DeleteBreakpoint(ctx, requestID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("cleared breakpoint %d", requestID)), nil
}

func (o *Orchestrator) handleClearAllBreakpoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all, err := o.proxy.Breakpoints(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cleared := 0
	for _, bp := range all {
		if err := o.proxy.DeleteBreakpoint(ctx, bp.RequestID); err != nil {
			logging.Logger.Warnw("failed clearing breakpoint", logging.FieldBreakpointID, bp.RequestID, logging.FieldError, err)
			continue
		}
		cleared++
	}
	return mcp.NewToolResultText(fmt.Sprintf("cleared %d breakpoint(s)", cleared)), nil
}

func (o *Orchestrator) handleConfigureCompilerClasspath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threadID, err := requireThreadID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := o.configureCompilerClasspath(ctx, threadID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("compiler classpath configured"), nil
}

// configureCompilerClasspath implements spec.md section 4.8's ordering
// precondition: platform discovery and classpath discovery both perform
// remote invocations, so both run here, explicitly, before any evaluate
// call is allowed to run its own remote invocations.
func (o *Orchestrator) configureCompilerClasspath(ctx context.Context, threadID jdwp.ThreadID) error {
	plat, err := o.platform.Discover(ctx, threadID)
	if err != nil {
		return err
	}
	cp, err := o.classpath.Discover(ctx, threadID)
	if err != nil {
		return err
	}

	classpathString := strings.Join(cp.Entries, string(os.PathListSeparator))
	o.sess.MarkClasspathConfigured(cp.Entries, plat.Home, classpathString)
	return nil
}

func (o *Orchestrator) handleEvaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threadID, err := requireThreadID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	frameIndex, err := request.RequireInt("frameIndex")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	expression, err := request.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := o.evaluate(ctx, threadID, frameIndex, expression)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

// evaluate runs one expression and renders its result the same way a
// local or field value is rendered.
func (o *Orchestrator) evaluate(ctx context.Context, threadID jdwp.ThreadID, frameIndex int, expression string) (string, error) {
	result, err := o.evaluator.Evaluate(ctx, threadID, frameIndex, expression)
	if err != nil {
		return "", err
	}
	client, err := o.sess.Client(ctx)
	if err != nil {
		return "", err
	}
	return o.inspector.RenderValue(ctx, client, result), nil
}

func (o *Orchestrator) handleWatcherCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := request.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	breakpointID, err := request.RequireString("breakpointId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	expression, err := request.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	w := o.watchers.Create(label, breakpointID, expression)
	return mcp.NewToolResultText(w.ID), nil
}

func (o *Orchestrator) handleWatcherGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	watcherID, err := request.RequireString("watcherId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	w, err := o.watchers.Get(watcherID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(renderWatcher(w)), nil
}

func (o *Orchestrator) handleWatcherForBreakpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	breakpointID, err := request.RequireString("breakpointId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	for _, w := range o.watchers.ForBreakpoint(breakpointID) {
		b.WriteString(renderWatcher(w))
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (o *Orchestrator) handleWatcherAll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	for _, w := range o.watchers.All() {
		b.WriteString(renderWatcher(w))
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (o *Orchestrator) handleWatcherDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	watcherID, err := request.RequireString("watcherId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ok := o.watchers.Delete(watcherID)
	return mcp.NewToolResultText(strconv.FormatBool(ok)), nil
}

func (o *Orchestrator) handleWatcherDeleteForBreakpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	breakpointID, err := request.RequireString("breakpointId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n := o.watchers.DeleteForBreakpoint(breakpointID)
	return mcp.NewToolResultText(fmt.Sprintf("deleted %d watcher(s)", n)), nil
}

func (o *Orchestrator) handleWatcherClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	o.watchers.Clear()
	return mcp.NewToolResultText("cleared"), nil
}

func renderWatcher(w *watcher.Watcher) string {
	return fmt.Sprintf("%s\t%s\tbreakpoint=%s\t%s", w.ID, w.Label, w.BreakpointID, w.Expression)
}

const (
	scopeCurrentFrame = "current-frame"
	scopeFullStack    = "full-stack"
)

func (o *Orchestrator) handleEvaluateWatchers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threadID, err := requireThreadID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	scope, err := request.RequireString("scope")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	breakpointID := request.GetString("breakpointId", "")

	text, err := o.evaluateWatchers(ctx, threadID, scope, breakpointID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

// evaluateWatchers implements spec.md section 4.10's composite operation.
// It always drives configure-compiler-classpath itself first, so callers
// never have to sequence the two calls by hand.
func (o *Orchestrator) evaluateWatchers(ctx context.Context, threadID jdwp.ThreadID, scope, breakpointID string) (string, error) {
	client, err := o.sess.Client(ctx)
	if err != nil {
		return "", err
	}
	suspended, err := inspector.IsSuspended(ctx, client, threadID)
	if err != nil {
		return "", err
	}
	if !suspended {
		return "", xerrors.ThreadNotSuspended
	}

	if err := o.configureCompilerClasspath(ctx, threadID); err != nil {
		return "", err
	}

	proxyBreakpoints, err := o.proxy.Breakpoints(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	switch scope {
	case scopeCurrentFrame:
		frames, err := o.inspector.GetStack(ctx, threadID)
		if err != nil {
			return "", err
		}
		if len(frames) == 0 {
			return "", fmt.Errorf("thread %d has no frames", uint64(threadID))
		}
		current := frames[0]
		id := breakpointID
		if id == "" {
			if bp, ok := findBreakpoint(proxyBreakpoints, current.ClassName, current.Line); ok {
				id = strconv.Itoa(bp.RequestID)
			}
		}
		if id == "" {
			return "", fmt.Errorf("no breakpoint found at %s:%d", current.ClassName, current.Line)
		}
		o.evaluateWatchersForBreakpoint(ctx, &b, threadID, 0, id)

	case scopeFullStack:
		frames, err := o.inspector.GetStack(ctx, threadID)
		if err != nil {
			return "", err
		}
		for i, f := range frames {
			bp, ok := findBreakpoint(proxyBreakpoints, f.ClassName, f.Line)
			if !ok {
				continue
			}
			o.evaluateWatchersForBreakpoint(ctx, &b, threadID, i, strconv.Itoa(bp.RequestID))
		}

	default:
		return "", fmt.Errorf("unknown scope %q, expected %q or %q", scope, scopeCurrentFrame, scopeFullStack)
	}

	return b.String(), nil
}

func (o *Orchestrator) evaluateWatchersForBreakpoint(ctx context.Context, b *strings.Builder, threadID jdwp.ThreadID, frameIndex int, breakpointID string) {
	for _, w := range o.watchers.ForBreakpoint(breakpointID) {
		if !w.Allow() {
			fmt.Fprintf(b, "%s (%s) = [RATE LIMITED]\n", w.Label, w.ID)
			continue
		}
		text, err := o.evaluate(ctx, threadID, frameIndex, w.Expression)
		if err != nil {
			text = fmt.Sprintf("[ERROR: %s]", err.Error())
		}
		fmt.Fprintf(b, "%s (%s) = %s\n", w.Label, w.ID, text)
	}
}

func findBreakpoint(all []proxyclient.Breakpoint, className string, line int) (proxyclient.Breakpoint, bool) {
	for _, bp := range all {
		if bp.ClassName == className && bp.LineNumber == line {
			return bp, true
		}
	}
	return proxyclient.Breakpoint{}, false
}

func (o *Orchestrator) handleGetCurrentThread(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	thread, err := o.proxy.CurrentThread(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if thread == nil {
		return mcp.NewToolResultText("null"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d\t%s\tsuspended=%v\tframes=%d", thread.ThreadID, thread.ThreadName, thread.Suspended, thread.Frames)), nil
}

func (o *Orchestrator) handleRecentEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	for _, e := range o.inspector.History().Snapshot() {
		fmt.Fprintf(&b, "kind=%d\trequestId=%d\tthreadId=%d\n", e.Kind, e.RequestID, uint64(e.ThreadID))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func requireThreadID(request mcp.CallToolRequest) (jdwp.ThreadID, error) {
	id, err := request.RequireInt("threadId")
	if err != nil {
		return 0, err
	}
	return jdwp.ThreadID(id), nil
}
