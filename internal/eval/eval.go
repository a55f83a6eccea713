// Package eval implements spec.md section 4.8's Expression Evaluator: the
// component that turns a textual expression typed against a suspended
// frame into a running remote invocation. It builds an evaluation context
// from the frame's receiver and locals, composes a throwaway Java source
// unit around the rewritten expression, compiles it through
// internal/compiler, and runs it through internal/remote — caching
// compiled bytecode by a fingerprint of the context shape and the
// expression text, since most watcher re-evaluations repeat both.
//
// Grounded on internal/inspector's declared-type and rendering helpers
// (DeclaredTypeName, SignatureToTypeName, IsSyntheticCapture,
// TagForSignature — this package asks the same questions about a frame
// that get-locals does, reusing rather than re-deriving them) and the
// `google/uuid` usage pattern in bassosimone-nop, oriys-nova, and
// teranos-QNTX's go.mod requires (a UUID with separators stripped as an
// opaque wire-safe identifier).
package eval

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/compiler"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/inspector"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/remote"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/session"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

// evaluationPackage is the fixed package every generated wrapper class
// lives under (spec.md section 4.8 step 2).
const evaluationPackage = "jdbridge.eval"

// evaluationMethod is the single public static method every generated
// class exposes; the Remote Executor finds it by name alone.
const evaluationMethod = "evaluate"

var thisToken = regexp.MustCompile(`\bthis\b`)

// contextVar is one evaluation-context binding: a declared-type parameter
// with its current value, in the order it will be passed to the compiled
// method.
type contextVar struct {
	Name         string
	DeclaredType string
	Value        jdwp.Value
}

// compiledUnit is a compilation-cache entry: the class name chosen the
// first time this (context-signature, expression) pair was compiled, and
// the bytecode the compiler produced for it. Both are reused verbatim on
// a cache hit (spec.md section 3's Compilation cache: "value is the
// bytecode map").
type compiledUnit struct {
	className string
	bytes     []byte
}

// Evaluator is spec.md section 4.8's Expression Evaluator.
type Evaluator struct {
	sess *session.Session

	mu    sync.Mutex
	cache map[string]compiledUnit
}

func New(sess *session.Session) *Evaluator {
	return &Evaluator{sess: sess, cache: make(map[string]compiledUnit)}
}

// Evaluate implements the evaluate(frame, expression) operation. Callers
// must have already driven configure-compiler-classpath on this thread at
// least once this session — the Orchestration layer owns that ordering
// contract (spec.md section 4.8's precondition), not this package.
func (e *Evaluator) Evaluate(ctx context.Context, threadID jdwp.ThreadID, frameIndex int, expression string) (jdwp.Value, error) {
	client, err := e.sess.Client(ctx)
	if err != nil {
		return jdwp.Value{}, err
	}

	suspended, err := inspector.IsSuspended(ctx, client, threadID)
	if err != nil {
		return jdwp.Value{}, err
	}
	if !suspended {
		return jdwp.Value{}, xerrors.ThreadNotSuspended
	}

	platformHome, classpath, ok := e.sess.CompilerConfig()
	if !ok {
		return jdwp.Value{}, xerrors.Wrap3Env(xerrors.ClasspathEmpty, "call configure-compiler-classpath before evaluate", nil)
	}

	vars, thisObj, thisRT, err := e.buildContext(ctx, client, threadID, frameIndex)
	if err != nil {
		return jdwp.Value{}, err
	}

	rewritten := thisToken.ReplaceAllString(expression, "_this")
	signature := contextSignature(vars)
	cacheKey := signature + "\x00" + expression

	unit, err := e.compiled(ctx, cacheKey, vars, rewritten, platformHome, classpath)
	if err != nil {
		return jdwp.Value{}, err
	}

	loader, err := e.classLoaderFor(ctx, client, thisObj, thisRT)
	if err != nil {
		return jdwp.Value{}, err
	}

	args := make([]jdwp.Value, len(vars))
	for i, v := range vars {
		args[i] = v.Value
	}

	executor := remote.New(client)
	return executor.Execute(ctx, threadID, loader, unit.className, unit.bytes, evaluationMethod, args)
}

// compiled returns the cached unit for cacheKey, compiling it on a miss.
func (e *Evaluator) compiled(ctx context.Context, cacheKey string, vars []contextVar, rewritten, platformHome, classpath string) (compiledUnit, error) {
	e.mu.Lock()
	unit, hit := e.cache[cacheKey]
	e.mu.Unlock()
	if hit {
		return unit, nil
	}

	className := evaluationPackage + ".Eval" + strings.ReplaceAll(uuid.New().String(), "-", "")
	source := composeSource(className, vars, rewritten)

	comp := compiler.New(platformHome, classpath)
	classes, err := comp.Compile(ctx, compiler.Unit{ClassName: className, Source: source})
	if err != nil {
		return compiledUnit{}, err
	}
	bytes, ok := classes[className]
	if !ok {
		return compiledUnit{}, xerrors.CompilationFailed
	}

	unit = compiledUnit{className: className, bytes: bytes}
	e.mu.Lock()
	e.cache[cacheKey] = unit
	e.mu.Unlock()
	return unit, nil
}

// buildContext implements spec.md section 4.8 step 1: a `_this` binding at
// the frame's declared receiver type when present, plus every visible
// local that is not a compiler-synthesized capture. It also returns the
// receiver object id and its reference type, used afterward to select the
// class loader generated bytecode is defined against.
func (e *Evaluator) buildContext(ctx context.Context, client *jdwp.Client, threadID jdwp.ThreadID, frameIndex int) ([]contextVar, jdwp.ObjectID, jdwp.ReferenceTypeID, error) {
	frames, err := client.ThreadFrames(ctx, threadID, int32(frameIndex), 1)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(frames) == 0 {
		return nil, 0, 0, xerrors.FrameOutOfRange
	}
	frame := frames[0]

	var vars []contextVar
	var thisObj jdwp.ObjectID
	var thisRT jdwp.ReferenceTypeID

	thisObj, err = client.StackFrameThisObject(ctx, threadID, frame.ID)
	if err == nil && thisObj != 0 {
		_, rt, rterr := client.ObjectReferenceType(ctx, thisObj)
		if rterr == nil {
			thisRT = rt
			declaredType := inspector.DeclaredTypeName(ctx, client, rt)
			vars = append(vars, contextVar{
				Name:         "_this",
				DeclaredType: declaredType,
				Value:        jdwp.Value{Tag: jdwp.TagObject, Obj: thisObj},
			})
		}
	}

	_, slots, err := client.MethodVariableTable(ctx, frame.Location.Class, frame.Location.Method)
	if err != nil {
		return nil, 0, 0, xerrors.WrapKind(err, xerrors.NoDebugInfo)
	}

	var requests []jdwp.SlotRequest
	var kept []jdwp.VariableSlot
	for _, s := range slots {
		if inspector.IsSyntheticCapture(s.Name) {
			continue
		}
		requests = append(requests, jdwp.SlotRequest{Slot: s.Slot, Tag: inspector.TagForSignature(s.Signature)})
		kept = append(kept, s)
	}
	if len(requests) > 0 {
		values, err := client.StackFrameGetValues(ctx, threadID, frame.ID, requests)
		if err != nil {
			return nil, 0, 0, err
		}
		for i, s := range kept {
			vars = append(vars, contextVar{
				Name:         s.Name,
				DeclaredType: inspector.SignatureToTypeName(s.Signature),
				Value:        values[i],
			})
		}
	}

	return vars, thisObj, thisRT, nil
}

// classLoaderFor resolves the frame's receiver's defining loader, or the
// bootstrap loader for a static frame (spec.md section 4.7's class-loader
// selection rule via remote.SelectClassLoader).
func (e *Evaluator) classLoaderFor(ctx context.Context, client *jdwp.Client, thisObj jdwp.ObjectID, thisRT jdwp.ReferenceTypeID) (jdwp.ObjectID, error) {
	if thisObj == 0 {
		return remote.SelectClassLoader(0, 0), nil
	}
	loader, err := client.ReferenceTypeClassLoader(ctx, thisRT)
	if err != nil {
		return 0, err
	}
	return remote.SelectClassLoader(thisObj, loader), nil
}

// contextSignature fingerprints a context's (name, declared-type) pairs in
// order, the textual half of the compilation cache key (spec.md's
// "Context signature" glossary entry).
func contextSignature(vars []contextVar) string {
	var b strings.Builder
	for _, v := range vars {
		b.WriteString(v.DeclaredType)
		b.WriteByte(' ')
		b.WriteString(v.Name)
		b.WriteByte(';')
	}
	return b.String()
}

// composeSource renders spec.md section 4.8 step 4's single public class
// with a single public static method returning the common root type
// (java.lang.Object), whose formal parameters are the context variables
// in their declared types and whose body returns the rewritten expression
// cast to Object.
func composeSource(className string, vars []contextVar, rewrittenExpression string) string {
	pkg, simple := splitClassName(className)

	params := make([]string, len(vars))
	for i, v := range vars {
		params[i] = fmt.Sprintf("%s %s", v.DeclaredType, v.Name)
	}

	var b strings.Builder
	if pkg != "" {
		fmt.Fprintf(&b, "package %s;\n\n", pkg)
	}
	fmt.Fprintf(&b, "public class %s {\n", simple)
	fmt.Fprintf(&b, "    public static Object %s(%s) {\n", evaluationMethod, strings.Join(params, ", "))
	fmt.Fprintf(&b, "        return (Object)(%s);\n", rewrittenExpression)
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return b.String()
}

func splitClassName(fqcn string) (pkg, simple string) {
	idx := strings.LastIndex(fqcn, ".")
	if idx < 0 {
		return "", fqcn
	}
	return fqcn[:idx], fqcn[idx+1:]
}
