// Package remote implements spec.md section 4.7's Remote Executor: three
// remote invocations performed in sequence on a suspended thread — define,
// prepare/initialize, invoke — using the JDWP single-threaded invocation
// mode so no other target thread runs while bytecode the Source Compiler
// produced is loaded and called.
//
// Grounded on internal/jdwp's typed facade, layered the way
// teranos-QNTX/code/gopls/service.go layers typed operations (Service) over
// its transport client (StdioClient): this package composes facade calls;
// the one raw command it sends itself is VirtualMachine.CreateString in
// newString.
package remote

import (
	"context"
	"strings"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/logging"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

// byteArraySignature is the JNI array-type signature for byte[],
// used to resolve java.lang.ClassLoader.defineClass's second parameter
// type and to mirror compiled bytecode into the target.
const byteArraySignature = "[B"

// Executor defines, prepares, and invokes generated bytecode inside the
// target VM.
type Executor struct {
	client *jdwp.Client
}

func New(client *jdwp.Client) *Executor {
	return &Executor{client: client}
}

// Execute performs all three of spec.md section 4.7's steps in order on
// thread t: define the class from bytes under className, force its
// preparation via Class.forName(name, true, loader), then invoke the first
// static method named methodName with args, in the args' declared order.
// classLoader is the frame's receiver's loader, or the bootstrap loader's
// mirror (see SelectClassLoader) for a static frame.
func (e *Executor) Execute(ctx context.Context, t jdwp.ThreadID, classLoader jdwp.ObjectID, className string, bytes []byte, methodName string, args []jdwp.Value) (jdwp.Value, error) {
	// A class the target already has loaded under this name (a
	// compilation-cache hit reusing a prior evaluation's class) never
	// needs to be defined again: the target keeps every evaluation class
	// alive for the life of the session, so redefining it would throw a
	// duplicate-class LinkageError. Resolve first and only fall through
	// to define+prepare on a miss.
	prepared, err := e.resolveSystemClass(ctx, classSignature(className))
	if err != nil || prepared == 0 {
		if err := e.define(ctx, t, classLoader, className, bytes); err != nil {
			return jdwp.Value{}, err
		}

		// The mirror defineClass returns is not yet prepared for member
		// lookup; Class.forName(name, true, loader) is what drives the
		// target through the states that make it usable (spec.md section
		// 4.7).
		prepared, err = e.prepareAndInitialize(ctx, t, classLoader, className)
		if err != nil {
			return jdwp.Value{}, err
		}
	}

	method, err := e.findStaticMethod(ctx, prepared, methodName)
	if err != nil {
		return jdwp.Value{}, err
	}

	result, excObj, err := e.client.ClassTypeInvokeStatic(ctx, prepared, t, method, args, jdwp.InvokeSingleThreaded)
	if err != nil {
		return jdwp.Value{}, err
	}
	if excObj != 0 {
		excType := e.exceptionTypeName(ctx, excObj)
		return jdwp.Value{}, xerrors.Wrapf(xerrors.InvocationThrew, "%s", excType)
	}
	return result, nil
}

// define mirrors bytes into a target-side byte[] and calls
// ClassLoader.defineClass(name, bytes, 0, length) on classLoader (spec.md
// section 4.7 step 1).
func (e *Executor) define(ctx context.Context, t jdwp.ThreadID, classLoader jdwp.ObjectID, className string, bytes []byte) error {
	byteArrayType, err := e.resolveByteArrayType(ctx)
	if err != nil {
		return xerrors.WrapKind(err, xerrors.DefineFailed)
	}

	remoteArray, err := e.client.ArrayTypeNewInstance(ctx, byteArrayType, int32(len(bytes)))
	if err != nil {
		return xerrors.WrapKind(err, xerrors.DefineFailed)
	}
	if err := e.client.ArraySetValues(ctx, remoteArray, 0, bytes); err != nil {
		return xerrors.WrapKind(err, xerrors.DefineFailed)
	}

	loaderRT, err := e.classLoaderReferenceType(ctx, classLoader)
	if err != nil {
		return xerrors.WrapKind(err, xerrors.DefineFailed)
	}
	defineMethod, err := e.findInstanceMethod(ctx, loaderRT, "defineClass", "(Ljava/lang/String;[BII)Ljava/lang/Class;")
	if err != nil {
		return xerrors.Mark(xerrors.Wrap(err, "protected defineClass not reachable"), xerrors.DefineFailed)
	}

	nameArg, err := e.newString(ctx, className)
	if err != nil {
		return xerrors.WrapKind(err, xerrors.DefineFailed)
	}

	args := []jdwp.Value{
		{Tag: jdwp.TagString, Obj: nameArg},
		{Tag: jdwp.TagArray, Obj: remoteArray},
		{Tag: jdwp.TagInt, I: 0},
		{Tag: jdwp.TagInt, I: int32(len(bytes))},
	}
	result, excObj, err := e.client.ObjectInvokeInstance(ctx, classLoader, t, loaderRT, defineMethod, args, jdwp.InvokeSingleThreaded)
	if err != nil {
		return xerrors.WrapKind(err, xerrors.DefineFailed)
	}
	if excObj != 0 {
		excType := e.exceptionTypeName(ctx, excObj)
		return xerrors.Wrapf(xerrors.DefineFailed, "defineClass threw %s", excType)
	}
	if result.Obj == 0 {
		return xerrors.DefineFailed
	}
	return nil
}

// prepareAndInitialize calls Class.forName(name, true, classLoader) on the
// target's java.lang.Class type. This is REQUIRED: a mirror produced by
// defineClass alone is not yet prepared, and direct member lookup on it
// fails (spec.md section 4.7 step 2).
func (e *Executor) prepareAndInitialize(ctx context.Context, t jdwp.ThreadID, classLoader jdwp.ObjectID, className string) (jdwp.ReferenceTypeID, error) {
	classType, err := e.resolveSystemClass(ctx, "Ljava/lang/Class;")
	if err != nil {
		return 0, xerrors.WrapKind(err, xerrors.InitializerThrew)
	}
	forName, err := e.findStaticMethodOn(ctx, classType, "forName", "(Ljava/lang/String;ZLjava/lang/ClassLoader;)Ljava/lang/Class;")
	if err != nil {
		return 0, xerrors.WrapKind(err, xerrors.InitializerThrew)
	}

	nameArg, err := e.newString(ctx, className)
	if err != nil {
		return 0, xerrors.WrapKind(err, xerrors.InitializerThrew)
	}

	args := []jdwp.Value{
		{Tag: jdwp.TagString, Obj: nameArg},
		{Tag: jdwp.TagBoolean, Z: true},
		{Tag: jdwp.TagClassLoader, Obj: classLoader},
	}
	result, excObj, err := e.client.ClassTypeInvokeStatic(ctx, classType, t, forName, args, jdwp.InvokeSingleThreaded)
	if err != nil {
		return 0, err
	}
	if excObj != 0 {
		excType := e.exceptionTypeName(ctx, excObj)
		return 0, xerrors.Wrapf(xerrors.InitializerThrew, "%s", excType)
	}
	if result.Obj == 0 {
		return 0, xerrors.InitializerThrew
	}
	return e.client.ClassObjectReferenceReflectedType(ctx, result.Obj)
}

// findStaticMethod locates the first static method named name on rt,
// MethodNotFound if none exists (arity/return type are not distinguished:
// spec.md section 4.8 step 4 composes exactly one public static method per
// generated class).
func (e *Executor) findStaticMethod(ctx context.Context, rt jdwp.ReferenceTypeID, name string) (jdwp.MethodID, error) {
	methods, err := e.client.ReferenceTypeMethods(ctx, rt)
	if err != nil {
		return 0, err
	}
	for _, m := range methods {
		if m.Name == name {
			return m.ID, nil
		}
	}
	return 0, xerrors.MethodNotFound
}

func (e *Executor) findStaticMethodOn(ctx context.Context, rt jdwp.ReferenceTypeID, name, signature string) (jdwp.MethodID, error) {
	methods, err := e.client.ReferenceTypeMethods(ctx, rt)
	if err != nil {
		return 0, err
	}
	for _, m := range methods {
		if m.Name == name && m.Signature == signature {
			return m.ID, nil
		}
	}
	return 0, xerrors.Newf("static method %s%s not found", name, signature)
}

func (e *Executor) findInstanceMethod(ctx context.Context, rt jdwp.ReferenceTypeID, name, signature string) (jdwp.MethodID, error) {
	current := rt
	visited := map[jdwp.ReferenceTypeID]bool{}
	for current != 0 && !visited[current] {
		visited[current] = true
		methods, err := e.client.ReferenceTypeMethods(ctx, current)
		if err == nil {
			for _, m := range methods {
				if m.Name == name && m.Signature == signature {
					return m.ID, nil
				}
			}
		}
		super, err := e.client.ClassTypeSuperclass(ctx, current)
		if err != nil || super == 0 {
			break
		}
		current = super
	}
	return 0, xerrors.Newf("instance method %s%s not found", name, signature)
}

func (e *Executor) classLoaderReferenceType(ctx context.Context, loader jdwp.ObjectID) (jdwp.ReferenceTypeID, error) {
	_, rt, err := e.client.ObjectReferenceType(ctx, loader)
	return rt, err
}

func (e *Executor) resolveByteArrayType(ctx context.Context) (jdwp.ReferenceTypeID, error) {
	return e.resolveSystemClass(ctx, byteArraySignature)
}

// classSignature renders a dotted class name as its JNI type signature.
func classSignature(className string) string {
	return "L" + strings.ReplaceAll(className, ".", "/") + ";"
}

func (e *Executor) resolveSystemClass(ctx context.Context, signature string) (jdwp.ReferenceTypeID, error) {
	classes, err := e.client.ClassesBySignature(ctx, signature)
	if err != nil {
		return 0, err
	}
	if len(classes) == 0 {
		return 0, xerrors.Newf("class %s not loaded in target", signature)
	}
	return classes[0], nil
}

func (e *Executor) newString(ctx context.Context, s string) (jdwp.ObjectID, error) {
	w := jdwp.NewWriter(e.client.Sizes())
	w.WriteString(s)
	reply, err := e.client.Command(ctx, 1 /* VirtualMachine */, 11 /* CreateString */, w.Bytes())
	if err != nil {
		return 0, err
	}
	return jdwp.NewReader(e.client.Sizes(), reply).ReadObjectID()
}

func (e *Executor) exceptionTypeName(ctx context.Context, excObj jdwp.ObjectID) string {
	_, rt, err := e.client.ObjectReferenceType(ctx, excObj)
	if err != nil {
		return "unknown exception"
	}
	sig, err := e.client.ReferenceTypeSignature(ctx, rt)
	if err != nil {
		return "unknown exception"
	}
	return sig
}

// SelectClassLoader implements spec.md section 4.7's class-loader
// selection rule: the loader of the receiver at the evaluated frame, or
// the platform (bootstrap) loader's mirror — represented here by the
// object id 0, the JDWP convention for the bootstrap loader — when the
// frame is static.
func SelectClassLoader(thisObj jdwp.ObjectID, receiverLoader jdwp.ObjectID) jdwp.ObjectID {
	if thisObj == 0 {
		logging.Logger.Debugw("evaluation frame is static, using bootstrap class loader")
		return 0
	}
	return receiverLoader
}
