// Package classpath implements spec.md section 4.4's Classpath Discoverer:
// it reads the target's "java.class.path" system property, then walks the
// context class loader's parent chain, collecting URL entries from every
// URL-based or container web-app loader it passes through. It runs only
// on a thread already known to be suspended at a breakpoint — classpath
// discovery performs remote invocations itself, and spec.md section 5
// forbids nesting remote invocations within another in-flight one on the
// same thread.
//
// Grounded on internal/jdwp's typed facade for the remote method calls,
// the way teranos-QNTX/am/load.go walks upward through candidate
// directories probing for a marker — here the probe is "is this loader a
// URL-based loader" rather than "does this directory contain a config
// file".
package classpath

import (
	"context"
	"net/url"
	"strings"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/inspector"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/session"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

// urlLoaderClassNames are the raw (unfiltered by the declared-type rule)
// class names this engine recognizes as exposing a URL[] getURLs()
// method: the JDK's own URLClassLoader, plus the common container
// web-app loader names that also expose it.
var urlLoaderClassNames = map[string]bool{
	"java.net.URLClassLoader":                          true,
	"org.apache.catalina.loader.WebappClassLoader":      true,
	"org.apache.catalina.loader.ParallelWebappClassLoader": true,
}

// Result is the discovered classpath.
type Result struct {
	Entries []string
}

// Discoverer walks the remote class-loader hierarchy to build a classpath
// string the Source Compiler can resolve application classes against.
type Discoverer struct {
	sess *session.Session
}

func New(sess *session.Session) *Discoverer {
	return &Discoverer{sess: sess}
}

// Discover implements spec.md section 4.4's algorithm. threadID must be
// suspended at a breakpoint.
func (d *Discoverer) Discover(ctx context.Context, threadID jdwp.ThreadID) (*Result, error) {
	client, err := d.sess.Client(ctx)
	if err != nil {
		return nil, err
	}

	suspended, err := inspector.IsSuspended(ctx, client, threadID)
	if err != nil {
		return nil, err
	}
	if !suspended {
		return nil, xerrors.NotSuspended
	}

	seen := map[string]bool{}
	var ordered []string
	insert := func(entry string) {
		if entry == "" || seen[entry] {
			return
		}
		seen[entry] = true
		ordered = append(ordered, entry)
	}

	rawPath, err := client.SystemProperty(ctx, threadID, "java.class.path")
	if err != nil {
		return nil, xerrors.WrapKind(err, xerrors.ClasspathEmpty)
	}
	for _, entry := range splitClasspath(rawPath) {
		insert(entry)
	}

	loader, err := contextClassLoader(ctx, client, threadID)
	if err != nil || loader == 0 {
		if len(ordered) == 0 {
			return nil, xerrors.Wrap3Env(xerrors.NoContextLoader, "verify the target exposes java.class.path and a reachable context class loader", err)
		}
		return &Result{Entries: ordered}, nil
	}

	visited := map[jdwp.ObjectID]bool{}
	for loader != 0 && !visited[loader] {
		visited[loader] = true

		_, rt, err := client.ObjectReferenceType(ctx, loader)
		if err != nil {
			break
		}
		if isURLBasedLoader(ctx, client, rt) {
			for _, entry := range urlsFromLoader(ctx, client, threadID, loader, rt) {
				insert(entry)
			}
		}

		next, err := invokeNoArgInstanceMethod(ctx, client, threadID, loader, rt, "getParent", "()Ljava/lang/ClassLoader;")
		if err != nil || next.Obj == 0 {
			break
		}
		loader = next.Obj
	}

	if len(ordered) == 0 {
		return nil, xerrors.ClasspathEmpty
	}
	return &Result{Entries: ordered}, nil
}

// splitClasspath splits a java.class.path value on the target's path
// separator, detected from content rather than runtime.GOOS since the
// string describes the target, which may not share the engine's OS.
func splitClasspath(raw string) []string {
	sep := ":"
	if strings.Contains(raw, ";") {
		sep = ";"
	}
	return strings.Split(raw, sep)
}

// isURLBasedLoader walks rt's raw (unfiltered) superclass chain looking
// for a name in urlLoaderClassNames.
func isURLBasedLoader(ctx context.Context, client *jdwp.Client, rt jdwp.ReferenceTypeID) bool {
	current := rt
	visited := map[jdwp.ReferenceTypeID]bool{}
	for current != 0 && !visited[current] {
		visited[current] = true
		sig, err := client.ReferenceTypeSignature(ctx, current)
		if err == nil {
			name := strings.ReplaceAll(strings.TrimSuffix(strings.TrimPrefix(sig, "L"), ";"), "/", ".")
			if urlLoaderClassNames[name] {
				return true
			}
		}
		super, err := client.ClassTypeSuperclass(ctx, current)
		if err != nil || super == 0 {
			break
		}
		current = super
	}
	return false
}

func urlsFromLoader(ctx context.Context, client *jdwp.Client, threadID jdwp.ThreadID, loader jdwp.ObjectID, rt jdwp.ReferenceTypeID) []string {
	result, err := invokeNoArgInstanceMethod(ctx, client, threadID, loader, rt, "getURLs", "()[Ljava/net/URL;")
	if err != nil || result.Obj == 0 {
		return nil
	}
	length, err := client.ArrayLength(ctx, result.Obj)
	if err != nil {
		return nil
	}
	values, err := client.ArrayGetValues(ctx, result.Obj, 0, length)
	if err != nil {
		return nil
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if v.Obj == 0 {
			continue
		}
		_, urlRT, err := client.ObjectReferenceType(ctx, v.Obj)
		if err != nil {
			continue
		}
		fileVal, err := invokeNoArgInstanceMethod(ctx, client, threadID, v.Obj, urlRT, "getFile", "()Ljava/lang/String;")
		if err != nil || fileVal.Obj == 0 {
			continue
		}
		raw, err := client.StringValue(ctx, fileVal.Obj)
		if err != nil {
			continue
		}
		if decoded, err := url.QueryUnescape(raw); err == nil {
			out = append(out, decoded)
		} else {
			out = append(out, raw)
		}
	}
	return out
}

// contextClassLoader invokes Thread.getContextClassLoader() on threadID
// itself (a JDWP thread id doubles as an object id for ObjectReference
// commands).
func contextClassLoader(ctx context.Context, client *jdwp.Client, threadID jdwp.ThreadID) (jdwp.ObjectID, error) {
	threadObj := jdwp.ObjectID(threadID)
	_, rt, err := client.ObjectReferenceType(ctx, threadObj)
	if err != nil {
		return 0, err
	}
	val, err := invokeNoArgInstanceMethod(ctx, client, threadID, threadObj, rt, "getContextClassLoader", "()Ljava/lang/ClassLoader;")
	if err != nil {
		return 0, err
	}
	return val.Obj, nil
}

// invokeNoArgInstanceMethod resolves a no-argument instance method by
// name+signature on rt (walking its superclass chain) and invokes it on
// obj using threadID as the single-threaded invoking thread.
func invokeNoArgInstanceMethod(ctx context.Context, client *jdwp.Client, threadID jdwp.ThreadID, obj jdwp.ObjectID, rt jdwp.ReferenceTypeID, name, signature string) (jdwp.Value, error) {
	current := rt
	visited := map[jdwp.ReferenceTypeID]bool{}
	for current != 0 && !visited[current] {
		visited[current] = true
		methods, err := client.ReferenceTypeMethods(ctx, current)
		if err == nil {
			for _, m := range methods {
				if m.Name == name && m.Signature == signature {
					result, excObj, err := client.ObjectInvokeInstance(ctx, obj, threadID, current, m.ID, nil, jdwp.InvokeSingleThreaded)
					if err != nil {
						return jdwp.Value{}, err
					}
					if excObj != 0 {
						return jdwp.Value{}, xerrors.Wrap(xerrors.InvocationThrew, name+" threw")
					}
					return result, nil
				}
			}
		}
		super, err := client.ClassTypeSuperclass(ctx, current)
		if err != nil || super == 0 {
			break
		}
		current = super
	}
	return jdwp.Value{}, xerrors.Newf("method %s%s not found", name, signature)
}
