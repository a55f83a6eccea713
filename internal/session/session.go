// Package session owns the single JDWP/JDI session this engine drives: the
// attached client, its last-known endpoint for reconnect, the object cache,
// and the one-time classpath/compiler configuration state that the
// evaluation precondition in spec.md section 4.8 depends on.
//
// Modeled as an owned value passed by reference to components (spec.md
// section 9, "re-architecting source patterns: global singleton session"),
// with interior mutability confined to the protocol handle and caches —
// the same layering teranos-QNTX/qntx-code/langserver/gopls/service.go
// uses around its StdioClient.
package session

import (
	"context"
	"sync"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/logging"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/objcache"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

// Session is the single owned JDWP session. Construct it with New, which
// creates its object cache; Attach must be called before any operation
// other than Attach/Detach.
type Session struct {
	mu sync.Mutex

	host string
	port int

	client *jdwp.Client
	cache  *objcache.Cache

	// classpathConfigured records whether configure-compiler-classpath has
	// run at least once this session, enforcing the ordering contract
	// spec.md section 4.8 and section 5 require before any evaluate call.
	classpathConfigured bool
	classpath            []string
	platformHome         string
	compilerClasspath    string
}

func New() *Session {
	return &Session{cache: objcache.New()}
}

// Attach connects to host:port and remembers it as the last endpoint for
// reconnect attempts.
func (s *Session) Attach(ctx context.Context, host string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client := jdwp.NewClient(host, port)
	if err := client.Attach(ctx); err != nil {
		return err
	}

	s.host = host
	s.port = port
	s.client = client
	s.classpathConfigured = false
	s.classpath = nil
	s.cache.Clear()
	return nil
}

// Client returns a live client handle, reattaching to the last endpoint if
// the current one has died (spec.md section 4.1's get-handle operation).
func (s *Session) Client(ctx context.Context) (*jdwp.Client, error) {
	s.mu.Lock()
	client := s.client
	host, port := s.host, s.port
	s.mu.Unlock()

	if client == nil {
		return nil, xerrors.Wrap3Env(xerrors.NotAttached, "call attach before any other operation", nil)
	}
	if client.IsAlive(ctx) {
		return client, nil
	}

	logging.Logger.Warnw("jdwp session dead, reattaching", logging.FieldHost, host, logging.FieldPort, port)
	fresh, err := client.GetHandle(ctx)
	if err != nil {
		return nil, xerrors.WrapKind(err, xerrors.NotAttached)
	}

	// This is a reattach to the same endpoint, not a new session: object
	// identifiers stay meaningful, so the cache is left alone and Resolve
	// revalidates each entry lazily on next use rather than evicting
	// everything up front.
	s.mu.Lock()
	s.client = fresh
	s.mu.Unlock()
	return fresh, nil
}

// IsAttached reports whether Attach has succeeded at least once.
func (s *Session) IsAttached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// Detach performs local-only cleanup: the socket is closed but
// VirtualMachine.Dispose is never sent, since the upstream multiplexing
// proxy treats Dispose as a kill for every peer sharing its connection
// (spec.md section 4.1, section 5 "Detach semantics").
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Detach()
	}
	s.client = nil
	s.classpathConfigured = false
	s.classpath = nil
}

// Cache returns the session's object cache.
func (s *Session) Cache() *objcache.Cache { return s.cache }

// MarkClasspathConfigured records the result of configure-compiler-classpath
// so Evaluate can enforce its ordering precondition.
func (s *Session) MarkClasspathConfigured(classpath []string, platformHome, compilerClasspath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classpathConfigured = true
	s.classpath = classpath
	s.platformHome = platformHome
	s.compilerClasspath = compilerClasspath
}

// ClasspathConfigured reports whether configure-compiler-classpath has run.
func (s *Session) ClasspathConfigured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classpathConfigured
}

// CompilerConfig returns the memoized platform home and classpath string
// set by the last successful configure-compiler-classpath call.
func (s *Session) CompilerConfig() (platformHome, classpath string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.platformHome, s.compilerClasspath, s.classpathConfigured
}

// Classpath returns the memoized ordered classpath entries.
func (s *Session) Classpath() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.classpath))
	copy(out, s.classpath)
	return out
}
