package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

func TestIsAttachedFalseBeforeAttach(t *testing.T) {
	s := New()
	assert.False(t, s.IsAttached())
}

func TestClientErrorsWhenNotAttached(t *testing.T) {
	s := New()
	_, err := s.Client(context.Background())
	assert.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.NotAttached))
}

func TestClasspathConfiguredFalseUntilMarked(t *testing.T) {
	s := New()
	assert.False(t, s.ClasspathConfigured())

	s.MarkClasspathConfigured([]string{"/a.jar", "/b.jar"}, "/usr/lib/jvm/java-17", "/a.jar:/b.jar")

	assert.True(t, s.ClasspathConfigured())
	assert.Equal(t, []string{"/a.jar", "/b.jar"}, s.Classpath())

	home, cp, ok := s.CompilerConfig()
	assert.True(t, ok)
	assert.Equal(t, "/usr/lib/jvm/java-17", home)
	assert.Equal(t, "/a.jar:/b.jar", cp)
}

func TestClasspathReturnsACopy(t *testing.T) {
	s := New()
	s.MarkClasspathConfigured([]string{"/a.jar"}, "/home", "/a.jar")

	got := s.Classpath()
	got[0] = "/tampered.jar"

	again := s.Classpath()
	assert.Equal(t, "/a.jar", again[0])
}

func TestDetachResetsClasspathConfiguration(t *testing.T) {
	s := New()
	s.MarkClasspathConfigured([]string{"/a.jar"}, "/home", "/a.jar")
	assert.True(t, s.ClasspathConfigured())

	s.Detach()
	assert.False(t, s.ClasspathConfigured())
	assert.False(t, s.IsAttached())
}
