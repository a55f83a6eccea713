package xerrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindReturnedDirectlyIsItself(t *testing.T) {
	var err error = NotAttached
	assert.True(t, Is(err, NotAttached))
	assert.False(t, Is(err, TransportFailed))
}

func TestWrapKindPreservesIdentity(t *testing.T) {
	cause := New("connection reset")
	err := WrapKind(cause, TransportFailed)

	assert.True(t, Is(err, TransportFailed))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Contains(t, err.Error(), TransportFailed.Error())
}

func TestWrapfWithKindAsCausePreservesIdentity(t *testing.T) {
	err := Wrapf(InvocationThrew, "%s", "java.lang.NullPointerException")
	assert.True(t, Is(err, InvocationThrew))
}

func TestWrap3EnvWithNilCausePreservesIdentity(t *testing.T) {
	err := Wrap3Env(NotAttached, "call attach before any other operation", nil)
	assert.True(t, Is(err, NotAttached))

	hints := GetAllHints(err)
	assert.Contains(t, hints, "call attach before any other operation")
}

func TestWrap3EnvWithCausePreservesBothIdentityAndCause(t *testing.T) {
	cause := New("getContextClassLoader returned null")
	err := Wrap3Env(NoContextLoader, "verify the context class loader", cause)

	assert.True(t, Is(err, NoContextLoader))
	assert.Contains(t, err.Error(), "getContextClassLoader returned null")
}
