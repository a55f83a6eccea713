package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
)

func TestSelectClassLoaderStaticFrameUsesBootstrap(t *testing.T) {
	assert.Equal(t, jdwp.ObjectID(0), SelectClassLoader(0, jdwp.ObjectID(99)))
}

func TestSelectClassLoaderInstanceFrameUsesReceiverLoader(t *testing.T) {
	assert.Equal(t, jdwp.ObjectID(99), SelectClassLoader(jdwp.ObjectID(42), jdwp.ObjectID(99)))
}
