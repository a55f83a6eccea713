package objcache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

func TestGetUnknownIDIsObjectNotCached(t *testing.T) {
	c := New()
	_, err := c.Get(jdwp.ObjectID(1))
	assert.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ObjectNotCached))
}

func TestPutThenGetReturnsSameHandle(t *testing.T) {
	c := New()
	h := &Handle{ID: 42, TypeTag: 1, Signature: "Ljava/lang/String;"}
	c.Put(h)

	got, err := c.Get(42)
	assert.NoError(t, err)
	assert.Same(t, h, got)
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	c := New()
	c.Put(&Handle{ID: 1, Signature: "Lold/Type;"})
	c.Put(&Handle{ID: 1, Signature: "Lnew/Type;"})

	got, err := c.Get(1)
	assert.NoError(t, err)
	assert.Equal(t, "Lnew/Type;", got.Signature)
}

func TestClearRemovesEveryEntry(t *testing.T) {
	c := New()
	c.Put(&Handle{ID: 1})
	c.Put(&Handle{ID: 2})
	c.Clear()

	_, err := c.Get(1)
	assert.Error(t, err)
	_, err = c.Get(2)
	assert.Error(t, err)
}
