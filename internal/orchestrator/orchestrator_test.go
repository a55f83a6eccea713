package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/inspector"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/proxyclient"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/watcher"
)

func TestFindBreakpointMatchesClassNameAndLine(t *testing.T) {
	all := []proxyclient.Breakpoint{
		{RequestID: 1, ClassName: "demo.C", LineNumber: 10},
		{RequestID: 2, ClassName: "demo.D", LineNumber: 20},
	}

	bp, ok := findBreakpoint(all, "demo.D", 20)
	assert.True(t, ok)
	assert.Equal(t, 2, bp.RequestID)

	_, ok = findBreakpoint(all, "demo.D", 21)
	assert.False(t, ok)
}

func TestRenderWatcherIncludesBreakpointAndExpression(t *testing.T) {
	w := &watcher.Watcher{ID: "w1", Label: "total", BreakpointID: "bp-1", Expression: "this.total"}
	text := renderWatcher(w)
	assert.Contains(t, text, "total")
	assert.Contains(t, text, "bp-1")
	assert.Contains(t, text, "this.total")
}

func TestRenderFieldsResultArray(t *testing.T) {
	r := &inspector.FieldsResult{
		IsArray:        true,
		ArrayElements:  []string{"1", "2"},
		ArrayRemainder: 3,
	}
	text := renderFieldsResult(r)
	assert.Contains(t, text, "[0] = 1")
	assert.Contains(t, text, "[1] = 2")
	assert.Contains(t, text, "... (3 more)")
}

func TestRenderFieldsResultCollection(t *testing.T) {
	r := &inspector.FieldsResult{
		IsCollection:   true,
		CollectionKind: "map",
		Size:           2,
		MapEntries:     []string{`"a" = 1`, `"b" = 2`},
	}
	text := renderFieldsResult(r)
	assert.Contains(t, text, "Kind: map")
	assert.Contains(t, text, "Size: 2")
	assert.Contains(t, text, `"a" = 1`)
}

func TestRenderFieldsResultPlainObject(t *testing.T) {
	r := &inspector.FieldsResult{
		Fields: []inspector.FieldEntry{{Name: "count", Value: "3"}},
	}
	text := renderFieldsResult(r)
	assert.Contains(t, text, "count = 3")
}
