package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPackage(t *testing.T) {
	pkg, simple := splitPackage("jdbridge.eval.Eval_abc123")
	assert.Equal(t, "jdbridge.eval", pkg)
	assert.Equal(t, "Eval_abc123", simple)

	pkg, simple = splitPackage("Top")
	assert.Equal(t, "", pkg)
	assert.Equal(t, "Top", simple)
}

func TestParseDiagnostics(t *testing.T) {
	stderr := "/tmp/jdbridge-compile-123/jdbridge/eval/Eval_abc.java:4: error: cannot find symbol\n" +
		"    return (Object)(fooo);\n" +
		"                     ^\n" +
		"1 error\n"

	diags := parseDiagnostics(stderr)
	require.Len(t, diags, 1)
	assert.Equal(t, 4, diags[0].Line)
	assert.Contains(t, diags[0].Message, "cannot find symbol")
}

func TestPlatformArgsModernLayout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, touchFile(dir, "lib/modules"))

	args := platformArgs(dir)
	assert.Equal(t, []string{"--system", dir}, args)
}

func TestPlatformArgsLegacyLayout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, touchFile(dir, "jre/lib/rt.jar"))

	args := platformArgs(dir)
	require.Len(t, args, 2)
	assert.Equal(t, "-bootclasspath", args[0])
	assert.Contains(t, args[1], "rt.jar")
}

func touchFile(root, rel string) error {
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte{}, 0o644)
}
