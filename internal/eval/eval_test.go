package eval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
)

func TestThisTokenRewriteUsesWordBoundaries(t *testing.T) {
	assert.Equal(t, "_this.count", thisToken.ReplaceAllString("this.count", "_this"))
	assert.Equal(t, "_this.count + thisCount", thisToken.ReplaceAllString("this.count + thisCount", "_this"))
	assert.Equal(t, "otherThis.count", thisToken.ReplaceAllString("otherThis.count", "_this"))
}

func TestContextSignatureOrdersByVars(t *testing.T) {
	sig := contextSignature([]contextVar{
		{Name: "_this", DeclaredType: "demo.pkg.Widget"},
		{Name: "count", DeclaredType: "int"},
	})
	assert.Equal(t, "demo.pkg.Widget _this;int count;", sig)
}

func TestContextSignatureDistinguishesDeclaredTypes(t *testing.T) {
	a := contextSignature([]contextVar{{Name: "x", DeclaredType: "int"}})
	b := contextSignature([]contextVar{{Name: "x", DeclaredType: "long"}})
	assert.NotEqual(t, a, b)
}

func TestSplitClassName(t *testing.T) {
	pkg, simple := splitClassName("jdbridge.eval.Eval1234")
	assert.Equal(t, "jdbridge.eval", pkg)
	assert.Equal(t, "Eval1234", simple)

	pkg, simple = splitClassName("NoPackage")
	assert.Equal(t, "", pkg)
	assert.Equal(t, "NoPackage", simple)
}

func TestComposeSourceEmbedsRewrittenExpressionAndParams(t *testing.T) {
	vars := []contextVar{
		{Name: "_this", DeclaredType: "demo.pkg.Widget", Value: jdwp.Value{Tag: jdwp.TagObject}},
		{Name: "count", DeclaredType: "int", Value: jdwp.Value{Tag: jdwp.TagInt}},
	}
	src := composeSource("jdbridge.eval.Eval1234", vars, "_this.count + count")

	assert.True(t, strings.Contains(src, "package jdbridge.eval;"))
	assert.True(t, strings.Contains(src, "public class Eval1234 {"))
	assert.True(t, strings.Contains(src, "public static Object evaluate(demo.pkg.Widget _this, int count) {"))
	assert.True(t, strings.Contains(src, "return (Object)(_this.count + count);"))
}
