package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassNameToSignature(t *testing.T) {
	assert.Equal(t, "Ldemo/pkg/C;", classNameToSignature("demo.pkg.C"))
	assert.Equal(t, "LC;", classNameToSignature("C"))
}

func TestDotsToSlashes(t *testing.T) {
	assert.Equal(t, "demo/pkg/C", dotsToSlashes("demo.pkg.C"))
}
