package classpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitClasspathPOSIX(t *testing.T) {
	entries := splitClasspath("/app/classes:/app/lib/a.jar:/app/lib/b.jar")
	assert.Equal(t, []string{"/app/classes", "/app/lib/a.jar", "/app/lib/b.jar"}, entries)
}

func TestSplitClasspathWindows(t *testing.T) {
	entries := splitClasspath(`C:\app\classes;C:\app\lib\a.jar`)
	assert.Equal(t, []string{`C:\app\classes`, `C:\app\lib\a.jar`}, entries)
}

func TestURLLoaderClassNamesRecognizesJDKAndContainerLoaders(t *testing.T) {
	assert.True(t, urlLoaderClassNames["java.net.URLClassLoader"])
	assert.True(t, urlLoaderClassNames["org.apache.catalina.loader.ParallelWebappClassLoader"])
	assert.False(t, urlLoaderClassNames["java.lang.ClassLoader"])
}
