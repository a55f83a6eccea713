// Package platform implements spec.md section 4.5's Platform Discoverer:
// it locates a local Java installation whose major version matches the
// target's, so the Source Compiler can resolve platform classes the way
// the javac invocation expects (--system for a modular JDK image, or the
// legacy -bootclasspath runtime jar for pre-9 installs).
//
// Grounded on teranos-QNTX/am/load.go's findProjectConfig and
// mergeConfigFiles: both build an ordered list of candidate paths and
// probe each with os.Stat, preferring the first hit. The discoverer here
// does the same three-tier probe spec.md names instead of a config-file
// search.
package platform

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/inspector"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/session"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

// Result is a located platform installation.
type Result struct {
	Home         string
	MajorVersion int
}

// Discoverer locates a local JDK/JRE matching the target's major version.
type Discoverer struct {
	sess *session.Session
}

func New(sess *session.Session) *Discoverer {
	return &Discoverer{sess: sess}
}

// Discover implements spec.md section 4.5's search order: target's
// java.home, then well-known installation roots, then a scan of common
// parent directories for a sub-directory carrying the major version.
func (d *Discoverer) Discover(ctx context.Context, threadID jdwp.ThreadID) (*Result, error) {
	client, err := d.sess.Client(ctx)
	if err != nil {
		return nil, err
	}

	suspended, err := inspector.IsSuspended(ctx, client, threadID)
	if err != nil {
		return nil, err
	}
	if !suspended {
		return nil, xerrors.NotSuspended
	}

	version, err := client.SystemProperty(ctx, threadID, "java.version")
	if err != nil {
		return nil, err
	}
	major := majorVersion(version)

	var probed []string

	if home, err := client.SystemProperty(ctx, threadID, "java.home"); err == nil && home != "" {
		probed = append(probed, home)
		if validHome(home) && homeMajorMatches(home, major) {
			return &Result{Home: home, MajorVersion: major}, nil
		}
	}

	for _, root := range wellKnownRoots(major) {
		probed = append(probed, root)
		if validHome(root) {
			return &Result{Home: root, MajorVersion: major}, nil
		}
	}

	for _, parent := range scanParents() {
		entries, err := os.ReadDir(parent)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || !strings.Contains(e.Name(), strconv.Itoa(major)) {
				continue
			}
			candidate := filepath.Join(parent, e.Name())
			probed = append(probed, candidate)
			if inner := filepath.Join(candidate, "Contents", "Home"); validHome(inner) {
				return &Result{Home: inner, MajorVersion: major}, nil
			}
			if validHome(candidate) {
				return &Result{Home: candidate, MajorVersion: major}, nil
			}
		}
	}

	return nil, xerrors.Wrap3Env(
		xerrors.PlatformNotFound,
		"install a JDK matching major version "+strconv.Itoa(major)+"; probed: "+strings.Join(probed, ", "),
		xerrors.Newf("no platform runtime found for major version %d", major),
	)
}

// majorVersion parses a java.version string. Modern versions are plain
// ("17.0.9", "21"); legacy versions carry a leading "1." ("1.8.0_392").
func majorVersion(v string) int {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "1.") {
		rest := v[2:]
		if i := strings.IndexAny(rest, ".-_+"); i >= 0 {
			rest = rest[:i]
		}
		if n, err := strconv.Atoi(rest); err == nil {
			return n
		}
		return 0
	}
	if i := strings.IndexAny(v, ".-+"); i >= 0 {
		v = v[:i]
	}
	n, _ := strconv.Atoi(v)
	return n
}

// validHome implements spec.md's validity predicate: presence of the
// modern modules directory, the modern runtime filesystem jar, or the
// legacy runtime jar (possibly nested under an inner runtime subdir).
func validHome(home string) bool {
	if home == "" {
		return false
	}
	candidates := []string{
		filepath.Join(home, "lib", "modules"),
		filepath.Join(home, "lib", "jrt-fs.jar"),
		filepath.Join(home, "jre", "lib", "rt.jar"),
		filepath.Join(home, "lib", "rt.jar"),
	}
	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && !st.IsDir() {
			return true
		}
	}
	if st, err := os.Stat(filepath.Join(home, "lib", "modules")); err == nil && st.IsDir() {
		return true
	}
	return false
}

// homeMajorMatches re-derives the release string a valid home carries
// under release (JDK 9+) to confirm it matches major before trusting
// java.home blindly; legacy homes (no release file) are trusted as-is
// since java.home always names the running installation itself.
func homeMajorMatches(home string, major int) bool {
	data, err := os.ReadFile(filepath.Join(home, "release"))
	if err != nil {
		return true
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "JAVA_VERSION=") {
			v := strings.Trim(strings.TrimPrefix(line, "JAVA_VERSION="), "\"")
			return majorVersion(v) == major
		}
	}
	return true
}

// wellKnownRoots enumerates host-OS-specific installation roots,
// parameterised by major version the way spec.md section 4.5 requires.
func wellKnownRoots(major int) []string {
	v := strconv.Itoa(major)
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\Program Files\Java\jdk-` + v,
			`C:\Program Files\Eclipse Adoptium\jdk-` + v,
			`C:\Program Files\AdoptOpenJDK\jdk-` + v,
		}
	case "darwin":
		return []string{
			"/Library/Java/JavaVirtualMachines/jdk-" + v + ".jdk/Contents/Home",
			"/Library/Java/JavaVirtualMachines/temurin-" + v + ".jdk/Contents/Home",
			"/opt/homebrew/opt/openjdk@" + v,
			"/usr/local/opt/openjdk@" + v,
		}
	default:
		return []string{
			"/usr/lib/jvm/java-" + v + "-openjdk",
			"/usr/lib/jvm/java-" + v + "-openjdk-amd64",
			"/usr/lib/jvm/temurin-" + v + "-jdk",
			"/opt/java/openjdk",
		}
	}
}

// scanParents lists common parent directories to scan for a
// version-named sub-directory (spec.md's third search tier).
func scanParents() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		return []string{`C:\Program Files\Java`, `C:\Program Files\Eclipse Adoptium`}
	case "darwin":
		return []string{"/Library/Java/JavaVirtualMachines", filepath.Join(home, ".sdkman", "candidates", "java")}
	default:
		return []string{"/usr/lib/jvm", filepath.Join(home, ".sdkman", "candidates", "java")}
	}
}
