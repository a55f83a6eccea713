// Package compiler implements spec.md section 4.6's Source Compiler: it
// shells out to the platform's javac binary against a scratch source
// tree, grounded on the exec.Command-plus-pipes idiom
// teranos-QNTX/qntx-code/langserver/gopls/client.go uses to drive the
// gopls subprocess (NewStdioClient), adapted from a long-lived stdio
// subprocess into a one-shot compile-and-collect invocation per call.
package compiler

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

// Diagnostic is one compiler error line (spec.md's CompilationFailed
// diagnostic list).
type Diagnostic struct {
	SourceFile string
	Line       int
	Message    string
}

// Unit is a single compilation unit: a fully-qualified class name and
// its source text.
type Unit struct {
	ClassName string
	Source    string
}

// Compiler compiles generated units against a fixed platform home and
// classpath string, configured exactly once per session (spec.md section
// 4.6).
type Compiler struct {
	platformHome string
	classpath    string
	javacPath    string
}

// New configures the compiler. platformHome is the local JDK root a
// Platform Discoverer located; classpath is the string produced by the
// Classpath Discoverer.
func New(platformHome, classpath string) *Compiler {
	return &Compiler{
		platformHome: platformHome,
		classpath:    classpath,
		javacPath:    javacBinary(platformHome),
	}
}

// platformArgs resolves platform classes against platformHome the
// modern way (--system, a JDK image root) when its layout supports it,
// falling back to the legacy -bootclasspath rt.jar for pre-9 installs.
func platformArgs(platformHome string) []string {
	if platformHome == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Join(platformHome, "lib", "modules")); err == nil {
		return []string{"--system", platformHome}
	}
	legacyRT := filepath.Join(platformHome, "jre", "lib", "rt.jar")
	if _, err := os.Stat(legacyRT); err != nil {
		legacyRT = filepath.Join(platformHome, "lib", "rt.jar")
	}
	return []string{"-bootclasspath", legacyRT}
}

func javacBinary(platformHome string) string {
	name := "javac"
	candidate := filepath.Join(platformHome, "bin", name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return name // fall back to PATH resolution
}

var diagnosticLine = regexp.MustCompile(`^(.+\.java):(\d+):\s*(?:error|warning):\s*(.*)$`)

// Compile compiles a single unit to legacy bytecode level (8/8) with
// local-variable debug info retained, returning a class-name → bytes map
// (inner/anonymous classes the unit's top-level class generates are
// included). Scratch files are removed on every exit path.
func (c *Compiler) Compile(ctx context.Context, unit Unit) (map[string][]byte, error) {
	scratch, err := os.MkdirTemp("", "jdbridge-compile-")
	if err != nil {
		return nil, xerrors.Wrap(err, "create scratch directory")
	}
	defer os.RemoveAll(scratch)

	sourcePath, err := writeSourceFile(scratch, unit.ClassName, unit.Source)
	if err != nil {
		return nil, xerrors.Wrap(err, "write scratch source file")
	}

	outDir := filepath.Join(scratch, "out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, xerrors.Wrap(err, "create scratch output directory")
	}

	args := []string{
		"-source", "8", "-target", "8",
		"-g", // retain local-variable debug info
		"-d", outDir,
		"-nowarn",
	}
	if c.classpath != "" {
		args = append(args, "-classpath", c.classpath)
	}
	args = append(args, platformArgs(c.platformHome)...)
	args = append(args, sourcePath)

	cmd := exec.CommandContext(ctx, c.javacPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diags := parseDiagnostics(stderr.String())
		if len(diags) == 0 {
			diags = []Diagnostic{{SourceFile: sourcePath, Line: 0, Message: strings.TrimSpace(stderr.String())}}
		}
		return nil, xerrors.WithDetail(xerrors.CompilationFailed, formatDiagnostics(diags))
	}

	return collectClassFiles(outDir)
}

func writeSourceFile(scratch, className, source string) (string, error) {
	pkg, simple := splitPackage(className)
	dir := scratch
	if pkg != "" {
		dir = filepath.Join(scratch, filepath.Join(strings.Split(pkg, ".")...))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, simple+".java")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func splitPackage(fqcn string) (pkg, simple string) {
	idx := strings.LastIndex(fqcn, ".")
	if idx < 0 {
		return "", fqcn
	}
	return fqcn[:idx], fqcn[idx+1:]
}

func collectClassFiles(outDir string) (map[string][]byte, error) {
	out := map[string][]byte{}
	err := filepath.Walk(outDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".class") {
			return nil
		}
		rel, err := filepath.Rel(outDir, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(rel, ".class")
		name = strings.ReplaceAll(name, string(filepath.Separator), ".")
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[name] = data
		return nil
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "collect compiled classes")
	}
	return out, nil
}

func parseDiagnostics(stderr string) []Diagnostic {
	var out []Diagnostic
	for _, line := range strings.Split(stderr, "\n") {
		m := diagnosticLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		lineNum, _ := strconv.Atoi(m[2])
		out = append(out, Diagnostic{SourceFile: m[1], Line: lineNum, Message: m[3]})
	}
	return out
}

func formatDiagnostics(diags []Diagnostic) string {
	var b strings.Builder
	for _, d := range diags {
		b.WriteString(d.SourceFile)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(d.Line))
		b.WriteString(": ")
		b.WriteString(d.Message)
		b.WriteByte('\n')
	}
	return b.String()
}
