package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/xplshn/glc/pkg/token"
)

// SourceFileRecord tracks the name and content of a single program
// description file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

var sourceFiles []SourceFileRecord

// SetSourceFiles stores the loaded description files for rich error messages.
func SetSourceFiles(files []SourceFileRecord) {
	sourceFiles = files
}

// AddSourceFile registers one file and returns its index for token.Pos.
func AddSourceFile(name string, content []byte) int {
	sourceFiles = append(sourceFiles, SourceFileRecord{Name: name, Content: []rune(string(content))})
	return len(sourceFiles) - 1
}

// findFileAndLine converts a position to a file-specific location.
func findFileAndLine(pos token.Pos) (filename string, line, col int) {
	if pos.FileIndex < 0 || pos.FileIndex >= len(sourceFiles) {
		return "unknown", pos.Line, pos.Column
	}
	return sourceFiles[pos.FileIndex].Name, pos.Line, pos.Column
}

// printErrorLine prints the source line and a caret indicating the position.
func printErrorLine(stream *os.File, pos token.Pos) {
	if pos.FileIndex < 0 || pos.FileIndex >= len(sourceFiles) || pos.Line == 0 {
		return
	}

	content := sourceFiles[pos.FileIndex].Content
	lineNum := pos.Line
	lineStart := 0
	for i, r := range content {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}

	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(stream, "  %s\n", string(content[lineStart:lineEnd]))

	if pos.Column < 1 {
		return
	}
	fmt.Fprintf(stream, "  %s\033[32m^", strings.Repeat(" ", pos.Column-1))
	if pos.Len > 1 {
		fmt.Fprintf(stream, "%s", strings.Repeat("~", pos.Len-1))
	}
	fmt.Fprintln(stream, "\033[0m")
}

// Error prints a formatted error message and exits the program.
func Error(pos token.Pos, format string, args ...interface{}) {
	filename, line, col := findFileAndLine(pos)
	fmt.Fprintf(os.Stderr, "%s:%d:%d: \033[31merror:\033[0m ", filename, line, col)
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr)
	printErrorLine(os.Stderr, pos)
	os.Exit(1)
}

// Errorf is Error without a source location.
func Errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "glc: \033[31merror:\033[0m ")
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}

// ICE reports an internal consistency violation in the code generator and
// aborts. These are compiler bugs, never user errors, and are not
// recoverable: generation state is unspecified once an invariant is broken.
func ICE(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "glc: \033[31minternal error:\033[0m ")
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "glc: this is a bug in the code generator, please report it")
	os.Exit(2)
}

// Warn prints a formatted warning message. Gating on the warning registry
// is the caller's concern (see config.IsWarningEnabled).
func Warn(name string, pos token.Pos, format string, args ...interface{}) {
	filename, line, col := findFileAndLine(pos)
	fmt.Fprintf(os.Stderr, "%s:%d:%d: \033[33mwarning:\033[0m ", filename, line, col)
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintf(os.Stderr, " [-W%s]\n", name)
	printErrorLine(os.Stderr, pos)
}
