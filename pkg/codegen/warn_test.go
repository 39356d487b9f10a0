package codegen

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xplshn/glc/pkg/config"
	"github.com/xplshn/glc/pkg/parser"
)

// captureStderr collects the diagnostics a lowering run prints.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w
	defer func() { os.Stderr = old }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

const throwInFinallySrc = `
classes:
  - name: E
funcs:
  - name: risky
    extern: true
  - name: f
    body:
      - try:
          body: [{ call: risky }]
          finally:
            - throw: E
`

func TestThrowInFinallyWarns(t *testing.T) {
	out := captureStderr(t, func() { lowerYAML(t, throwInFinallySrc) })
	require.Contains(t, out, "replaces the in-flight exception")
	require.Contains(t, out, "[-Wextra]")
}

func TestThrowInFinallyWarningCanBeDisabled(t *testing.T) {
	res, err := parser.Parse("test.yaml", []byte(throwInFinallySrc))
	require.NoError(t, err)
	cfg := config.NewConfig()
	cfg.SetTarget("amd64", "amd64_sysv")
	cfg.SetWarning(config.WarnExtra, false)

	out := captureStderr(t, func() { NewContext(cfg).Generate(res.Program) })
	require.NotContains(t, out, "[-Wextra]")
}

// A throw handled by a try nested inside the finally body never escapes the
// cleanup, so it must not trip the warning.
func TestThrowHandledInsideFinallyDoesNotWarn(t *testing.T) {
	out := captureStderr(t, func() {
		lowerYAML(t, `
classes:
  - name: E
funcs:
  - name: risky
    extern: true
  - name: f
    body:
      - try:
          body: [{ call: risky }]
          finally:
            - try:
                body: [{ throw: E }]
                catches:
                  - class: E
                    body: []
`)
	})
	require.NotContains(t, out, "replaces the in-flight exception")
}
