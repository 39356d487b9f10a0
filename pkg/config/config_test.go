package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()

	require.True(t, cfg.IsFeatureEnabled(FeatExceptions))
	require.True(t, cfg.IsFeatureEnabled(FeatSharedEHStorage))
	require.True(t, cfg.IsFeatureEnabled(FeatTypeInfoNames))
	require.True(t, cfg.IsWarningEnabled(WarnDeadCatch))
	require.False(t, cfg.IsWarningEnabled(WarnEmptyFinally))

	require.Equal(t, "_gx_eh_personality", cfg.Runtime.Personality)
	require.Equal(t, "_gx_eh_resume_unwind", cfg.Runtime.ResumeUnwind)
	require.Equal(t, 8, cfg.WordSize)
}

func TestSetTarget(t *testing.T) {
	cfg := NewConfig()

	cfg.SetTarget("arm64", "")
	require.Equal(t, "arm64", cfg.TargetName)
	require.Equal(t, "aarch64-unknown-linux-gnu", cfg.Triple)
	require.Equal(t, 8, cfg.WordSize)

	cfg.SetTarget("amd64", "amd64_sysv")
	require.Equal(t, "x86_64-unknown-linux-gnu", cfg.Triple)
}

func TestProcessFlags(t *testing.T) {
	cfg := NewConfig()
	cfg.ProcessFlags([]string{"Wempty-finally", "Fno-shared-eh-storage"})
	require.True(t, cfg.IsWarningEnabled(WarnEmptyFinally))
	require.False(t, cfg.IsFeatureEnabled(FeatSharedEHStorage))
}

// -Wno-all is applied before individual toggles regardless of position, so
// a specific warning can always be re-enabled on the same command line.
func TestProcessFlagsAllOrdering(t *testing.T) {
	cfg := NewConfig()
	cfg.ProcessFlags([]string{"Wempty-finally", "Wno-all"})
	require.True(t, cfg.IsWarningEnabled(WarnEmptyFinally))
	require.False(t, cfg.IsWarningEnabled(WarnDeadCatch))

	cfg = NewConfig()
	cfg.ProcessFlags([]string{"Wall"})
	require.True(t, cfg.IsWarningEnabled(WarnEmptyFinally))
	require.False(t, cfg.IsWarningEnabled(WarnPedantic), "-Wall must not imply -Wpedantic")
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: rv64
triple: riscv64-unknown-linux-gnu
word_size: 8
stack_align: 16
runtime:
  personality: __custom_personality
`), 0644))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadProfile(path))
	require.Equal(t, "rv64", cfg.TargetName)
	require.Equal(t, "riscv64-unknown-linux-gnu", cfg.Triple)
	require.Equal(t, "__custom_personality", cfg.Runtime.Personality)
	// unset runtime names keep their defaults
	require.Equal(t, "_gx_eh_throw", cfg.Runtime.Throw)
}

func TestLoadProfileRejectsBadWordSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("word_size: 3\n"), 0644))

	cfg := NewConfig()
	require.Error(t, cfg.LoadProfile(path))
}
