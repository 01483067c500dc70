package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

type cmdResult struct {
	stdout string
	stderr string
	err    error
}

// run executes the root command with fresh flag values.
func run(t *testing.T, stdin string, args ...string) cmdResult {
	t.Helper()
	resetFlags(rootCmd)
	appConfig = nil

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return cmdResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// workspace moves into a fresh directory with its own HOME and writes a
// config file there. Every test passes --config so nothing from the real
// user configuration leaks in.
func workspace(t *testing.T, yaml string) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	cfgPath = filepath.Join(dir, "config.yaml")
	base := "log:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(base+yaml), 0o600))
	return dir, cfgPath
}
