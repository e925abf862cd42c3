package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Zarux/tictactable/pkg/compiler"
)

func TestRun(t *testing.T) {
	for _, f := range []string{"yaml", "json"} {
		t.Run(f, func(t *testing.T) {
			var out, errOut bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&errOut)
			rootCmd.SetArgs([]string{"--size", "2", "-o", f})

			require.NoError(t, rootCmd.Execute())

			var stats compiler.Stats
			if f == "yaml" {
				require.NoError(t, yaml.Unmarshal(out.Bytes(), &stats))
			} else {
				require.NoError(t, json.Unmarshal(out.Bytes(), &stats))
			}

			require.Equal(t, 29, stats.Nodes)
			require.Equal(t, 12, stats.Progress.Terminals)
			require.Equal(t, int8(1), stats.RootValue)
			require.Equal(t, uint8(3), stats.RootDepth)
			require.Contains(t, errOut.String(), "compiled game tree")
		})
	}
}

func TestWriteStats(t *testing.T) {
	require.Error(t, writeStats(&bytes.Buffer{}, &compiler.Stats{}, "xml"))
}
