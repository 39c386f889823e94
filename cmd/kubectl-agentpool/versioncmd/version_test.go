package versioncmd

import (
	"bytes"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCobraVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{name: "text", args: []string{}, contains: "version (devel)\n"},
		{name: "embedded", args: []string{"--embedded"}, contains: runtime.Version()},
		{name: "yaml", args: []string{"-o", "yaml"}, contains: "goVersion: " + runtime.Version()},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			cmd := NewCmd()
			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}
			cmd.SetOut(stdout)
			cmd.SetErr(stderr)
			cmd.SetArgs(test.args)

			require.Nil(t, cmd.Execute())
			require.Len(t, stderr.String(), 0)
			assert.Contains(t, stdout.String(), test.contains)
		})
	}
}

func TestCobraVersion_JSON(t *testing.T) {
	t.Parallel()

	cmd := NewCmd()
	stdout := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--output", "json"})
	require.NoError(t, cmd.Execute())

	var out versionOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, "(devel)", out.Version)
	assert.Equal(t, runtime.Version(), out.GoVersion)
	assert.Empty(t, out.Deps)
}

func TestCobraVersion_UnknownOutput(t *testing.T) {
	t.Parallel()

	cmd := NewCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-o", "xml"})
	require.Error(t, cmd.Execute())
}
