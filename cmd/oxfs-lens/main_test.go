package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntryPoint(t *testing.T) {
	var out bytes.Buffer

	command.SetOut(&out)
	command.SetArgs([]string{"--version"})
	require.NoError(t, command.Execute())
	require.Contains(t, out.String(), "oxfs-lens\nVersion: ")

	out.Reset()
	command.SetArgs([]string{"fs", "--help"})
	require.NoError(t, command.Execute())
	require.Contains(t, out.String(), "shell")
}
