package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWorld = `
owners:
  - id: guard
    type: NPC
    name: Gate Guard
    nodes:
      - id: start
        type: Start
        next: halt
      - id: halt
        type: NpcSay
        properties:
          Text: Halt!
        next: bye
      - id: bye
        type: End
      - id: orphan
        type: NpcSay
        properties:
          Text: Nobody hears me.
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeWorld(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "palaver version ")
}

func TestValidateCommand(t *testing.T) {
	world := writeWorld(t, testWorld)

	out, err := execute(t, "validate", "--world", world)
	require.NoError(t, err)
	assert.Contains(t, out, "[warning] guard/orphan")
	assert.Contains(t, out, "World is valid (1 owners")

	broken := writeWorld(t, "owners:\n  - id: mute\n    nodes:\n      - id: hello\n        type: NpcSay\n")
	_, err = execute(t, "validate", "--world", broken)
	assert.ErrorContains(t, err, "validation failed")
}

func TestOwnersAndGraphCommands(t *testing.T) {
	world := writeWorld(t, testWorld)

	out, err := execute(t, "owners", "--world", world)
	require.NoError(t, err)
	assert.Contains(t, out, "guard")
	assert.Contains(t, out, "Gate Guard (4 nodes)")

	out, err = execute(t, "graph", "guard", "--world", world)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "halt")
}

func TestSessionCommands(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.json"), []byte(`{"id":"hero","money":3}`), 0644))

	out, err := execute(t, "session", "ls", "--session-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "- hero")

	out, err = execute(t, "session", "inspect", "hero", "--session-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"money": 3`)

	out, err = execute(t, "session", "rm", "hero", "--session-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed session 'hero'")
	assert.NoFileExists(t, filepath.Join(dir, "hero.json"))

	out, err = execute(t, "session", "ls", "--session-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")
}

func TestStoreFlagIsNormalized(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "session", "ls", "--store", " File ", "--session-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")
}

func TestMCPCommand_Stdio(t *testing.T) {
	world := writeWorld(t, testWorld)
	requests := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/read","params":{"uri":"palaver://owners"}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(requests))
	rootCmd.SetArgs([]string{"mcp", "--transport", "stdio", "--world", world, "--store", "memory"})
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = rootCmd.ExecuteContext(ctx)

	assert.Contains(t, out.String(), `"palaver-mcp"`)
	assert.Contains(t, out.String(), `"start_conversation"`)
	assert.Contains(t, out.String(), `"close_shop"`)
	assert.Contains(t, out.String(), `guard`)
}

func TestMCPCommand_UnknownTransport(t *testing.T) {
	world := writeWorld(t, testWorld)
	_, err := execute(t, "mcp", "--world", world, "--transport", "carrier-pigeon")
	assert.ErrorContains(t, err, "unknown transport")
}
