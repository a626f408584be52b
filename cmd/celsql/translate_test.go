package main

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// File reads go through inputFS rather than os.ReadFile directly, so a
// translate run can be driven entirely off an in-memory filesystem, the
// same substitution serv/workflows_test.go makes for workflow scripts.
func TestTranslateCmdReadsExpressionFromAferoFS(t *testing.T) {
	log = zap.NewNop().Sugar()

	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/expr.json", []byte(`{"expr":{"type":"literal","kind":"bool","value":true}}`), 0o644))

	prev := inputFS
	inputFS = mem
	defer func() { inputFS = prev }()

	cmd := newTranslateCmd()
	cmd.SetArgs([]string{"--dialect", "postgresql", "--format", "sql", "/expr.json"})

	out := captureStdout(t, func() {
		require.NoError(t, cmd.Execute())
	})
	assert.Contains(t, out, "true")
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	prev := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = prev }()

	fn()

	require.NoError(t, w.Close())
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}
