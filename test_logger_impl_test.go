package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/transportpce/servicehandler-tests/framework"
)

func TestConsoleTestLogger(t *testing.T) {
	id := framework.TestID{Path: []string{"service handler", "create"}}
	debugOutput := framework.CapturedOutput{{Time: time.Now(), Message: "POST http://x"}}

	t.Run("failure with debug output", func(t *testing.T) {
		var buf bytes.Buffer
		l := &ConsoleTestLogger{DebugOutputOnFailure: true, Out: &buf}
		l.TestStarted(id)
		l.TestError(id, errors.New("first line\nsecond line"))
		l.TestFinished(id, true, debugOutput)

		out := buf.String()
		assert.Contains(t, out, "[service handler/create]")
		assert.Contains(t, out, "  first line\n")
		assert.Contains(t, out, "  second line\n")
		assert.Contains(t, out, "FAILED: service handler/create")
		assert.Contains(t, out, "DEBUG ")
		assert.Contains(t, out, "POST http://x")
	})

	t.Run("success hides debug output by default", func(t *testing.T) {
		var buf bytes.Buffer
		l := &ConsoleTestLogger{DebugOutputOnFailure: true, Out: &buf}
		l.TestFinished(id, false, debugOutput)
		assert.Empty(t, buf.String())
	})

	t.Run("skipped", func(t *testing.T) {
		var buf bytes.Buffer
		l := &ConsoleTestLogger{Out: &buf}
		l.TestSkipped(id, "topology file missing")
		l.TestSkipped(id, "")
		assert.Contains(t, buf.String(), "SKIPPED: service handler/create (topology file missing)\n")
		assert.Contains(t, buf.String(), "SKIPPED: service handler/create\n")
	})
}
