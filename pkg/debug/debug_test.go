package debug

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLog_DisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(false)

	Log("dropped %d edges", 3)
	LogTiming("step", time.Millisecond)
	LogEnterExit("build")()

	if buf.Len() != 0 {
		t.Errorf("expected no output while disabled, got %q", buf.String())
	}
}

func TestLog_EnabledWritesPrefixedLines(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(true)
	defer SetEnabled(false)

	Log("dropped %d edges", 3)
	LogIf(false, "never")
	LogIf(true, "conditional")
	LogEnterExit("build")()

	out := buf.String()
	for _, want := range []string{"[RECALL_DEBUG]", "dropped 3 edges", "conditional", "-> build", "<- build"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
	if strings.Contains(out, "never") {
		t.Errorf("LogIf(false) must not write, got %q", out)
	}
}
