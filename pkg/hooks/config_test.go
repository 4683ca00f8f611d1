package hooks

import (
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestLoaderNoConfig(t *testing.T) {
	tmp := t.TempDir()
	l := NewLoader(WithProjectDir(tmp), WithConfigDir(filepath.Join(tmp, "none")))
	if err := l.Load(); err != nil {
		t.Fatalf("expected no error without config, got %v", err)
	}
	if l.HasHooks() {
		t.Error("expected no hooks")
	}
	if l.Path() != "" {
		t.Errorf("expected empty path, got %s", l.Path())
	}
}

func TestLoaderDefaults(t *testing.T) {
	tmp := t.TempDir()
	writeHooksFile(t, tmp, `
hooks:
  pre-render:
    - command: echo pre
      timeout: 5s
  post-render:
    - name: open
      command: xdg-open "$RECALL_SNAPSHOT_PATH"
      timeout: 30
    - command: "   "
`)
	l := NewLoader(WithProjectDir(filepath.Join(tmp, "elsewhere")), WithConfigDir(tmp))
	if err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.Path() != filepath.Join(tmp, fileName) {
		t.Errorf("expected config dir hooks file, got %s", l.Path())
	}

	pre := l.GetHooks(PreRender)
	if len(pre) != 1 || pre[0].Name != "pre-render-1" || pre[0].OnError != "fail" || pre[0].Timeout != 5*time.Second {
		t.Errorf("unexpected pre-render hook %+v", pre)
	}
	post := l.GetHooks(PostRender)
	if len(post) != 1 || post[0].OnError != "continue" || post[0].Timeout != 30*time.Second {
		t.Errorf("unexpected post-render hook %+v", post)
	}
	if len(l.Warnings()) != 1 {
		t.Errorf("expected one warning for the empty command, got %v", l.Warnings())
	}
	if l.GetHooks("other") != nil {
		t.Error("expected nil for an unknown phase")
	}
}

func TestLoaderProjectBeatsUser(t *testing.T) {
	tmp := t.TempDir()
	user := filepath.Join(tmp, "user")
	writeHooksFile(t, user, "hooks:\n  post-render:\n    - command: echo user\n")
	writeHooksFile(t, filepath.Join(tmp, ".recall"), "hooks:\n  post-render:\n    - command: echo project\n")

	l := NewLoader(WithProjectDir(tmp), WithConfigDir(user))
	if err := l.Load(); err != nil {
		t.Fatal(err)
	}
	if got := l.GetHooks(PostRender)[0].Command; got != "echo project" {
		t.Errorf("expected project hooks, got %q", got)
	}
}

func TestLoaderInvalidYAML(t *testing.T) {
	tmp := t.TempDir()
	writeHooksFile(t, tmp, "hooks: [unclosed")
	l := NewLoader(WithProjectDir(filepath.Join(tmp, "x")), WithConfigDir(tmp))
	if err := l.Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestHookUnmarshalYAMLInvalidTimeout(t *testing.T) {
	var h Hook
	if err := yaml.Unmarshal([]byte("command: echo\ntimeout: soon\n"), &h); err == nil {
		t.Error("expected error for invalid timeout")
	}
}
