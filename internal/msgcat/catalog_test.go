package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenderEmbeddedTemplates(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := []struct {
		key  string
		data any
		want string
	}{
		{"join.player", map[string]string{"User": "alice", "Color": "white"}, "alice joined the game as the white player."},
		{"join.observer", map[string]string{"User": "carol"}, "carol joined the game as an observer."},
		{"move.made", map[string]string{"User": "alice", "From": "a2", "To": "a4"}, "alice made the move a2 -> a4."},
		{"state.checkmate", map[string]string{"Color": "black"}, "black is in checkmate."},
		{"resign.resigned", map[string]string{"User": "bob"}, "bob resigned from the game."},
	}
	for _, tc := range cases {
		if got := c.Render(tc.key, tc.data); got != tc.want {
			t.Fatalf("Render(%s) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestRenderUnknownKeyFallsBack(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Render("no.such.key", nil); got != "no.such.key" {
		t.Fatalf("unexpected fallback: %q", got)
	}
}

func TestOverrideDirectory(t *testing.T) {
	dir := t.TempDir()
	override := []byte("leave:\n  left: \"{{.User}} has gone.\"\n")
	if err := os.WriteFile(filepath.Join(dir, "override.yaml"), override, 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Render("leave.left", map[string]string{"User": "dave"}); got != "dave has gone." {
		t.Fatalf("override not applied: %q", got)
	}
	// untouched keys keep their embedded defaults
	if got := c.Render("resign.resigned", map[string]string{"User": "erin"}); got != "erin resigned from the game." {
		t.Fatalf("default lost after override: %q", got)
	}
}
