package logger

import (
	"bytes"
	"os"
	"testing"
)

// capture redirects stdout for the duration of fn and returns what was printed.
func capture(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestTaggedLevels_IncludeTag(t *testing.T) {
	out := capture(t, func() {
		Info("ESI", "fetching")
		Success("ESI", "done")
		Warn("Index", "stale cache")
		Error("Index", "build failed")
	})
	for _, want := range []string{"[ESI]", "[Index]", "fetching", "stale cache"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBanner_EmptyVersionFallsBackToDev(t *testing.T) {
	out := capture(t, func() { Banner("") })
	if !bytes.Contains([]byte(out), []byte("dev")) {
		t.Errorf("Banner(\"\") output missing dev fallback:\n%s", out)
	}
}

func TestSectionStatsServer_NoPanic(t *testing.T) {
	capture(t, func() {
		Section("Prewarm")
		Stats("built", 42)
		Stats("skipped", "13")
		Server("127.0.0.1:8090")
	})
}
