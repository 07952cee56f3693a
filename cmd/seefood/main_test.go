package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	for _, key := range []string{"APP_COMPLETION_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(key, "")
	}

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestNormalizeCommand(t *testing.T) {
	out, _, err := runCLI(t, "normalize", "apple_slices", "Plate", "Granny Smith")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	requireContains(t, out, "apple_slices")
	requireContains(t, out, "apple")
	requireContains(t, out, "(rejected)")
}

func TestNormalizeCommandJSON(t *testing.T) {
	out, _, err := runCLI(t, "normalize", "--json", "cherry tomatoes", "fork")
	if err != nil {
		t.Fatalf("normalize --json: %v", err)
	}
	var results []struct {
		Label    string `json:"label"`
		Token    string `json:"token"`
		Accepted bool   `json:"accepted"`
	}
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(results) != 2 || !results[0].Accepted || results[0].Token != "tomato" || results[1].Accepted {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestScanCommand(t *testing.T) {
	frames := strings.Join([]string{
		`{"labels":[{"label":"Tomato","confidence":0.9},{"label":"Onion","confidence":0.8}]}`,
		`{"labels":[{"label":"Tomato","confidence":0.9},{"label":"Onion","confidence":0.8}]}`,
		``,
		`# comment lines are skipped`,
		`{"labels":[{"label":"Tomato","confidence":0.9},{"label":"Onion","confidence":0.8},{"label":"Garlic","confidence":0.2}]}`,
		`{"labels":[{"label":"Garlic","confidence":0.7}]}`,
	}, "\n")
	path := filepath.Join(t.TempDir(), "frames.jsonl")
	if err := os.WriteFile(path, []byte(frames), 0o644); err != nil {
		t.Fatalf("write frames: %v", err)
	}

	out, _, err := runCLI(t, "scan", "--file", path)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "frame 1: tomato, onion")
	requireContains(t, out, "frame 4: garlic")
	requireContains(t, out, "4 frames, 2 emissions")
	requireContains(t, out, "garlic")
	if strings.Contains(out, "frame 2:") || strings.Contains(out, "frame 3:") {
		t.Fatalf("unchanged frames should not emit:\n%s", out)
	}

	// 門檻降低後，第三個畫面的 garlic 也算數
	out, _, err = runCLI(t, "scan", "--file", path, "--threshold", "0.1")
	if err != nil {
		t.Fatalf("scan --threshold: %v", err)
	}
	requireContains(t, out, "frame 3: tomato, onion, garlic")
}

func TestScanCommandRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatalf("write frames: %v", err)
	}
	if _, _, err := runCLI(t, "scan", "--file", path); err == nil {
		t.Fatal("expected error for malformed frame")
	}
	if _, _, err := runCLI(t, "scan", "--file", path, "--threshold", "2"); err == nil {
		t.Fatal("expected error for out-of-range threshold")
	}
}

func TestSuggestCommandOffline(t *testing.T) {
	out, _, err := runCLI(t, "suggest", "tomato", "onion")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	requireContains(t, out, "Quick Veggie Wrap")
	requireContains(t, out, "Tomato Omelette")
	requireContains(t, out, "source: samples")
}

func TestNutritionCommand(t *testing.T) {
	out, _, err := runCLI(t, "nutrition", "--title", "Omelette", "egg", "tomato", "onion", "salt")
	if err != nil {
		t.Fatalf("nutrition: %v", err)
	}
	requireContains(t, out, "490")
	requireContains(t, out, "source: heuristic")

	if _, _, err := runCLI(t, "nutrition", "egg"); err == nil {
		t.Fatal("expected error without --title")
	}
}
