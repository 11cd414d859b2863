package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testRuleMap = `{
  "PRINT": {
    "description": "log the filename",
    "function_name": "logFilename",
    "options": {},
    "conditions": [
      {"function_name": "fileExists", "options": {}}
    ]
  }
}`

func runLint(t *testing.T, ruleMap, sequence string) (string, error) {
	t.Helper()
	dir := t.TempDir()

	mapPath := filepath.Join(dir, "rules.json")
	seqPath := filepath.Join(dir, "sequence.json")
	if err := os.WriteFile(mapPath, []byte(ruleMap), 0o644); err != nil {
		t.Fatalf("write rule map: %v", err)
	}
	if err := os.WriteFile(seqPath, []byte(sequence), 0o644); err != nil {
		t.Fatalf("write sequence: %v", err)
	}

	lintFlags.ruleMaps = []string{mapPath}
	lintFlags.ruleSeq = seqPath
	defer func() {
		lintFlags.ruleMaps = nil
		lintFlags.ruleSeq = ""
	}()

	var out bytes.Buffer
	cmd := lintCmd
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := lintRules(cmd, nil)
	return out.String(), err
}

func TestLint_ValidRuleMap(t *testing.T) {
	out, err := runLint(t, testRuleMap, `["PRINT"]`)
	if err != nil {
		t.Fatalf("lint error = %v", err)
	}
	if !strings.Contains(out, "1 rules valid") {
		t.Errorf("output = %q, want rule count", out)
	}
	if !strings.Contains(out, "PRINT") {
		t.Errorf("output = %q, want rule listing", out)
	}
}

func TestLint_UnknownSequenceEntry(t *testing.T) {
	if _, err := runLint(t, testRuleMap, `["PRINT", "MISSING"]`); err == nil {
		t.Error("sequence entry without a definition accepted")
	}
}

func TestLint_UnknownFunction(t *testing.T) {
	bad := strings.Replace(testRuleMap, "logFilename", "doesNotExist", 1)
	if _, err := runLint(t, bad, `["PRINT"]`); err == nil {
		t.Error("unknown action name accepted")
	}
}

func TestLint_ExampleFilesAreValid(t *testing.T) {
	root := filepath.Join("..", "..", "examples")
	if _, err := os.Stat(filepath.Join(root, "rules.json")); err != nil {
		t.Skip("examples not present")
	}

	lintFlags.ruleMaps = []string{filepath.Join(root, "rules.json")}
	lintFlags.ruleSeq = filepath.Join(root, "sequence.json")
	defer func() {
		lintFlags.ruleMaps = nil
		lintFlags.ruleSeq = ""
	}()

	var out bytes.Buffer
	lintCmd.SetOut(&out)
	lintCmd.SetErr(&out)

	if err := lintRules(lintCmd, nil); err != nil {
		t.Fatalf("shipped example rule map does not lint: %v", err)
	}
}
