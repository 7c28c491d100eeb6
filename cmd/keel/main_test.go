package main

import (
	"os"
	"path/filepath"
	"testing"
)

const validCapture = `{"version":"1","store_id":"s1","actions":[
	{"seq":1,"kind":"inc","origin":"external","at":"2024-01-01T00:00:00Z","payload":{"n":1}},
	{"seq":2,"kind":"bonus","origin":"effect","at":"2024-01-01T00:00:01Z","payload":{"n":1}}]}`

func writeCapture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCapture(t *testing.T) {
	path := writeCapture(t, validCapture)
	capture, err := loadCapture(path)
	if err != nil {
		t.Fatal(err)
	}
	if capture.StoreID != "s1" || len(capture.Actions) != 2 {
		t.Fatalf("capture=%+v", capture)
	}
}

func TestLoadCapture_Invalid(t *testing.T) {
	path := writeCapture(t, `{"version":"1"}`)
	if _, err := loadCapture(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestVerifyCmd(t *testing.T) {
	cmd := verifyCmd()
	cmd.SetArgs([]string{writeCapture(t, validCapture)})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	bad := verifyCmd()
	bad.SilenceUsage = true
	bad.SilenceErrors = true
	bad.SetArgs([]string{writeCapture(t, `{"version":"1","store_id":"s","actions":[
		{"seq":2,"kind":"a","origin":"external","at":"t"},
		{"seq":1,"kind":"b","origin":"external","at":"t"}]}`)})
	if err := bad.Execute(); err == nil {
		t.Fatal("expected verify to fail on non-ascending seq")
	}
}

func TestShowCmd(t *testing.T) {
	cmd := showCmd()
	cmd.SetArgs([]string{writeCapture(t, validCapture), "-n", "1"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("show failed: %v", err)
	}
}
