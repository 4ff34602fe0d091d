package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags(nil, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.cmd != "up" || opts.dir != "pkg/migrate/migrations" {
		t.Fatalf("unexpected defaults %+v", opts)
	}
	if _, err := parseFlags([]string{"-bogus"}, io.Discard); err == nil {
		t.Fatal("expected unknown flag to fail")
	}
}

func TestRunCreateThenValidate(t *testing.T) {
	root := t.TempDir()
	out := &bytes.Buffer{}

	if err := run(context.Background(), options{cmd: "create", dir: root, name: "add sale notes"}, out); err != nil {
		t.Fatalf("create: %v", err)
	}
	if strings.Count(out.String(), "created migration:") != 2 {
		t.Fatalf("expected one file per dialect, got %s", out.String())
	}
	if !strings.Contains(out.String(), filepath.Join(root, "sqlite")) {
		t.Fatalf("expected sqlite path in output, got %s", out.String())
	}

	out.Reset()
	if err := run(context.Background(), options{cmd: "validate", dir: root}, out); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out.String(), "validation passed") {
		t.Fatalf("unexpected output %s", out.String())
	}
}

func TestRunRejectsBadInvocations(t *testing.T) {
	cases := map[string]options{
		"create without name":    {cmd: "create", dir: t.TempDir()},
		"version without target": {cmd: "version"},
		"unknown command":        {cmd: "redo"},
	}
	for name, opts := range cases {
		if err := run(context.Background(), opts, io.Discard); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
