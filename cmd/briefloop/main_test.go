package main

import (
	"testing"
)

func TestNewVersionCmd(t *testing.T) {
	cmd := newVersionCmd()
	if cmd.Use != "version" {
		t.Errorf("Use = %q, want %q", cmd.Use, "version")
	}
}

func TestNewInitCmd(t *testing.T) {
	cmd := newInitCmd()
	if cmd.Use != "init" {
		t.Errorf("Use = %q, want %q", cmd.Use, "init")
	}
}

func TestNewTurnCmd(t *testing.T) {
	cmd := newTurnCmd()
	if cmd.Use != "turn <conversation-id>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "turn <conversation-id>")
	}

	// Check required flags exist
	if cmd.Flags().Lookup("slot") == nil {
		t.Error("missing --slot flag")
	}
	if cmd.Flags().Lookup("answer") == nil {
		t.Error("missing --answer flag")
	}
	if cmd.Flags().Lookup("confidence") == nil {
		t.Error("missing --confidence flag")
	}
}

func TestNewStartCmd(t *testing.T) {
	cmd := newStartCmd()
	if cmd.Use != "start" {
		t.Errorf("Use = %q, want %q", cmd.Use, "start")
	}
	flag := cmd.Flags().Lookup("template")
	if flag == nil {
		t.Fatal("missing --template flag")
	}
	if flag.DefValue != "project-brief" {
		t.Errorf("template default = %q, want %q", flag.DefValue, "project-brief")
	}
}

func TestNewSimulateCmd(t *testing.T) {
	cmd := newSimulateCmd()
	if cmd.Use != "simulate" {
		t.Errorf("Use = %q, want %q", cmd.Use, "simulate")
	}
	if cmd.Flags().Lookup("answers") == nil {
		t.Error("missing --answers flag")
	}
}

func TestNewMCPServerCmd(t *testing.T) {
	cmd := newMCPServerCmd()
	if cmd.Use != "mcp-server" {
		t.Errorf("Use = %q, want %q", cmd.Use, "mcp-server")
	}
}

func TestBuiltinNames(t *testing.T) {
	names := builtinNames()
	if len(names) == 0 {
		t.Fatal("no built-in templates")
	}
	found := false
	for _, name := range names {
		if name == "project-brief" {
			found = true
		}
	}
	if !found {
		t.Errorf("builtinNames() = %v, missing project-brief", names)
	}
}
