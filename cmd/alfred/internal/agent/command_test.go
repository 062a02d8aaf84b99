package agent

import "testing"

func TestNewAgentCommand(t *testing.T) {
	cmd := NewAgentCommand()

	if cmd == nil {
		t.Fatalf("expected non-nil command")
	}

	if cmd.Use != "agent" {
		t.Errorf("expected command name 'agent', got %q", cmd.Use)
	}

	if cmd.Short != "Give alfred instructions" {
		t.Errorf("expected command short description, got %q", cmd.Short)
	}

	if len(cmd.Aliases) > 0 {
		t.Errorf("expected command to have no aliases, got %d", len(cmd.Aliases))
	}

	if cmd.HasSubCommands() {
		t.Error("expected command to have no subcommands")
	}

	if cmd.Run != nil {
		t.Error("expected command to have nil Run()")
	}

	if cmd.RunE == nil {
		t.Error("expected command to have non-nil RunE()")
	}

	for _, name := range []string{"debug", "message", "session"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected command to have %s flag", name)
		}
	}

	if got := cmd.Flags().Lookup("session").DefValue; got != "cli:default" {
		t.Errorf("session default = %q, want cli:default", got)
	}
}
