package commands

import (
	"context"
	"testing"
)

func TestDispatcher_MatchSlashCommand(t *testing.T) {
	called := false
	defs := []Definition{
		{
			Name: "help",
			Handler: func(context.Context, Request) error {
				called = true
				return nil
			},
		},
	}
	d := NewDispatcher(NewRegistry(defs))

	res := d.Dispatch(context.Background(), Request{
		Text: "/help",
	})
	if !res.Matched || !called || res.Err != nil {
		t.Fatalf("dispatch result = %+v, called=%v", res, called)
	}
}

func TestDispatcher_DoesNotMatchWithoutSlash(t *testing.T) {
	d := NewDispatcher(NewRegistry([]Definition{{Name: "help"}}))

	res := d.Dispatch(context.Background(), Request{
		Text: "help",
	})
	if res.Matched {
		t.Fatalf("expected unmatched for plain text, got %+v", res)
	}
}

func TestDispatcher_MatchMentionSyntax(t *testing.T) {
	called := false
	d := NewDispatcher(NewRegistry([]Definition{
		{
			Name: "help",
			Handler: func(context.Context, Request) error {
				called = true
				return nil
			},
		},
	}))

	res := d.Dispatch(context.Background(), Request{
		Text: "/help@alfred",
	})
	if !res.Matched || !res.Handled || !called || res.Err != nil {
		t.Fatalf("dispatch result = %+v, called=%v", res, called)
	}
}

func TestDispatcher_PassThroughDefinitionWithoutHandler(t *testing.T) {
	d := NewDispatcher(NewRegistry([]Definition{
		{Name: "session"}, // help-only / pass-through definition
	}))

	res := d.Dispatch(context.Background(), Request{
		Text: "/session list",
	})
	if res.Matched {
		t.Fatalf("expected pass-through unmatched result, got %+v", res)
	}
}

func TestDispatcher_MatchAliasCaseInsensitive(t *testing.T) {
	var got string
	d := NewDispatcher(NewRegistry([]Definition{
		{
			Name:    "good",
			Aliases: []string{"bien"},
			Handler: func(_ context.Context, req Request) error {
				got = req.Text
				return nil
			},
		},
	}))

	res := d.Dispatch(context.Background(), Request{Text: "/BIEN"})
	if !res.Handled || res.Command != "good" || got != "/BIEN" {
		t.Fatalf("dispatch result = %+v, got=%q", res, got)
	}
}

func TestIsCommand(t *testing.T) {
	if !IsCommand("  /good") {
		t.Fatal("expected /good to be a command")
	}
	if IsCommand("spotify play /tmp/song.mp3") || IsCommand("/") {
		t.Fatal("expected plain text not to be a command")
	}
}
