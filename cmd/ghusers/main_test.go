package main

import (
	"os"
	"testing"

	"github.com/urfave/cli/v2"
)

func newTestApp() *cli.App {
	app := cli.NewApp()
	app.Name = "ghusers"
	app.Commands = commands()
	return app
}

func TestGetEnv(t *testing.T) {
	os.Setenv("GHUSERS_TEST_KEY", "value")
	defer os.Unsetenv("GHUSERS_TEST_KEY")

	if got := getEnv("GHUSERS_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("Expected 'value', got %q", got)
	}
	if got := getEnv("GHUSERS_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("Expected 'fallback', got %q", got)
	}
}

func TestCommands(t *testing.T) {
	cmds := commands()

	want := []string{"extract", "filter", "serve"}
	if len(cmds) != len(want) {
		t.Fatalf("Expected %d commands, got %d", len(want), len(cmds))
	}
	for i, name := range want {
		if cmds[i].Name != name {
			t.Errorf("Command %d: expected %q, got %q", i, name, cmds[i].Name)
		}
		if cmds[i].Action == nil {
			t.Errorf("Command %q has no action", name)
		}
	}
}

func TestExtractCommand_RequiresToken(t *testing.T) {
	os.Unsetenv("GITHUB_TOKEN")

	app := newTestApp()
	err := app.Run([]string{"ghusers", "extract"})
	if err == nil {
		t.Fatal("Expected error when GITHUB_TOKEN is unset")
	}
}

func TestServeCommand_MissingCollection(t *testing.T) {
	app := newTestApp()
	err := app.Run([]string{"ghusers", "serve", "--filtered", "/nonexistent/filtered.json"})
	if err == nil {
		t.Fatal("Expected error for a missing filtered collection")
	}
}
