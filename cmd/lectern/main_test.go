package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
)

func runListStyles(t *testing.T, args ...string) (bool, string) {
	t.Helper()
	var buf bytes.Buffer
	var done bool
	cmd := &cli.Command{
		Name:  "lectern",
		Flags: commonFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			var err error
			done, err = listStyles(&buf, cmd)
			return err
		},
	}
	if err := cmd.Run(context.Background(), append([]string{"lectern"}, args...)); err != nil {
		t.Fatalf("Run(%v) failed: %v", args, err)
	}
	return done, buf.String()
}

func TestListStyles(t *testing.T) {
	done, out := runListStyles(t, "--list-styles")
	if !done {
		t.Fatal("listStyles() did not handle --list-styles")
	}
	want := "big-centered\nbig-centered-wob\ndefault\nwhite-on-black\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestListStylesUnset(t *testing.T) {
	done, out := runListStyles(t, "--bullet-mode", "fade")
	if done || out != "" {
		t.Errorf("listStyles() = %v, %q without the flag", done, out)
	}
}

func TestMarkupFileRequired(t *testing.T) {
	cmd := &cli.Command{
		Name: "lectern",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := markupFile(cmd)
			return err
		},
	}
	err := cmd.Run(context.Background(), []string{"lectern"})
	if err == nil || !strings.Contains(err.Error(), "FILE is required") {
		t.Errorf("Run() = %v, want %v", err, errNoFile)
	}
}
