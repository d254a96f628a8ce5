package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/stupside/pitchside/internal/catalog"
	"github.com/stupside/pitchside/internal/prompt"
	"github.com/stupside/pitchside/internal/watch"
)

// Interactive prompts, replaced in tests.
var (
	selectPrompt = func(ctx context.Context, title string, options []string) (int, error) {
		return prompt.Select(ctx, title, options)
	}
	inputPrompt = func(ctx context.Context, title, placeholder string) (string, error) {
		return prompt.Input(ctx, title, placeholder)
	}
)

var menu = []string{"Enter a match", "Select a match", "Exit"}

// watchCommand returns the "watch" CLI subcommand.
func watchCommand() *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Pick a match and a broadcast interactively, then play it",
		Action: watchAction,
	}
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	_, svc, err := serviceFrom(cmd)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	err = watchFlow(ctx, w, svc)
	switch {
	case errors.Is(err, prompt.ErrAborted):
		fmt.Fprintln(w, byeStyle.Render("👋 until next time!"))
		return nil
	case errors.Is(err, watch.ErrNoMatch):
		fmt.Fprintln(w, failStyle.Render("No match found."))
		return nil
	}
	return err
}

func watchFlow(ctx context.Context, w io.Writer, svc *watch.Service) error {
	choice, err := selectPrompt(ctx, "Select an option:", menu)
	if err != nil {
		return err
	}

	var m *catalog.Match
	switch choice {
	case 0:
		query, err := inputPrompt(ctx, "Enter match (<home> vs <away>):", "Team A vs Team B")
		if err != nil {
			return err
		}
		if m, err = search(ctx, svc, query); err != nil {
			return err
		}
	case 1:
		matches, err := svc.Catalog(ctx)
		if err != nil {
			return err
		}
		names := make([]string, len(matches))
		for i, mm := range matches {
			names[i] = mm.DisplayName
		}
		i, err := selectPrompt(ctx, "Select a match:", names)
		if err != nil {
			return err
		}
		m = &matches[i]
	default:
		return nil
	}

	if len(m.Links) == 0 {
		return fmt.Errorf("%q has no broadcasts listed", m.DisplayName)
	}
	names := make([]string, len(m.Links))
	for i, l := range m.Links {
		names[i] = l.Name
	}
	i, err := selectPrompt(ctx, "Select a link:", names)
	if err != nil {
		return err
	}

	stream, err := svc.Stream(ctx, m.Links[i])
	if err != nil {
		return err
	}

	fmt.Fprintln(w, streamStyle.Render("Streaming: "+stream.URL.String()))
	return svc.Play(ctx, stream)
}
