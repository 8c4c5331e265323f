package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fwojciec/scribe"
	bt "github.com/fwojciec/scribe/bubbletea"
	"github.com/fwojciec/scribe/engine"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStartCmd(a *app) *cobra.Command {
	var (
		contentType string
		plain       bool
	)
	cmd := &cobra.Command{
		Use:   "start <topic...>",
		Short: "Start a new writing session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(scribe.ContentTypes(), contentType) {
				return fmt.Errorf("unknown content type %q: choose one of %s",
					contentType, strings.Join(scribe.ContentTypes(), ", "))
			}
			store := a.db.NewStore()
			defer store.Close()
			e := a.newEngine(store)

			greeting, err := e.StartSession(cmd.Context(), contentType, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.interact(cmd, e, greeting, plain)
		},
	}
	cmd.Flags().StringVarP(&contentType, "type", "t", scribe.ContentTypeBlogPost,
		"content type: "+strings.Join(scribe.ContentTypes(), ", "))
	cmd.Flags().BoolVar(&plain, "plain", false, "line-based prompt instead of the full-screen UI")
	return cmd
}

func newResumeCmd(a *app) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "resume [session-id]",
		Short: "Resume a session (the most recent one by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.db.NewStore()
			defer store.Close()

			id := ""
			if len(args) == 1 {
				id = args[0]
			} else {
				list, err := store.ListSessions(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					return fmt.Errorf("no sessions yet: run \"scribe start <topic>\"")
				}
				id = list[0].ID
			}

			e := a.newEngine(store)
			greeting, err := e.ResumeSession(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.interact(cmd, e, greeting, plain)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "line-based prompt instead of the full-screen UI")
	return cmd
}

// interact runs the conversation with e, in the TUI or in plain line mode.
func (a *app) interact(cmd *cobra.Command, e *engine.Engine, greeting string, plain bool) error {
	ctx := cmd.Context()
	session := e.Session()
	a.logger.Info("session opened",
		zap.String("session_id", session.ID),
		zap.Bool("plain", plain))

	if plain {
		if err := runPlain(ctx, e, greeting, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			return err
		}
	} else {
		phase, err := e.CurrentPhase(ctx)
		if err != nil {
			return err
		}
		m := bt.New(e, scribe.DefaultTheme(), bt.Config{
			Topic:    session.Topic,
			Phase:    phase,
			Greeting: greeting,
		})
		if err := bt.Run(ctx, m); err != nil {
			return fmt.Errorf("TUI: %w", err)
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Session %s saved. Resume with: scribe resume %s\n", session.ID, session.ID)
	return nil
}

// runPlain converses over line-oriented streams until EOF, /quit or /exit.
// Failed turns are reported and the loop continues.
func runPlain(ctx context.Context, e bt.Engine, greeting string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "%s\n\n", greeting)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		text := strings.TrimSpace(sc.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}
		reply, err := e.ProcessUserInput(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "Error: %v\n\n", err)
			continue
		}
		fmt.Fprintf(out, "%s\n\n", reply)
	}
}
