package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fwojciec/scribe"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// Column widths of the session listing.
const (
	idWidth    = 36
	phaseWidth = 21
	typeWidth  = 14
	dateWidth  = 16
	topicWidth = 40
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := a.db.NewStore()
			defer store.Close()
			list, err := store.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			writeSessions(cmd.OutOrStdout(), list, time.Local)
			return nil
		},
	}
}

// writeSessions prints list as aligned columns. Topics are truncated by
// display width so wide characters keep the columns straight.
func writeSessions(w io.Writer, list []scribe.SessionSummary, loc *time.Location) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No sessions yet.")
		return
	}
	fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		pad("ID", idWidth), pad("PHASE", phaseWidth), pad("TYPE", typeWidth), pad("CREATED", dateWidth), "TOPIC")
	for _, s := range list {
		phase := s.CurrentPhase
		if phase == "" {
			phase = scribe.PhaseUnknown.String()
		}
		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			pad(s.ID, idWidth),
			pad(phase, phaseWidth),
			pad(s.ContentType, typeWidth),
			pad(s.CreatedAt.In(loc).Format("2006-01-02 15:04"), dateWidth),
			runewidth.Truncate(s.Topic, topicWidth, "…"))
	}
}

func pad(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
