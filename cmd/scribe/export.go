package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fwojciec/scribe"
	"github.com/fwojciec/scribe/export"
	"github.com/fwojciec/scribe/goldmark"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		output string
		render bool
		width  int
	)
	formats := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		formats = append(formats, string(f))
	}

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session's phases, outline and transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			store := a.db.NewStore()
			defer store.Close()

			snap, err := store.LoadSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc, err := export.Collect(cmd.Context(), store, snap.Session)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := export.Write(&buf, f, doc); err != nil {
				return err
			}
			if render && f == export.FormatMarkdown && output == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), goldmark.Render(buf.String(), width, scribe.DefaultTheme()))
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, buf.Bytes())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatMarkdown), "output format: "+strings.Join(formats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&render, "render", false, "style Markdown for the terminal")
	cmd.Flags().IntVar(&width, "width", 80, "wrap width for --render")
	return cmd
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
