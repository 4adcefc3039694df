package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ayusman/natya/internal/track"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Inspect reference track assets",
}

var trackInfoCmd = &cobra.Command{
	Use:   "info <file>...",
	Short: "Summarize track files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTrackInfo,
}

var trackValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check track files for defects",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTrackValidate,
}

func init() {
	trackCmd.AddCommand(trackInfoCmd)
	trackCmd.AddCommand(trackValidateCmd)
	rootCmd.AddCommand(trackCmd)
}

func runTrackInfo(cmd *cobra.Command, args []string) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Song", "FPS", "Frames", "Duration (s)", "File"})

	for _, path := range args {
		tr, err := track.LoadFile(path)
		if err != nil {
			return err
		}
		s := tr.Summary()
		t.AppendRow(table.Row{s.SongID, s.FPS, s.TotalFrames, fmt.Sprintf("%.1f", s.Duration), path})
	}

	t.Render()
	return nil
}

func runTrackValidate(cmd *cobra.Command, args []string) error {
	defects := 0

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"File", "Issue"})

	for _, path := range args {
		tr, err := track.LoadFile(path)
		if err != nil {
			t.AppendRow(table.Row{path, err.Error()})
			defects++
			continue
		}

		issues := track.Validate(tr)
		if len(issues) == 0 {
			t.AppendRow(table.Row{path, "ok"})
			continue
		}
		for _, issue := range issues {
			t.AppendRow(table.Row{path, issue})
			defects++
		}
	}

	t.Render()

	if defects > 0 {
		return fmt.Errorf("%d defect(s) found", defects)
	}
	return nil
}
