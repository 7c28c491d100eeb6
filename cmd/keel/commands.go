package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keelwork/keel/pkg/replay"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	failMark = color.New(color.FgRed).Sprint("✗")
)

func originLabel(origin string) string {
	switch origin {
	case "external":
		return color.New(color.FgCyan).Sprint(origin)
	case "effect":
		return color.New(color.FgYellow).Sprint(origin)
	case "failure":
		return color.New(color.FgRed).Sprint(origin)
	default:
		return origin
	}
}

func loadCapture(path string) (replay.Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return replay.Capture{}, fmt.Errorf("read capture: %w", err)
	}
	return replay.Unmarshal(data)
}

func showCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "show <capture.json>",
		Short: "Print the entries of a capture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capture, err := loadCapture(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("store %s, %d actions (format v%s)\n\n",
				capture.StoreID, len(capture.Actions), capture.Version)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SEQ\tORIGIN\tKIND\tAT\tPAYLOAD")
			for i, e := range capture.Actions {
				if limit > 0 && i >= limit {
					fmt.Fprintf(w, "...\t\t(%d more)\t\t\n", len(capture.Actions)-limit)
					break
				}
				payload := string(e.Payload)
				if len(payload) > 60 {
					payload = payload[:57] + "..."
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					e.Seq, originLabel(e.Origin), e.Kind, e.At, payload)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n entries (0 = all)")
	return cmd
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <capture.json>",
		Short: "Validate a capture file's schema and sequence ordering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read capture: %w", err)
			}
			if err := replay.ValidateCapture(data); err != nil {
				fmt.Printf("%s %s\n", failMark, args[0])
				return err
			}
			capture, err := replay.Unmarshal(data)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s: %d actions, store %s\n",
				okMark, args[0], len(capture.Actions), capture.StoreID)
			return nil
		},
	}
}
