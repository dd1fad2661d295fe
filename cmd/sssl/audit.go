package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/RetendoNetwork/SSSL/internal/audit"
	"github.com/RetendoNetwork/SSSL/internal/cli"
)

func newAuditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit log management",
		Long: `Commands for reading and verifying the audit log written with --audit-log.

Each event records one step of a forging run and carries the SHA-256 hash of
the previous event, starting from "sha256:genesis".`,
	}

	verifyCmd := &cobra.Command{
		Use:   "verify LOG",
		Short: "Verify audit log integrity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditVerify(cmd.OutOrStdout(), args[0], !a.noColor)
		},
	}

	var num int
	tailCmd := &cobra.Command{
		Use:   "tail LOG",
		Short: "Show recent audit events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditTail(cmd.OutOrStdout(), args[0], num, !a.noColor)
		},
	}
	tailCmd.Flags().IntVarP(&num, "num", "n", 10, "number of events to show")

	cmd.AddCommand(verifyCmd, tailCmd)
	return cmd
}

func runAuditVerify(w io.Writer, path string, color bool) error {
	fmt.Fprintf(w, "Verifying audit log: %s\n\n", path)

	count, err := audit.VerifyChain(path)
	if err != nil {
		fmt.Fprintln(w, cli.Colorize(color, cli.ColorRed, "VERIFICATION FAILED"))
		fmt.Fprintf(w, "  Valid events: %d\n", count)
		fmt.Fprintf(w, "  Error: %s\n", err)
		return fmt.Errorf("audit log verification failed: %w", err)
	}

	fmt.Fprintln(w, cli.Colorize(color, cli.ColorGreen, "VERIFICATION PASSED"))
	fmt.Fprintf(w, "  Total events: %d\n", count)
	return nil
}

func runAuditTail(w io.Writer, path string, num int, color bool) error {
	events, err := audit.ReadEvents(path)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(w, "Audit log is empty")
		return nil
	}
	if num > 0 && len(events) > num {
		events = events[len(events)-num:]
	}
	for _, e := range events {
		printEvent(w, e, color)
	}
	return nil
}

func printEvent(w io.Writer, e *audit.Event, color bool) {
	result := string(e.Result)
	if color {
		if e.Result == audit.ResultFailure {
			result = cli.FormatStatus("failed")
		} else {
			result = cli.FormatStatus("ok")
		}
	}

	fmt.Fprintf(w, "[%s] %s %s\n", e.Timestamp, result, e.EventType)
	fmt.Fprintf(w, "    Actor:   %s@%s\n", e.Actor.ID, e.Actor.Host)
	if e.Object.Type != "" {
		fmt.Fprintf(w, "    Object:  %s serial=%s subject=%s\n", e.Object.Type, e.Object.Serial, e.Object.Subject)
	}
	if e.Context.CommonName != "" {
		fmt.Fprintf(w, "    CN:      %s\n", e.Context.CommonName)
	}
	if e.Context.Stage != "" || e.Context.Reason != "" {
		fmt.Fprintf(w, "    Failure: stage=%s %s\n", e.Context.Stage, e.Context.Reason)
	}
}
