package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hotdock/internal/ipc"
)

func newActionCommands(ctx *commandContext) []*cobra.Command {
	var triggerJSON bool
	triggerCmd := &cobra.Command{
		Use:   "trigger",
		Short: "Run a hotplug pass now and print its report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Trigger()
				if err != nil {
					return err
				}
				if triggerJSON {
					return writeJSON(cmd, resp.Report)
				}
				stdout := cmd.OutOrStdout()
				renderPass(stdout, &resp.Report, shouldColorize(stdout))
				return nil
			})
		},
	}
	triggerCmd.Flags().BoolVar(&triggerJSON, "json", false, "Output JSON")

	var reconcileJSON bool
	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Fold a fresh i3 workspace snapshot into the tracked state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Reconcile()
				if err != nil {
					return err
				}
				if reconcileJSON {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Added: %s\n", formatNums(resp.Added))
				fmt.Fprintf(stdout, "Remembered: %s\n", formatNums(resp.Remembered))
				fmt.Fprintf(stdout, "Cleared: %s\n", formatNums(resp.Cleared))
				fmt.Fprintf(stdout, "Unchanged: %d\n", resp.Unchanged)
				return nil
			})
		},
	}
	reconcileCmd.Flags().BoolVar(&reconcileJSON, "json", false, "Output JSON")

	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Re-read the config file in the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Reload()
				if err != nil {
					return err
				}
				if !resp.Reloaded {
					return fmt.Errorf("reload failed: %s", resp.Message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Config reloaded")
				return nil
			})
		},
	}

	return []*cobra.Command{triggerCmd, reconcileCmd, reloadCmd}
}
