package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hotdock/internal/ipc"
)

func newInspectCommands(ctx *commandContext) []*cobra.Command {
	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and orchestrator status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, err := ipc.Dial(ctx.socketPath())
			if err != nil {
				if !errors.Is(err, syscall.ENOENT) && !errors.Is(err, syscall.ECONNREFUSED) {
					return wrapDialError(err, ctx.socketPath())
				}
				if statusJSON {
					return writeJSON(cmd, ipc.StatusResponse{})
				}
				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("hotdock", statusWarn, "Not running (run `hotdock start`)", colorize))
				return nil
			}
			defer client.Close()
			status, err := client.Status()
			if err != nil {
				return err
			}
			if statusJSON {
				return writeJSON(cmd, status)
			}
			renderStatus(stdout, status, shouldColorize(stdout))
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output JSON")

	var workspacesJSON bool
	workspacesCmd := &cobra.Command{
		Use:     "workspaces",
		Aliases: []string{"ws"},
		Short:   "List tracked workspaces and their remembered outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Workspaces()
				if err != nil {
					return err
				}
				if workspacesJSON {
					return writeJSON(cmd, resp.Workspaces)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Workspaces) == 0 {
					fmt.Fprintln(stdout, "No workspaces tracked")
					return nil
				}
				fmt.Fprint(stdout, renderTable(
					[]string{"Num", "Output", "Focused", "Remembered", "Was Focused"},
					workspaceRows(resp.Workspaces),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	workspacesCmd.Flags().BoolVar(&workspacesJSON, "json", false, "Output JSON")

	var outputsJSON bool
	outputsCmd := &cobra.Command{
		Use:   "outputs",
		Short: "Probe RandR outputs through the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Outputs()
				if err != nil {
					return err
				}
				if outputsJSON {
					return writeJSON(cmd, resp.Outputs)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Outputs) == 0 {
					fmt.Fprintln(stdout, "No outputs reported")
					return nil
				}
				fmt.Fprint(stdout, renderTable(
					[]string{"Output", "Connected", "RandR", "EDID Bytes"},
					outputRows(resp.Outputs),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	outputsCmd.Flags().BoolVar(&outputsJSON, "json", false, "Output JSON")

	var layoutJSON bool
	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "Preview the xrandr arguments the next pass would run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Layout()
				if err != nil {
					return err
				}
				if layoutJSON {
					return writeJSON(cmd, resp.Args)
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatLayout(ctx.configValue().Display.XrandrBinary, resp.Args))
				return nil
			})
		},
	}
	layoutCmd.Flags().BoolVar(&layoutJSON, "json", false, "Output JSON")

	return []*cobra.Command{statusCmd, workspacesCmd, outputsCmd, layoutCmd}
}

func renderStatus(w io.Writer, status *ipc.StatusResponse, colorize bool) {
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(w, line)
	}
	if status.Running {
		fmt.Fprintln(w, renderStatusLine("hotdock", statusOK, fmt.Sprintf("Running (pid %d, up %s)", status.PID, formatUptime(status.StartedAt)), colorize))
	} else {
		fmt.Fprintln(w, renderStatusLine("hotdock", statusWarn, "Stopped", colorize))
	}
	if status.ConfigPath != "" {
		fmt.Fprintln(w, renderStatusLine("Config", statusInfo, status.ConfigPath, colorize))
	} else {
		fmt.Fprintln(w, renderStatusLine("Config", statusInfo, "Defaults", colorize))
	}
	if status.HotplugRunning {
		fmt.Fprintln(w, renderStatusLine("Hotplug monitor", statusOK, fmt.Sprintf("Active (%d events)", status.HotplugEvents), colorize))
	} else {
		fmt.Fprintln(w, renderStatusLine("Hotplug monitor", statusWarn, "Inactive (use `hotdock trigger`)", colorize))
	}
	fmt.Fprintln(w)

	for _, line := range renderSectionHeader("Orchestrator", colorize) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, renderStatusLine("State", stateKind(status.State), stateLabel(status.State), colorize))
	fmt.Fprintln(w, renderStatusLine("Debounce armed", statusInfo, yesNo(status.DebounceArmed), colorize))
	fmt.Fprintln(w, renderStatusLine("Rerun pending", statusInfo, yesNo(status.RerunPending), colorize))
	fmt.Fprintln(w, renderStatusLine("Passes", statusInfo, strconv.FormatInt(status.Passes, 10), colorize))
	primary := status.Primary
	if primary == "" {
		primary = "(first connected)"
	}
	fmt.Fprintln(w, renderStatusLine("Primary", statusInfo, primary, colorize))
	if status.Position != "" {
		fmt.Fprintln(w, renderStatusLine("Positioned output", statusInfo, status.Position, colorize))
	}
	fmt.Fprintln(w, renderStatusLine("Workspaces", statusInfo, fmt.Sprintf("%d tracked, %d awaiting reconnect", status.Workspaces, status.Pending), colorize))

	if status.LastPass == nil {
		return
	}
	fmt.Fprintln(w)
	for _, line := range renderSectionHeader("Last Pass", colorize) {
		fmt.Fprintln(w, line)
	}
	renderPass(w, status.LastPass, colorize)
}

func renderPass(w io.Writer, pass *ipc.PassReport, colorize bool) {
	kind := statusOK
	result := "OK"
	switch {
	case pass.Cancelled:
		kind, result = statusWarn, "Cancelled"
	case len(pass.Failures) > 0:
		kind, result = statusWarn, fmt.Sprintf("%d failure(s)", len(pass.Failures))
	}
	fmt.Fprintln(w, renderStatusLine("Pass", kind, fmt.Sprintf("%s %s", shortPassID(pass.ID), result), colorize))
	fmt.Fprintln(w, renderStatusLine("Trigger", statusInfo, pass.Trigger, colorize))
	fmt.Fprintln(w, renderStatusLine("Duration", statusInfo, pass.FinishedAt.Sub(pass.StartedAt).Round(time.Millisecond).String(), colorize))
	fmt.Fprintln(w, renderStatusLine("Remembered", statusInfo, formatNums(pass.Remembered), colorize))
	fmt.Fprintln(w, renderStatusLine("Restored", statusInfo, formatNums(pass.Cleared), colorize))
	for _, command := range pass.Commands {
		fmt.Fprintln(w, renderStatusLine("Command", statusInfo, command, colorize))
	}
	for _, failure := range pass.Failures {
		fmt.Fprintln(w, renderStatusLine(stateLabel(failure.Step), statusError, failure.Message, colorize))
	}
}

func workspaceRows(list []ipc.Workspace) [][]string {
	rows := make([][]string, 0, len(list))
	for _, ws := range list {
		remembered := ws.RememberedOutput
		if remembered == "" {
			remembered = "-"
		}
		rows = append(rows, []string{
			strconv.FormatInt(ws.Num, 10),
			ws.Output,
			yesNo(ws.Focused),
			remembered,
			yesNo(ws.WasFocused),
		})
	}
	return rows
}

func outputRows(list []ipc.Output) [][]string {
	rows := make([][]string, 0, len(list))
	for _, out := range list {
		rows = append(rows, []string{
			out.Name,
			yesNo(out.Connected),
			yesNo(out.RandRConnected),
			strconv.Itoa(out.EDIDBytes),
		})
	}
	return rows
}

func formatLayout(binary string, args []string) string {
	if len(args) == 0 {
		return "(no outputs; xrandr would not run)"
	}
	if binary == "" {
		binary = "xrandr"
	}
	return binary + " " + strings.Join(args, " ")
}

func formatNums(nums []int64) string {
	if len(nums) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(nums))
	for _, n := range nums {
		parts = append(parts, strconv.FormatInt(n, 10))
	}
	return strings.Join(parts, ", ")
}

func formatUptime(started time.Time) string {
	if started.IsZero() {
		return "unknown"
	}
	return time.Since(started).Round(time.Second).String()
}

func shortPassID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
