package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:     "add",
	Short:   "Start monitoring a URL",
	Example: `  cli add --name svc1 --url https://example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		url, _ := cmd.Flags().GetString("url")
		t, err := newClient(apiBase).Add(cmd.Context(), name, url)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", t.Name, t.URL)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitored URLs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := newClient(apiBase).List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tURL")
		for _, t := range ts {
			fmt.Fprintf(w, "%s\t%s\n", t.Name, t.URL)
		}
		return w.Flush()
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Stop monitoring a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := newClient(apiBase).Remove(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest state of every monitored URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ss, err := newClient(apiBase).Status(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTATUS\tCODE\tUPTIME\tLAST CHECKED\tURL")
		for _, s := range ss {
			code, uptime, last := "-", "-", "never"
			if s.StatusCode != nil {
				code = fmt.Sprint(*s.StatusCode)
			}
			if s.UptimeSeconds != nil {
				uptime = fmt.Sprintf("%gs", *s.UptimeSeconds)
			}
			if s.LastCheckedAt != nil {
				last = s.LastCheckedAt.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", s.Name, s.Status, code, uptime, last, s.URL)
		}
		return w.Flush()
	},
}

func init() {
	addCmd.Flags().String("name", "", "unique name without whitespace (required)")
	addCmd.Flags().String("url", "", "absolute http(s) URL to monitor (required)")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(addCmd, listCmd, removeCmd, statusCmd)
}
