package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newNamespacesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "namespaces",
		Short: "List the namespaces and root elements parsers are registered for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAMESPACE\tROOT\tSINCE\tUNTIL")
			for _, ns := range a.dispatcher.Registry().Namespaces() {
				uri, until := ns.URI, ns.Until.String()
				if uri == "" {
					uri = "(none)"
				}
				if ns.Until.IsZero() {
					until = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", uri, ns.Root, ns.Since, until)
			}
			fmt.Fprintf(tw, "\nlatest version: %s\n", a.dispatcher.Options().LatestVersion)
			return tw.Flush()
		},
	}
}
