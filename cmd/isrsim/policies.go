package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/isrsim/timing/pipeline"
)

func newPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List the processor settings and scheduling policies.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			fmt.Fprintln(w, "Setting\tPolicy\tDescription")
			for setting := 1; setting <= 4; setting++ {
				config, err := pipeline.SettingConfig(setting, 2)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%d\t%v\t%s\n",
					setting, config.Policy, pipeline.SettingDescription(setting))
			}

			return w.Flush()
		},
	}
}
