package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/actorflow/partc/diag"
	"github.com/actorflow/partc/ir/netfile"
	"github.com/actorflow/partc/profile"
)

var (
	profileNetwork string
	profilePath    string
	profileLenient bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Print the cost model joined from an execution profile",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		net, err := netfile.Load(profileNetwork)
		if err != nil {
			logrus.Fatalf("Failed to load network: %v", err)
		}
		costs, err := profile.Load(profilePath, net, diag.NewLogReporter(nil), profile.Options{Lenient: profileLenient})
		if err != nil {
			logrus.Fatalf("Failed to load profile: %v", err)
		}
		out := cmd.OutOrStdout()
		for _, name := range costs.InstanceNames() {
			ticks, _ := costs.InstanceCost(name)
			fmt.Fprintf(out, "%s\t%s ticks\n", name, humanize.Comma(ticks))
		}
		for _, key := range costs.ConnectionKeys() {
			bw, _ := costs.Bandwidth(key)
			fmt.Fprintf(out, "%s\t%s\n", key, humanize.Comma(bw))
		}
		fmt.Fprintf(out, "total\t%s ticks\n", humanize.Comma(costs.TotalCost()))
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileNetwork, "network", "", "Network description (.yaml, .yml or .hcl)")
	profileCmd.Flags().StringVar(&profilePath, "profile-path", "", "Execution profile (.xml, .yaml)")
	profileCmd.Flags().BoolVar(&profileLenient, "lenient", false, "Keep the first of duplicated entries instead of aborting")
	_ = profileCmd.MarkFlagRequired("network")
	_ = profileCmd.MarkFlagRequired("profile-path")

	rootCmd.AddCommand(profileCmd)
}
