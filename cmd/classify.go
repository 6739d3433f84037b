package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/actorflow/partc/ir/netfile"
	"github.com/actorflow/partc/partition"
)

var classifyNetwork string

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Print the partition attribute classification of every instance",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		net, err := netfile.Load(classifyNetwork)
		if err != nil {
			logrus.Fatalf("Failed to load network: %v", err)
		}
		for _, inst := range net.Instances() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", inst.Name, partition.Classify(inst))
		}
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyNetwork, "network", "", "Network description (.yaml, .yml or .hcl)")
	_ = classifyCmd.MarkFlagRequired("network")

	rootCmd.AddCommand(classifyCmd)
}
