package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/actorflow/partc/config"
	"github.com/actorflow/partc/diag"
	_ "github.com/actorflow/partc/milp/bnb"
	"github.com/actorflow/partc/partition"
	"github.com/actorflow/partc/pipeline"
)

var partitionViper = config.NewViper()

// partitionCmd partitions a network and hands each partition to the dump backend
var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Partition a network by attributes or by an optimal profile-driven assignment",
	Long: "Partition a network into hw and sw sub-networks. Settings come from flags, " +
		config.EnvPrefix + "_* environment variables and an optional --settings YAML file.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s, err := config.Load(partitionViper)
		if err != nil {
			logrus.Fatalf("Configuration failed: %v", err)
		}
		logrus.Infof("Partitioning %s with the %s strategy", s.Network, s.Strategy)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		rep := diag.NewLogReporter(nil)
		res, err := pipeline.Run(ctx, s, rep, nil)
		if res == nil {
			logrus.Fatalf("Partitioning failed: %v", err)
		}
		printPartitions(cmd, res)
		if err != nil {
			logrus.Fatalf("Backends failed: %v", err)
		}
		if n := rep.ErrorCount(); n > 0 {
			logrus.Warnf("Partitioning finished with %d errors", n)
		}
	},
}

func printPartitions(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "task %s\n", res.Task.Identifier())
	for _, kind := range partition.StorableKinds {
		n, err := res.Task.Partition(kind)
		if err != nil || n == nil {
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", kind, strings.Join(n.InstanceNames(), ", "))
	}
	if res.Assignment.Strategy == partition.StrategyProfile {
		fmt.Fprintf(out, "makespan: %d ticks (%s)\n", res.Assignment.Makespan, res.Assignment.Status)
	}
}

func init() {
	config.BindFlags(partitionCmd, partitionViper)
	rootCmd.AddCommand(partitionCmd)
}
