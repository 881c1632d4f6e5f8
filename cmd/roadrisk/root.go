package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/playperu/roadrisk/internal/oracle"
)

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "roadrisk",
		Short:        "Road accident risk quiz",
		Long:         "roadrisk: guess which of two roads is riskier, score predictions and browse the leaderboard.",
		SilenceUsage: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().String("model", "", "Path to an exported model JSON (default: embedded baseline)")
	root.PersistentFlags().String("remote", "", "Base URL of a roadrisk server to predict with instead of a local model")
	root.PersistentFlags().Duration("timeout", 2*time.Second, "Per-request timeout for --remote")

	root.AddCommand(newPlayCmd())
	root.AddCommand(newPredictCmd())
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newLeaderboardCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// resolveOracle returns the remote oracle when --remote is set, then a
// --model file, then the embedded baseline.
func resolveOracle(cmd *cobra.Command) (oracle.Oracle, error) {
	if url, _ := cmd.Flags().GetString("remote"); url != "" {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		return oracle.NewRemote(url, timeout), nil
	}
	if path, _ := cmd.Flags().GetString("model"); path != "" {
		return oracle.LoadModel(path)
	}
	return oracle.DefaultModel(), nil
}
