// RateBoard tracks crypto and fiat rates against the ruble and serves
// interval charts through a Telegram bot.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"RateBoard/internal/calculator"
	"RateBoard/internal/collector"
	"RateBoard/internal/config"
	"RateBoard/internal/model"
	"RateBoard/internal/series"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

var cfg *config.Config

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "rateboard",
	Short:         "RUB exchange rate dashboard and Telegram bot",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		flagPath, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.Load(config.ResolvePath(flagPath))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: $CONFIG_PATH or "+config.DefaultPath+")")

	for _, c := range []*cobra.Command{seriesCmd, statsCmd} {
		c.Flags().StringP("interval", "i", string(model.All), "interval: 1m, 6m, 1y, 3y, all")
		c.Flags().StringP("file", "f", "", "snapshot file (default: sources.snapshot_file)")
	}

	rootCmd.AddCommand(versionCmd, runCmd, seriesCmd, statsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "RateBoard %s (%s)\n", version, commit)
	},
}

var seriesCmd = &cobra.Command{
	Use:   "series CODE",
	Short: "Print the labeled series of a currency from the snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, iv, err := loadRecord(cmd, args[0])
		if err != nil {
			return err
		}
		res := series.Compute(rec, iv)
		out := cmd.OutOrStdout()
		for i := range res.Labels {
			fmt.Fprintf(out, "%s\t%.4f\n", res.Labels[i], res.Values[i])
		}
		if flags := seriesFlags(res); flags != "" {
			fmt.Fprintf(out, "# %s\n", flags)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats CODE",
	Short: "Print mean, median and outlier count of a currency's series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, iv, err := loadRecord(cmd, args[0])
		if err != nil {
			return err
		}
		res := series.Compute(rec, iv)
		st := calculator.ComputeStats(res.Values)
		out := cmd.OutOrStdout()
		if st.Insufficient {
			fmt.Fprintf(out, "%s %s: insufficient data\n", rec.Code, iv)
			return nil
		}
		fmt.Fprintf(out, "%s %s: points=%d mean=%.4f median=%.4f outliers=%d\n",
			rec.Code, iv, res.Len(), st.Mean, st.Median, st.Outliers)
		return nil
	},
}

// loadRecord reads one currency record from the snapshot named by --file.
func loadRecord(cmd *cobra.Command, code string) (*model.CurrencyRecord, model.Interval, error) {
	ivFlag, _ := cmd.Flags().GetString("interval")
	iv, err := model.ParseInterval(ivFlag)
	if err != nil {
		return nil, "", err
	}
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		path = cfg.Sources.SnapshotFile
	}
	recs, err := collector.NewSnapshotFetcher(path).Load()
	if err != nil {
		return nil, "", err
	}
	code = strings.ToUpper(code)
	rec, ok := recs[code]
	if !ok {
		return nil, "", fmt.Errorf("currency %s not found in %s", code, path)
	}
	return rec, iv, nil
}

func seriesFlags(res model.SeriesResult) string {
	var flags []string
	if res.InsufficientData {
		flags = append(flags, "insufficient data")
	}
	if res.Degraded {
		flags = append(flags, "degraded")
	}
	if res.Synthetic {
		flags = append(flags, "synthetic")
	}
	if res.LengthMismatch {
		flags = append(flags, "length mismatch")
	}
	return strings.Join(flags, ", ")
}
