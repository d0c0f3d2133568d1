// regtrace replays a JSON scenario of register cache operations against a
// recording emitter and reports the resulting memory traffic. It exists to
// answer "what loads and stores does this mapping sequence cost" without
// firing up the whole translator.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halcyon-emu/halcyon/log"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "regtrace",
		Short: "FPU register cache trace tool",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		scenarioPath string
		wideSIMD     bool
		dumpState    bool
		chartPath    string
		logLevel     string
		logModules   string
	)

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Replay a scenario file and print the emitted op stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.InitLogger(logLevel)
			if logModules != "" {
				log.EnableModules(logModules)
			}

			sc, err := LoadScenario(scenarioPath)
			if err != nil {
				return err
			}
			if wideSIMD {
				sc.WideSIMD = true
			}

			res, err := Replay(sc)
			if err != nil {
				return err
			}

			for _, op := range res.Ops {
				fmt.Println(op)
			}
			stats, err := json.MarshalIndent(res.Stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Printf("stats: %s\n", stats)

			if dumpState {
				fmt.Print(res.Cache.DumpState())
			}
			if chartPath != "" {
				if err := writeChart(chartPath, sc, res); err != nil {
					return err
				}
				fmt.Printf("chart written to %s\n", chartPath)
			}
			return nil
		},
	}
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario JSON file (required)")
	runCmd.Flags().BoolVar(&wideSIMD, "neon", false, "Force the wide-SIMD capability on, overriding the scenario")
	runCmd.Flags().BoolVar(&dumpState, "dump", false, "Dump the final cache state")
	runCmd.Flags().StringVar(&chartPath, "chart", "", "Write a load/store chart to this HTML file")
	runCmd.Flags().StringVar(&logLevel, "loglevel", "info", "Log level (trace|debug|info|warn|error)")
	runCmd.Flags().StringVar(&logModules, "modules", "", "Comma-separated log modules to enable (e.g. regalloc,replay)")
	if err := runCmd.MarkFlagRequired("scenario"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(runCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
