package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"dronefeed/internal/model"
	"dronefeed/internal/opt"
	"dronefeed/internal/scenario"
)

type solveOutput struct {
	Name       string         `json:"name,omitempty"`
	Strategy   string         `json:"strategy"`
	Trips      []model.Trip   `json:"trips"`
	Credited   []int          `json:"credited"`
	Distance   float64        `json:"distance"`
	Importance float64        `json:"importance"`
	Score      float64        `json:"score"`
	Stats      map[string]int `json:"stats"`
	Submission string         `json:"submission"`
}

// NewSolveCommand creates the solve command
func NewSolveCommand() *cobra.Command {
	var (
		input     string
		output    string
		level     int
		strategy  string
		seed      int64
		twoOpt    int
		precision int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Plan trips for a scenario file",
		Long: `Plan trips for a scenario file and print the submission.

The input format follows the file extension: .txt for the competition text
format, .yaml/.yml or .json for structured scenarios.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(input)
			if err != nil {
				return err
			}
			o := cfg.Planner.Options()
			o.Logger = log
			if sc.CruiseAltitude == 0 {
				sc.CruiseAltitude = cfg.Planner.CruiseAltitude
			}
			if level > 0 {
				presets, err := loadPresets()
				if err != nil {
					return err
				}
				p, err := opt.PresetFor(level, presets)
				if err != nil {
					return err
				}
				p.Apply(&sc, &o)
			}
			if cmd.Flags().Changed("strategy") {
				if o.Strategy, err = opt.ParseStrategy(strategy); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("seed") {
				o.Seed = seed
			}
			if cmd.Flags().Changed("two-opt") {
				o.TwoOptPasses = twoOpt
			}
			if err := scenario.Validate(&sc); err != nil {
				return err
			}

			res, err := opt.Solve(sc, o)
			if err != nil {
				return err
			}
			opt.RecordMetrics("cli", res)
			log.Info("plan ready",
				slog.String("scenario", sc.Name),
				slog.String("strategy", string(res.Strategy)),
				slog.Int("trips", len(res.Trips)),
				slog.Int("credited", len(res.Credited)),
				slog.Float64("score", res.Score))

			submission := scenario.FormatSubmission(scenario.Paths(res.Trips), precision)
			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if asJSON {
				return writeSolveJSON(w, sc, res, submission)
			}
			_, err = fmt.Fprintln(w, submission)
			return err
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Scenario file (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to this file instead of stdout")
	cmd.Flags().IntVar(&level, "level", 0, "Apply the preset for this competition level")
	cmd.Flags().StringVar(&strategy, "strategy", "auto", "Planning strategy: auto, greedy, multi, segmented, avoid, cluster")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for the cluster planner")
	cmd.Flags().IntVar(&twoOpt, "two-opt", 0, "2-opt passes over each trip")
	cmd.Flags().IntVar(&precision, "precision", 0, "Decimal places in the submission")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full plan as JSON")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func writeSolveJSON(w io.Writer, sc model.Scenario, res opt.Result, submission string) error {
	cost := opt.CostModel{Altitude: sc.CruiseAltitude}
	out := solveOutput{
		Name:       sc.Name,
		Strategy:   string(res.Strategy),
		Trips:      make([]model.Trip, len(res.Trips)),
		Credited:   make([]int, len(res.Credited)),
		Distance:   res.Distance,
		Importance: res.Importance,
		Score:      res.Score,
		Stats:      res.Stats.Map(),
		Submission: submission,
	}
	for i, r := range res.Trips {
		out.Trips[i] = model.TripOut(r, cost.PathCost(r.Stops))
	}
	for i, id := range res.Credited {
		out.Credited[i] = int(id)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func loadScenario(path string) (model.Scenario, error) {
	sc, err := scenario.Load(path)
	if err != nil {
		return sc, fmt.Errorf("load %s: %w", path, err)
	}
	return sc, nil
}

func loadPresets() ([]opt.Preset, error) {
	if cfg.Planner.PresetsFile == "" {
		return opt.DefaultPresets(), nil
	}
	return scenario.LoadPresets(cfg.Planner.PresetsFile)
}
