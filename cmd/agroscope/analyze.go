package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agroscope/agroscope/pkg/analysis"
	"github.com/agroscope/agroscope/pkg/filter"
	"github.com/agroscope/agroscope/pkg/flowgraph"
	"github.com/agroscope/agroscope/pkg/surface"
)

func newChoicesCmd(gf *globalFlags) *cobra.Command {
	var (
		sel       selectionFlags
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "choices <dimension>",
		Short: "List the values available at one drill-down level",
		Long: `Narrows the dataset by the selections above the given dimension and lists
the values that may be chosen there. Selections below the dimension are ignored.`,
		Example: `  agroscope choices season --data costs.xlsx --bu India
  agroscope choices potato --data costs.csv --bu India --season Winter --region North`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChoices(cmd.Context(), gf, choicesOpts{
				sel:       sel,
				dimension: args[0],
				outputFmt: outputFmt,
			})
		},
	}

	sel.register(cmd)
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	return cmd
}

type choicesOpts struct {
	sel       selectionFlags
	dimension string
	outputFmt string
}

func runChoices(ctx context.Context, gf *globalFlags, opts choicesOpts) error {
	ds, err := openDataset(ctx, gf, opts.sel.data, opts.sel.sheet)
	if err != nil {
		return err
	}
	h := gf.cfg.Analysis.Hierarchy
	state := opts.sel.state()

	lvl, err := filter.ResolveLevel(ds, h, state, opts.dimension)
	if err != nil {
		return selectionHint(ds, h, state, err)
	}

	switch opts.outputFmt {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(lvl)
	case "text", "":
		return surface.RenderLevel(os.Stdout, lvl)
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", opts.outputFmt)
	}
}

func newAnalyzeCmd(gf *globalFlags) *cobra.Command {
	var (
		sel       selectionFlags
		plant     string
		topology  string
		outputFmt string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Find the cheapest plant for a fully selected cost row",
		Long: `Resolves the dataset to a single row, compares its per-plant costs and
reports the destination plant, the saving, the cost breakdowns, the per-plant
and per-region figures and the drill-down flow.`,
		Example: `  agroscope analyze --data costs.xlsx --bu India --season Winter --region North --potato "Variety A" --plant Channo
  agroscope analyze --plant UP --output markdown --out report.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), gf, analyzeOpts{
				sel:       sel,
				plant:     plant,
				topology:  topology,
				outputFmt: outputFmt,
				outPath:   outPath,
			})
		},
	}

	sel.register(cmd)
	cmd.Flags().StringVar(&plant, "plant", "", "Plant currently producing (required)")
	cmd.Flags().StringVar(&topology, "topology", "", "Flow graph topology: chain or fanout (default: analysis.topology from config)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text, json, markdown, html or xlsx")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the report to a file instead of stdout")
	_ = cmd.MarkFlagRequired("plant")

	return cmd
}

type analyzeOpts struct {
	sel       selectionFlags
	plant     string
	topology  string
	outputFmt string
	outPath   string
}

func runAnalyze(ctx context.Context, gf *globalFlags, opts analyzeOpts) error {
	renderer, err := surface.ForFormat(opts.outputFmt)
	if err != nil {
		return err
	}
	if opts.outputFmt == "xlsx" && opts.outPath == "" {
		return fmt.Errorf("xlsx output needs --out")
	}

	report, err := runPipeline(ctx, gf, opts.sel, opts.plant, opts.topology)
	if err != nil {
		return err
	}

	out, closeOut, err := createOutput(opts.outPath)
	if err != nil {
		return err
	}
	if err := renderer.Render(out, report); err != nil {
		_ = closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}
	if opts.outPath != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", opts.outPath)
	}
	return nil
}

// runPipeline loads the dataset and runs one analysis.
func runPipeline(ctx context.Context, gf *globalFlags, sel selectionFlags, plant, topology string) (*analysis.Report, error) {
	t, err := flowgraph.ParseTopology(firstNonEmpty(topology, gf.cfg.Analysis.Topology))
	if err != nil {
		return nil, err
	}
	ds, err := openDataset(ctx, gf, sel.data, sel.sheet)
	if err != nil {
		return nil, err
	}

	p := gf.cfg.Pipeline()
	state := sel.state()
	report, err := p.Run(ds, analysis.Request{State: state, Plant: plant, Topology: t})
	if err != nil {
		return nil, selectionHint(ds, p.Hierarchy, state, err)
	}
	return report, nil
}
