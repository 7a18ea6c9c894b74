package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agroscope/agroscope/pkg/filter"
	"github.com/agroscope/agroscope/pkg/flowgraph"
	"github.com/agroscope/agroscope/pkg/optimize"
	"github.com/agroscope/agroscope/pkg/surface"
)

func newExportCmd(gf *globalFlags) *cobra.Command {
	var (
		sel       selectionFlags
		plant     string
		topology  string
		outPath   string
		graphPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an analysis to an XLSX workbook",
		Long: `Runs the analysis and writes a workbook with summary, breakdown, per-plant,
per-region and flow sheets. --graph also saves the flow graph as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), gf, exportOpts{
				sel:       sel,
				plant:     plant,
				topology:  topology,
				outPath:   outPath,
				graphPath: graphPath,
			})
		},
	}

	sel.register(cmd)
	cmd.Flags().StringVar(&plant, "plant", "", "Plant currently producing (required)")
	cmd.Flags().StringVar(&topology, "topology", "", "Flow graph topology: chain or fanout")
	cmd.Flags().StringVar(&outPath, "out", "agroscope.xlsx", "Workbook path")
	cmd.Flags().StringVar(&graphPath, "graph", "", "Also write the flow graph JSON to this path")
	_ = cmd.MarkFlagRequired("plant")

	return cmd
}

type exportOpts struct {
	sel       selectionFlags
	plant     string
	topology  string
	outPath   string
	graphPath string
}

func runExport(ctx context.Context, gf *globalFlags, opts exportOpts) error {
	report, err := runPipeline(ctx, gf, opts.sel, opts.plant, opts.topology)
	if err != nil {
		return err
	}

	if err := surface.ExportWorkbook(opts.outPath, report); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Workbook written to %s\n", opts.outPath)

	if opts.graphPath != "" {
		if err := flowgraph.SaveGraph(opts.graphPath, report.Graph); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Flow graph written to %s\n", opts.graphPath)
	}
	return nil
}

func newChartCmd(gf *globalFlags) *cobra.Command {
	var (
		sel     selectionFlags
		kind    string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render a bar chart as PNG",
		Long: `Renders the cost per plant for a fully selected row (--kind plants) or the
average cost per region for the selected business unit (--kind regions).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChart(cmd.Context(), gf, chartOpts{sel: sel, kind: kind, outPath: outPath})
		},
	}

	sel.register(cmd)
	cmd.Flags().StringVar(&kind, "kind", "plants", "Chart: plants or regions")
	cmd.Flags().StringVar(&outPath, "out", "", "PNG path (required)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

type chartOpts struct {
	sel     selectionFlags
	kind    string
	outPath string
}

func runChart(ctx context.Context, gf *globalFlags, opts chartOpts) error {
	ds, err := openDataset(ctx, gf, opts.sel.data, opts.sel.sheet)
	if err != nil {
		return err
	}
	p := gf.cfg.Pipeline()
	state := opts.sel.state()

	var s optimize.Series
	switch opts.kind {
	case "plants":
		rows, err := filter.ResolveAll(ds, p.Hierarchy, state)
		if err != nil {
			return selectionHint(ds, p.Hierarchy, state, err)
		}
		if s, err = optimize.PlantSeries(rows, p.Optimizer.Plants); err != nil {
			return err
		}
	case "regions":
		if s, err = p.RegionAverages(ds, state); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown chart kind %q (want plants or regions)", opts.kind)
	}

	if err := surface.SaveChart(opts.outPath, s, surface.DefaultChartSize); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Chart written to %s\n", opts.outPath)
	return nil
}
