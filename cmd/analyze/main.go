package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"Stockyard/internal/domain/models"
	"Stockyard/internal/service/dataset"
	"Stockyard/internal/services/analytics"
	"Stockyard/internal/services/features"
	"Stockyard/internal/services/forest"
	"Stockyard/internal/usecase"
	"Stockyard/pkg/util"

	"github.com/olekukonko/tablewriter"
)

func main() {
	file := flag.String("file", "", "sale records dataset (.xlsx or .csv)")
	fromStr := flag.String("from", "", "start date (YYYY-MM-DD)")
	toStr := flag.String("to", "", "end date (YYYY-MM-DD)")
	train := flag.Bool("train", false, "also train an ensemble and report fit quality")
	trees := flag.Int("trees", 0, "ensemble size override")
	flag.Parse()

	if *file == "" {
		log.Fatal("usage: analyze -file records.xlsx [-from 2024-01-01] [-to 2024-12-31] [-train]")
	}

	records, err := dataset.NewLoader().LoadFile(*file)
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}
	fmt.Printf("loaded %d sale records from %s\n\n", len(records), *file)

	from := util.ParseTimeDefault(*fromStr, time.Time{})
	to := util.ParseTimeDefault(*toStr, time.Time{})

	history := features.Derive(records)
	if len(history) == 0 {
		log.Fatal("not enough history to derive trend features (need more than 30 rows)")
	}

	res, err := analytics.Analyze(history, from, to)
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}

	printSummary(res)
	printSeasonal(res)

	if *train {
		runTraining(records, *trees)
	}
}

func printSummary(res *models.TrendAnalysis) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Window", "Rows", "Mean", "Median", "Std", "Min", "Max", "Momentum", "Slope", "R2", "Regime")
	table.Append(
		fmt.Sprintf("%s .. %s", res.From.Format("2006-01-02"), res.To.Format("2006-01-02")),
		fmt.Sprintf("%d", res.Count),
		fmt.Sprintf("%.2f", res.MeanPrice),
		fmt.Sprintf("%.2f", res.MedianPrice),
		fmt.Sprintf("%.2f", res.StdPrice),
		fmt.Sprintf("%.2f", res.MinPrice),
		fmt.Sprintf("%.2f", res.MaxPrice),
		fmt.Sprintf("%+.4f", res.RecentMomentum),
		fmt.Sprintf("%+.4f", res.TrendSlope),
		fmt.Sprintf("%.3f", res.TrendR2),
		res.Regime,
	)
	table.Render()
	fmt.Println()
}

func printSeasonal(res *models.TrendAnalysis) {
	if len(res.Seasonal) == 0 {
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Month", "Mean", "Std", "Count")
	for _, s := range res.Seasonal {
		table.Append(
			time.Month(s.Month).String(),
			fmt.Sprintf("%.2f", s.Mean),
			fmt.Sprintf("%.2f", s.Std),
			fmt.Sprintf("%d", s.Count),
		)
	}
	table.Render()
	fmt.Println()
}

func runTraining(records []models.SaleRecord, trees int) {
	cfg := forest.DefaultConfig()
	if trees > 0 {
		cfg.Trees = trees
	}
	adv := usecase.NewAdvisor(cfg)

	ctx := context.Background()
	report, err := adv.Train(ctx, records)
	if err != nil {
		log.Fatalf("train: %v", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Model", "Samples", "Features", "Members", "Train RMSE", "Fit Time")
	table.Append(
		report.ModelID,
		fmt.Sprintf("%d", report.Samples),
		fmt.Sprintf("%d", report.Features),
		fmt.Sprintf("%d", report.Members),
		fmt.Sprintf("%.3f", report.TrainRMSE),
		fmt.Sprintf("%.1fs", report.TrainSeconds),
	)
	table.Render()
	fmt.Println()

	// Show interval forecasts for the most recent rows
	tail := records
	if len(tail) > 40 {
		tail = tail[len(tail)-40:]
	}
	preds, err := adv.PredictWithConfidence(ctx, tail)
	if err != nil {
		log.Fatalf("predict: %v", err)
	}
	if len(preds) == 0 {
		return
	}
	if len(preds) > 5 {
		preds = preds[len(preds)-5:]
	}

	pt := tablewriter.NewWriter(os.Stdout)
	pt.Header("Date", "Predicted", "Lower 2.5%", "Upper 97.5%", "Range")
	for _, p := range preds {
		pt.Append(
			p.Date.Format("2006-01-02"),
			fmt.Sprintf("%.2f", p.PredictedPrice),
			fmt.Sprintf("%.2f", p.LowerBound),
			fmt.Sprintf("%.2f", p.UpperBound),
			fmt.Sprintf("%.2f", p.ConfidenceRange),
		)
	}
	pt.Render()
}
