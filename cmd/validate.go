package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stator-sim/stator-sim/sim"
	"github.com/stator-sim/stator-sim/sim/dataset"
)

var validateDatasetPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a dataset without running a simulation",
	Long:  "Load a YAML dataset and report orders that would be excluded as pending-core, plus hot-list entries that reference unknown work orders.",
	Run: func(cmd *cobra.Command, args []string) {
		ds, err := dataset.Load(validateDatasetPath)
		if err != nil {
			logrus.Fatalf("Failed to load dataset: %v", err)
		}

		cfg, err := ds.Calendar.BuildCalendar()
		if err != nil {
			logrus.Fatalf("Calendar configuration: %v", err)
		}
		orders, err := ds.BuildOrders()
		if err != nil {
			logrus.Fatalf("Invalid orders: %v", err)
		}
		hotList, err := ds.BuildHotList()
		if err != nil {
			logrus.Fatalf("Invalid hot list: %v", err)
		}

		engine, err := sim.New(orders, ds.BuildProcessMap(), ds.BuildInventory(), cfg)
		if err != nil {
			logrus.Fatalf("Engine setup failed: %v", err)
		}

		pending := engine.ValidateInputs()
		for _, p := range pending {
			logrus.Warnf("pending core: %s (%s): %s", p.Order.WONumber, p.Order.PartNumber, p.Reason)
		}

		known := make(map[string]bool, len(orders))
		for _, o := range orders {
			known[o.WONumber] = true
		}
		unknownHot := 0
		for _, e := range hotList {
			if !known[e.WONumber] {
				logrus.Warnf("hot list entry %s does not match any order", e.WONumber)
				unknownHot++
			}
		}

		logrus.Infof("dataset: %d orders, %d process map rows, %d core numbers, %d hot list entries",
			len(ds.Orders), len(ds.ProcessMap), len(ds.CoreInventory), len(ds.HotList))
		logrus.Infof("validation: %d pending-core orders, %d unmatched hot list entries", len(pending), unknownHot)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateDatasetPath, "dataset", "", "Path to the YAML dataset file")
	_ = validateCmd.MarkFlagRequired("dataset")

	rootCmd.AddCommand(validateCmd)
}
