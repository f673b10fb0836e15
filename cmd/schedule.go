package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stator-sim/stator-sim/sim"
	"github.com/stator-sim/stator-sim/sim/dataset"
)

var (
	datasetPath string // Path to the YAML dataset
	startAt     string // Simulation start timestamp
	shiftHours  int    // Override: shift length (10 or 12)
	workingDays string // Override: comma-separated working days
	taktMinutes int    // Override: default takt in minutes
	noHotList   bool   // Ignore the dataset's hot list
	noAlternate bool   // Disable the rubber-alternation admission heuristic
	outputPath  string // Where to write the scheduled-order YAML ("-" = stdout)
)

// operationReport is the YAML shape of one station interval.
type operationReport struct {
	Operation  string  `yaml:"operation"`
	Start      string  `yaml:"start"`
	End        string  `yaml:"end"`
	Resource   string  `yaml:"resource,omitempty"`
	CycleHours float64 `yaml:"cycle_hours"`
}

// orderReport is the YAML shape of one scheduled order.
type orderReport struct {
	WONumber       string            `yaml:"wo_number"`
	PartNumber     string            `yaml:"part_number"`
	Customer       string            `yaml:"customer,omitempty"`
	Priority       string            `yaml:"priority"`
	IsReline       bool              `yaml:"is_reline"`
	AssignedCore   string            `yaml:"assigned_core"`
	RubberType     string            `yaml:"rubber_type,omitempty"`
	PlannedMachine string            `yaml:"planned_machine,omitempty"`
	BlastDate      string            `yaml:"blast_date"`
	CompletionDate string            `yaml:"completion_date"`
	TurnaroundDays *int              `yaml:"turnaround_days,omitempty"`
	OnTime         bool              `yaml:"on_time"`
	Operations     []operationReport `yaml:"operations"`
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline simulation over a dataset",
	Long:  "Load a YAML dataset (orders, process map, core inventory, optional hot list), run one discrete-event scheduling pass, and report the resulting per-order timelines.",
	Run: func(cmd *cobra.Command, args []string) {
		ds, err := dataset.Load(datasetPath)
		if err != nil {
			logrus.Fatalf("Failed to load dataset: %v", err)
		}

		cfg, err := buildCalendar(ds)
		if err != nil {
			logrus.Fatalf("Calendar configuration: %v", err)
		}

		orders, err := ds.BuildOrders()
		if err != nil {
			logrus.Fatalf("Invalid orders: %v", err)
		}
		var hotList []sim.HotListEntry
		if !noHotList {
			if hotList, err = ds.BuildHotList(); err != nil {
				logrus.Fatalf("Invalid hot list: %v", err)
			}
		}

		engine, err := sim.New(orders, ds.BuildProcessMap(), ds.BuildInventory(), cfg)
		if err != nil {
			logrus.Fatalf("Engine setup failed: %v", err)
		}
		engine.Policy.AlternateRubber = !noAlternate

		start, err := resolveStart(&cfg)
		if err != nil {
			logrus.Fatalf("Invalid start time: %v", err)
		}

		wallStart := time.Now()
		scheduled, err := engine.Schedule(start, hotList)
		if err != nil {
			logrus.Fatalf("Scheduling failed: %v", err)
		}
		logrus.Infof("run took %s", time.Since(wallStart).Round(time.Millisecond))

		engine.Summary().Log()
		for _, p := range engine.PendingCore {
			logrus.Warnf("pending core: %s (%s): %s", p.Order.WONumber, p.Order.PartNumber, p.Reason)
		}
		for _, shortage := range engine.HotListShortages {
			logrus.Warnf("hot list core shortage: %s needs core %d", shortage.WONumber, shortage.CoreNumberNeeded)
		}

		if outputPath != "" {
			if err := writeReport(scheduled, outputPath); err != nil {
				logrus.Fatalf("Failed to write output: %v", err)
			}
		}
	},
}

// buildCalendar converts the dataset's calendar section and applies any
// CLI overrides on top of it.
func buildCalendar(ds *dataset.Dataset) (sim.CalendarConfig, error) {
	if shiftHours == 0 && workingDays == "" && taktMinutes == 0 {
		return ds.Calendar.BuildCalendar()
	}

	base := ds.Calendar
	if base == nil {
		base = &dataset.CalendarSpec{}
	}
	spec := *base
	if shiftHours != 0 {
		spec.ShiftHours = shiftHours
	}
	if taktMinutes != 0 {
		spec.TaktMinutes = taktMinutes
	}
	if workingDays != "" {
		spec.WorkingDays = strings.Split(workingDays, ",")
	}
	return spec.BuildCalendar()
}

// resolveStart parses --start, or aligns "now" to the next open instant
// on the calendar when the flag is absent.
func resolveStart(cfg *sim.CalendarConfig) (time.Time, error) {
	if startAt != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
			if t, err := time.Parse(layout, startAt); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", startAt)
	}
	return cfg.NextUnblocked(time.Now().Truncate(time.Minute), false)
}

func writeReport(scheduled []*sim.ScheduledOrder, path string) error {
	reports := make([]orderReport, 0, len(scheduled))
	for _, o := range scheduled {
		r := orderReport{
			WONumber:       o.WONumber,
			PartNumber:     o.PartNumber,
			Customer:       o.Customer,
			Priority:       o.Priority,
			IsReline:       o.IsReline,
			AssignedCore:   o.AssignedCore,
			RubberType:     o.RubberType,
			PlannedMachine: o.PlannedMachine,
			BlastDate:      o.BlastDate.Format(time.RFC3339),
			CompletionDate: o.CompletionDate.Format(time.RFC3339),
			TurnaroundDays: o.TurnaroundDays,
			OnTime:         o.OnTime,
		}
		for _, op := range o.Operations {
			r.Operations = append(r.Operations, operationReport{
				Operation:  op.Name,
				Start:      op.Start.Format(time.RFC3339),
				End:        op.End.Format(time.RFC3339),
				Resource:   op.Resource,
				CycleHours: op.CycleHours,
			})
		}
		reports = append(reports, r)
	}

	data, err := yaml.Marshal(reports)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	scheduleCmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to the YAML dataset file")
	scheduleCmd.Flags().StringVar(&startAt, "start", "", "Simulation start time (RFC3339 or YYYY-MM-DD); default: next open instant from now")
	scheduleCmd.Flags().IntVar(&shiftHours, "shift-hours", 0, "Override shift length (10 or 12)")
	scheduleCmd.Flags().StringVar(&workingDays, "working-days", "", "Override working days, e.g. mon,tue,wed,thu")
	scheduleCmd.Flags().IntVar(&taktMinutes, "takt", 0, "Override default takt time in minutes")
	scheduleCmd.Flags().BoolVar(&noHotList, "no-hot-list", false, "Ignore the dataset's hot list")
	scheduleCmd.Flags().BoolVar(&noAlternate, "no-alternate-rubber", false, "Disable the rubber-alternation admission preference")
	scheduleCmd.Flags().StringVar(&outputPath, "output", "", "Write scheduled orders as YAML to this path (\"-\" for stdout)")
	_ = scheduleCmd.MarkFlagRequired("dataset")

	rootCmd.AddCommand(scheduleCmd)
}
