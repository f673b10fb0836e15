// Package dataset loads the engine's input set from a single YAML
// file: orders, the part-number process map, the core inventory, an
// optional hot list, and the calendar section. It is the boundary to
// the external data-loading layer; report parsing and validation beyond
// this schema live outside the repo.
package dataset

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stator-sim/stator-sim/sim"
)

// relinePartPrefix marks reline part numbers when the order record does
// not carry an explicit flag.
const relinePartPrefix = "XN"

// dateLayouts are the accepted date formats, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// Dataset is the top-level input file.
type Dataset struct {
	Calendar      *CalendarSpec `yaml:"calendar,omitempty"`
	Orders        []OrderSpec   `yaml:"orders"`
	ProcessMap    []ProcessSpec `yaml:"process_map"`
	CoreInventory []CoreSpec    `yaml:"core_inventory"`
	HotList       []HotListSpec `yaml:"hot_list,omitempty"`
}

// CalendarSpec configures the working calendar. Zero values fall back
// to the engine defaults (Mon-Thu, 12h shifts, 30 min takt).
type CalendarSpec struct {
	WorkingDays []string           `yaml:"working_days,omitempty"`
	ShiftHours  int                `yaml:"shift_hours,omitempty"`
	TaktMinutes int                `yaml:"takt_minutes,omitempty"`
	DayConfigs  map[string]DaySpec `yaml:"day_configs,omitempty"`
}

// DaySpec is a per-weekday override.
type DaySpec struct {
	ShiftMode    string `yaml:"shift_mode,omitempty"`
	ActiveShifts string `yaml:"active_shifts,omitempty"`
	TaktMinutes  int    `yaml:"takt_minutes,omitempty"`
}

// OrderSpec is one work order row.
type OrderSpec struct {
	WONumber            string  `yaml:"wo_number"`
	PartNumber          string  `yaml:"part_number"`
	Description         string  `yaml:"description,omitempty"`
	Customer            string  `yaml:"customer,omitempty"`
	RubberType          string  `yaml:"rubber_type,omitempty"`
	IsReline            *bool   `yaml:"is_reline,omitempty"`
	IsRework            bool    `yaml:"is_rework,omitempty"`
	ReworkLeadTimeHours float64 `yaml:"rework_lead_time_hours,omitempty"`
	CreatedOn           string  `yaml:"created_on,omitempty"`
	PromiseDate         string  `yaml:"promise_date,omitempty"`
	BasicFinishDate     string  `yaml:"basic_finish_date,omitempty"`
	SerialNumber        string  `yaml:"serial_number,omitempty"`
	SpecialInstructions string  `yaml:"special_instructions,omitempty"`
	SupermarketLocation string  `yaml:"supermarket_location,omitempty"`
	DaysIdle            *int    `yaml:"days_idle,omitempty"`
}

// ProcessSpec maps a part number to its core and process durations.
type ProcessSpec struct {
	PartNumber       string   `yaml:"part_number"`
	CoreNumber       int      `yaml:"core_number"`
	RubberType       string   `yaml:"rubber_type,omitempty"`
	InjectionHours   *float64 `yaml:"injection_hours,omitempty"`
	CureHours        *float64 `yaml:"cure_hours,omitempty"`
	QuenchHours      *float64 `yaml:"quench_hours,omitempty"`
	DisassemblyHours *float64 `yaml:"disassembly_hours,omitempty"`
}

// CoreSpec lists the physical units of one core number.
type CoreSpec struct {
	CoreNumber int      `yaml:"core_number"`
	Suffixes   []string `yaml:"suffixes"`
}

// HotListSpec is one hot-list row. Row order in the file is the final
// tie break, so position is derived from the list index.
type HotListSpec struct {
	WONumber            string `yaml:"wo_number"`
	ASAP                bool   `yaml:"asap,omitempty"`
	NeedByDate          string `yaml:"need_by_date,omitempty"`
	DateReqMade         string `yaml:"date_req_made,omitempty"`
	RubberOverride      string `yaml:"rubber_override,omitempty"`
	SpecialInstructions string `yaml:"special_instructions,omitempty"`
}

// Load reads and parses a dataset file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return &ds, nil
}

// ParseDate parses an optional date string using the accepted layouts.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// ParseWeekday resolves a weekday name ("monday" or "mon").
func ParseWeekday(s string) (time.Weekday, error) {
	if wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return wd, nil
	}
	return 0, fmt.Errorf("unrecognized weekday %q", s)
}

// BuildCalendar converts the calendar section into an engine config.
// A nil spec yields the default Mon-Thu 12-hour calendar.
func (c *CalendarSpec) BuildCalendar() (sim.CalendarConfig, error) {
	if c == nil {
		return sim.NewCalendarConfig(nil, 12, nil, 0), nil
	}

	var days []time.Weekday
	for _, name := range c.WorkingDays {
		wd, err := ParseWeekday(name)
		if err != nil {
			return sim.CalendarConfig{}, fmt.Errorf("calendar working days: %w", err)
		}
		days = append(days, wd)
	}

	var dayConfigs map[time.Weekday]sim.DayShiftConfig
	if len(c.DayConfigs) > 0 {
		dayConfigs = make(map[time.Weekday]sim.DayShiftConfig, len(c.DayConfigs))
		for name, spec := range c.DayConfigs {
			wd, err := ParseWeekday(name)
			if err != nil {
				return sim.CalendarConfig{}, fmt.Errorf("calendar day configs: %w", err)
			}
			dayConfigs[wd] = sim.DayShiftConfig{
				ShiftMode:    spec.ShiftMode,
				ActiveShifts: spec.ActiveShifts,
				TaktMinutes:  spec.TaktMinutes,
			}
		}
	}

	shiftHours := c.ShiftHours
	if shiftHours == 0 {
		shiftHours = 12
	}
	return sim.NewCalendarConfig(days, shiftHours, dayConfigs, c.TaktMinutes), nil
}

// BuildOrders converts the order rows into engine records. The reline
// flag defaults from the XN part-number prefix when absent.
func (d *Dataset) BuildOrders() ([]*sim.Order, error) {
	orders := make([]*sim.Order, 0, len(d.Orders))
	for i, spec := range d.Orders {
		if spec.WONumber == "" {
			return nil, fmt.Errorf("order %d: missing wo_number", i)
		}
		createdOn, err := ParseDate(spec.CreatedOn)
		if err != nil {
			return nil, fmt.Errorf("order %s created_on: %w", spec.WONumber, err)
		}
		promise, err := ParseDate(spec.PromiseDate)
		if err != nil {
			return nil, fmt.Errorf("order %s promise_date: %w", spec.WONumber, err)
		}
		basicFinish, err := ParseDate(spec.BasicFinishDate)
		if err != nil {
			return nil, fmt.Errorf("order %s basic_finish_date: %w", spec.WONumber, err)
		}

		isReline := strings.HasPrefix(spec.PartNumber, relinePartPrefix)
		if spec.IsReline != nil {
			isReline = *spec.IsReline
		}

		orders = append(orders, &sim.Order{
			WONumber:            spec.WONumber,
			PartNumber:          spec.PartNumber,
			Description:         spec.Description,
			Customer:            spec.Customer,
			RubberType:          spec.RubberType,
			IsReline:            isReline,
			IsRework:            spec.IsRework,
			ReworkLeadTimeHours: spec.ReworkLeadTimeHours,
			CreatedOn:           createdOn,
			PromiseDate:         promise,
			BasicFinishDate:     basicFinish,
			SerialNumber:        spec.SerialNumber,
			SpecialInstructions: spec.SpecialInstructions,
			SupermarketLocation: spec.SupermarketLocation,
			DaysIdle:            spec.DaysIdle,
		})
	}
	return orders, nil
}

// BuildProcessMap converts the process rows keyed by part number.
func (d *Dataset) BuildProcessMap() map[string]*sim.ProcessRecord {
	pm := make(map[string]*sim.ProcessRecord, len(d.ProcessMap))
	for _, spec := range d.ProcessMap {
		pm[spec.PartNumber] = &sim.ProcessRecord{
			CoreNumber:       spec.CoreNumber,
			RubberType:       spec.RubberType,
			InjectionHours:   spec.InjectionHours,
			CureHours:        spec.CureHours,
			QuenchHours:      spec.QuenchHours,
			DisassemblyHours: spec.DisassemblyHours,
		}
	}
	return pm
}

// BuildInventory converts the core inventory rows.
func (d *Dataset) BuildInventory() map[int][]string {
	inv := make(map[int][]string, len(d.CoreInventory))
	for _, spec := range d.CoreInventory {
		inv[spec.CoreNumber] = append(inv[spec.CoreNumber], spec.Suffixes...)
	}
	return inv
}

// BuildHotList converts hot-list rows, assigning row positions from the
// file order.
func (d *Dataset) BuildHotList() ([]sim.HotListEntry, error) {
	entries := make([]sim.HotListEntry, 0, len(d.HotList))
	for i, spec := range d.HotList {
		needBy, err := ParseDate(spec.NeedByDate)
		if err != nil {
			return nil, fmt.Errorf("hot list %s need_by_date: %w", spec.WONumber, err)
		}
		reqMade, err := ParseDate(spec.DateReqMade)
		if err != nil {
			return nil, fmt.Errorf("hot list %s date_req_made: %w", spec.WONumber, err)
		}
		entries = append(entries, sim.HotListEntry{
			WONumber:            spec.WONumber,
			IsASAP:              spec.ASAP,
			NeedByDate:          needBy,
			DateReqMade:         reqMade,
			RowPosition:         i,
			RubberOverride:      spec.RubberOverride,
			SpecialInstructions: spec.SpecialInstructions,
		})
	}
	return entries, nil
}
