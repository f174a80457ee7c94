package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/spf13/pflag"
)

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return d, nil
}

// dateValue is an optional YYYY-MM-DD flag. It stays nil until set.
type dateValue struct {
	t **time.Time
}

func newDateValue(p **time.Time) *dateValue { return &dateValue{t: p} }

func (d *dateValue) Set(s string) error {
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	*d.t = &t
	return nil
}

func (d *dateValue) String() string {
	if d.t == nil || *d.t == nil {
		return ""
	}
	return (*d.t).Format(dateLayout)
}

func (d *dateValue) Type() string { return "date" }

// startsValue collects repeated UNIT_ID=YYYY-MM-DD flags into a start map.
// A later value for the same unit wins.
type startsValue struct {
	m contract.StartMap
}

func newStartsValue() *startsValue { return &startsValue{m: contract.StartMap{}} }

func (s *startsValue) Set(v string) error {
	unit, date, ok := strings.Cut(v, "=")
	unit = strings.TrimSpace(unit)
	if !ok || unit == "" {
		return fmt.Errorf("invalid start %q, expected UNIT_ID=YYYY-MM-DD", v)
	}
	d, err := parseDate(date)
	if err != nil {
		return err
	}
	s.m[unit] = d
	return nil
}

func (s *startsValue) String() string {
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + s.m[k].Format(dateLayout)
	}
	return strings.Join(parts, ",")
}

func (s *startsValue) Type() string { return "unit=date" }

// startFlags carries --start and --start-all.
type startFlags struct {
	explicit *startsValue
	all      *time.Time
}

func (f *startFlags) bind(fs *pflag.FlagSet) {
	f.explicit = newStartsValue()
	fs.Var(f.explicit, "start", "Start date for one unit as UNIT_ID=YYYY-MM-DD (repeatable)")
	fs.Var(newDateValue(&f.all), "start-all", "Start date for every unit in scope (YYYY-MM-DD)")
}

// unitLister is the part of the structure service start expansion needs.
type unitLister interface {
	Units(ctx context.Context, projectID string, f domain.StructureFilter) ([]domain.UnitRef, error)
}

// resolve expands --start-all over the units in scope. Explicit --start
// values take precedence over the blanket date.
func (f *startFlags) resolve(ctx context.Context, units unitLister, projectID string, scope domain.StructureFilter) (contract.StartMap, error) {
	starts := contract.StartMap{}
	if f.all != nil {
		refs, err := units.Units(ctx, projectID, scope)
		if err != nil {
			return nil, err
		}
		for _, u := range refs {
			starts[u.UnitID] = *f.all
		}
	}
	for unit, d := range f.explicit.m {
		starts[unit] = d
	}
	return starts, nil
}

// filterFlags binds the task filter predicates shared by list, bulk,
// shift and the reports.
type filterFlags struct {
	sections   []string
	stairwells []string
	levels     []string
	units      []string
	unitIDs    []string
	taskIDs    []string
	categories []string
	statuses   []string
	activities []string
	templates  []string
	text       string
	delayed    bool
	from       *time.Time
	to         *time.Time
}

func (f *filterFlags) bindStructure(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.sections, "section", nil, "Section names (repeatable)")
	fs.StringSliceVar(&f.stairwells, "stairwell", nil, "Stairwell names (repeatable)")
	fs.StringSliceVar(&f.levels, "level", nil, "Level names (repeatable)")
	fs.StringSliceVar(&f.units, "unit", nil, "Unit names (repeatable)")
	fs.StringSliceVar(&f.unitIDs, "unit-id", nil, "Unit IDs (repeatable)")
}

func (f *filterFlags) bind(fs *pflag.FlagSet) {
	f.bindStructure(fs)
	fs.StringSliceVar(&f.categories, "trade", nil, "Trades / categories (repeatable)")
	fs.StringSliceVar(&f.statuses, "status", nil, "Statuses: open, in_progress, done (repeatable)")
	fs.StringSliceVar(&f.activities, "activity", nil, "Exact activity names (repeatable)")
	fs.StringSliceVar(&f.templates, "template", nil, "Template names (repeatable)")
	fs.StringVar(&f.text, "text", "", "Case-insensitive substring of the activity")
	fs.BoolVar(&f.delayed, "delayed", false, "Only delayed tasks")
	fs.Var(newDateValue(&f.from), "from", "Planned end on or after (YYYY-MM-DD)")
	fs.Var(newDateValue(&f.to), "to", "Planned start on or before (YYYY-MM-DD)")
}

func (f *filterFlags) structure() domain.StructureFilter {
	return domain.StructureFilter{
		Sections:   f.sections,
		Stairwells: f.stairwells,
		Levels:     f.levels,
		Units:      f.units,
		UnitIDs:    f.unitIDs,
	}
}

func (f *filterFlags) task() domain.TaskFilter {
	tf := domain.TaskFilter{
		StructureFilter: f.structure(),
		TaskIDs:         f.taskIDs,
		Categories:      f.categories,
		Activities:      f.activities,
		Templates:       f.templates,
		ActivityText:    f.text,
		Delayed:         f.delayed,
		From:            f.from,
		To:              f.to,
	}
	for _, s := range f.statuses {
		tf.Statuses = append(tf.Statuses, domain.TaskStatus(s))
	}
	return tf
}

// empty reports whether no predicate was given.
func (f *filterFlags) empty() bool {
	return f.structure().IsEmpty() && len(f.taskIDs) == 0 && len(f.categories) == 0 &&
		len(f.statuses) == 0 && len(f.activities) == 0 && len(f.templates) == 0 &&
		f.text == "" && !f.delayed && f.from == nil && f.to == nil
}

// parseStepSpec reads ACTIVITY:TRADE:DAYS[:parallel]. Trade and days may
// be empty; days default to one.
func parseStepSpec(spec string) (domain.Step, error) {
	parts := strings.Split(spec, ":")
	if len(parts) > 4 || strings.TrimSpace(parts[0]) == "" {
		return domain.Step{}, fmt.Errorf("invalid step %q, expected ACTIVITY:TRADE:DAYS[:parallel]", spec)
	}
	st := domain.Step{Activity: strings.TrimSpace(parts[0]), DurationDays: 1}
	if len(parts) > 1 {
		st.Category = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		days, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || days < 1 {
			return domain.Step{}, fmt.Errorf("invalid duration in step %q", spec)
		}
		st.DurationDays = days
	}
	if len(parts) > 3 {
		if !strings.EqualFold(strings.TrimSpace(parts[3]), "parallel") {
			return domain.Step{}, fmt.Errorf("invalid step flag %q in %q (only parallel is known)", parts[3], spec)
		}
		st.Parallel = true
	}
	return st, nil
}
