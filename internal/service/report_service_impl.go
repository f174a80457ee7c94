package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/alexanderramin/taktplan/internal/repository"
)

type reportService struct {
	projects repository.ProjectRepo
	tasks    repository.TaskRepo
	opts     options
}

func NewReportService(projects repository.ProjectRepo, tasks repository.TaskRepo, opts ...Option) ReportService {
	return &reportService{projects: projects, tasks: tasks, opts: buildOptions(opts)}
}

func (s *reportService) views(ctx context.Context, projectID string, f domain.TaskFilter, asOf time.Time) ([]*domain.TaskView, time.Time, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, asOf, err
	}
	filter, err := f.Normalized()
	if err != nil {
		return nil, asOf, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if asOf.IsZero() {
		asOf = s.opts.today()
	}
	views, err := s.tasks.ListViews(ctx, projectID, filter, asOf)
	return views, asOf, err
}

// Stats counts tasks by status derived from their actual dates, overall and
// per trade. Delay is judged against asOf (zero means today).
func (s *reportService) Stats(ctx context.Context, projectID string, f domain.TaskFilter, asOf time.Time) (*contract.StatsResponse, error) {
	views, asOf, err := s.views(ctx, projectID, f, asOf)
	if err != nil {
		return nil, err
	}

	resp := &contract.StatsResponse{ByCategory: []contract.CategoryStats{}}
	byCategory := make(map[string]*contract.StatusCounts)
	for _, v := range views {
		count(&resp.StatusCounts, v, asOf)
		if v.Category == "" {
			continue
		}
		c, ok := byCategory[v.Category]
		if !ok {
			c = &contract.StatusCounts{}
			byCategory[v.Category] = c
		}
		count(c, v, asOf)
	}
	if resp.Total > 0 {
		resp.PercentDone = math.Round(float64(resp.Done)/float64(resp.Total)*1000) / 10
	}
	for name, c := range byCategory {
		resp.ByCategory = append(resp.ByCategory, contract.CategoryStats{Category: name, StatusCounts: *c})
	}
	sort.Slice(resp.ByCategory, func(i, j int) bool {
		return resp.ByCategory[i].Category < resp.ByCategory[j].Category
	})
	return resp, nil
}

func count(c *contract.StatusCounts, v *domain.TaskView, asOf time.Time) {
	c.Total++
	switch v.EffectiveStatus() {
	case domain.StatusDone:
		c.Done++
	case domain.StatusInProgress:
		c.InProgress++
	default:
		c.Open++
	}
	if v.IsDelayed(asOf) {
		c.Delayed++
	}
}

// Curve buckets tasks per ISO week: planned by planned start (else planned
// end), actual by actual end (else actual start).
func (s *reportService) Curve(ctx context.Context, projectID string, f domain.TaskFilter) (*contract.CurveResponse, error) {
	views, _, err := s.views(ctx, projectID, f, time.Time{})
	if err != nil {
		return nil, err
	}

	points := make(map[string]*contract.CurvePoint)
	bucket := func(d *time.Time) *contract.CurvePoint {
		key := isoWeek(*d)
		p, ok := points[key]
		if !ok {
			p = &contract.CurvePoint{Week: key}
			points[key] = p
		}
		return p
	}
	for _, v := range views {
		if d := firstDate(v.PlannedStart, v.PlannedEnd); d != nil {
			bucket(d).Planned++
		}
		if d := firstDate(v.ActualEnd, v.ActualStart); d != nil {
			bucket(d).Actual++
		}
	}

	resp := &contract.CurveResponse{Points: make([]contract.CurvePoint, 0, len(points))}
	for _, p := range points {
		resp.Points = append(resp.Points, *p)
	}
	sort.Slice(resp.Points, func(i, j int) bool { return resp.Points[i].Week < resp.Points[j].Week })
	return resp, nil
}

func isoWeek(d time.Time) string {
	year, week := d.ISOWeek()
	return fmt.Sprintf("%d-KW%02d", year, week)
}

func firstDate(dates ...*time.Time) *time.Time {
	for _, d := range dates {
		if d != nil {
			return d
		}
	}
	return nil
}

// Timeline groups tasks by the ancestor of the given kind and by activity.
// Each activity spans from its earliest effective start (actual, else
// planned) to its latest effective end.
func (s *reportService) Timeline(ctx context.Context, projectID string, level domain.LocationKind, f domain.TaskFilter, asOf time.Time) (*contract.TimelineResponse, error) {
	if level == "" {
		level = domain.KindLevel
	}
	if level == domain.KindUnit {
		return nil, invalid("timeline level must be section, stairwell or level")
	}
	if _, err := segmentOf(level, domain.UnitRef{}); err != nil {
		return nil, err
	}
	views, asOf, err := s.views(ctx, projectID, f, asOf)
	if err != nil {
		return nil, err
	}

	type key struct{ segment, activity string }
	segments := make(map[string]*contract.TimelineSegment)
	var segmentOrder []string
	activities := make(map[key]*contract.TimelineActivity)
	keys := make(map[string][]key)
	for _, v := range views {
		seg, _ := segmentOf(level, v.Unit)
		if _, ok := segments[seg.ID]; !ok {
			segments[seg.ID] = &contract.TimelineSegment{ID: seg.ID, Name: seg.Name}
			segmentOrder = append(segmentOrder, seg.ID)
		}
		k := key{seg.ID, v.Activity}
		a, ok := activities[k]
		if !ok {
			a = &contract.TimelineActivity{Activity: v.Activity, Category: v.Category}
			activities[k] = a
			keys[seg.ID] = append(keys[seg.ID], k)
		}
		a.Total++
		if v.ActualEnd != nil {
			a.Done++
		}
		if v.IsDelayed(asOf) {
			a.Delayed = true
		}
		if start := firstDate(v.ActualStart, v.PlannedStart); start != nil && (a.Start == nil || start.Before(*a.Start)) {
			d := *start
			a.Start = &d
		}
		if end := firstDate(v.ActualEnd, v.PlannedEnd); end != nil && (a.End == nil || end.After(*a.End)) {
			d := *end
			a.End = &d
		}
	}

	resp := &contract.TimelineResponse{ProjectID: projectID, Level: string(level), Segments: []contract.TimelineSegment{}}
	for _, id := range segmentOrder {
		seg := segments[id]
		for _, k := range keys[id] {
			a := activities[k]
			a.Progress = float64(a.Done) / float64(a.Total)
			seg.Activities = append(seg.Activities, *a)
		}
		sort.SliceStable(seg.Activities, func(i, j int) bool {
			return activityBefore(seg.Activities[i], seg.Activities[j])
		})
		resp.Segments = append(resp.Segments, *seg)
	}
	sort.SliceStable(resp.Segments, func(i, j int) bool {
		return strings.ToLower(resp.Segments[i].Name) < strings.ToLower(resp.Segments[j].Name)
	})
	return resp, nil
}

// activityBefore orders by start, undated last, then by name.
func activityBefore(a, b contract.TimelineActivity) bool {
	switch {
	case a.Start == nil && b.Start != nil:
		return false
	case a.Start != nil && b.Start == nil:
		return true
	case a.Start != nil && !a.Start.Equal(*b.Start):
		return a.Start.Before(*b.Start)
	}
	return a.Activity < b.Activity
}

type segmentRef struct{ ID, Name string }

func segmentOf(level domain.LocationKind, u domain.UnitRef) (segmentRef, error) {
	switch level {
	case domain.KindSection:
		return segmentRef{u.SectionID, u.SectionName}, nil
	case domain.KindStairwell:
		return segmentRef{u.StairwellID, u.StairwellName}, nil
	case domain.KindLevel:
		return segmentRef{u.LevelID, u.LevelName}, nil
	}
	return segmentRef{}, invalid("unknown timeline level %q", level)
}
