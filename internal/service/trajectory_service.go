package service

import (
	"context"

	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/repository"
	"github.com/jengzang/trajectory-explorer/internal/spatial"
)

// ArcOptions shapes the arcs drawn for entry points.
type ArcOptions struct {
	Span    float64 // degrees of travel shown after the entry point
	Samples int
}

// DefaultArcOptions are used when a zero ArcOptions is given.
var DefaultArcOptions = ArcOptions{Span: 10, Samples: 32}

// TrajectoryService handles business logic for trajectory selection
type TrajectoryService struct {
	repo *repository.TrajectoryRepository
	arcs ArcOptions
}

// NewTrajectoryService creates a new trajectory service
func NewTrajectoryService(repo *repository.TrajectoryRepository, arcs ArcOptions) *TrajectoryService {
	if arcs.Span <= 0 {
		arcs.Span = DefaultArcOptions.Span
	}
	if arcs.Samples <= 0 {
		arcs.Samples = DefaultArcOptions.Samples
	}
	return &TrajectoryService{repo: repo, arcs: arcs}
}

// FilterCatalog returns the reference catalog of queryable fields.
func (s *TrajectoryService) FilterCatalog(ctx context.Context) (models.FilterCatalog, error) {
	return s.repo.FilterCatalog(ctx)
}

// SelectTrajectories runs a trajectory selection query.
func (s *TrajectoryService) SelectTrajectories(ctx context.Context, q models.Query) ([]models.Record, error) {
	return s.repo.SelectTrajectories(ctx, q.TargetBody, q.Filters, q.Fields)
}

// Entries returns the entries of a trajectory.
func (s *TrajectoryService) Entries(ctx context.Context, trajectoryID int64) ([]models.Record, error) {
	records, err := s.repo.EntriesOf(ctx, trajectoryID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}

// Arcs draws a great-circle arc from each entry point along its heading.
func (s *TrajectoryService) Arcs(ctx context.Context, targetBody int, entryIDs []int64) ([]models.Arc, error) {
	tracks, err := s.repo.EntryTracks(ctx, targetBody, entryIDs)
	if err != nil {
		return nil, err
	}
	arcs := make([]models.Arc, 0, len(tracks))
	for _, t := range tracks {
		arcs = append(arcs, models.Arc{
			EntryID: t.ID,
			Points:  spatial.GreatCircleArc(t.Latitude, t.Longitude, t.Heading, s.arcs.Span, s.arcs.Samples),
		})
	}
	return arcs, nil
}
