package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coreybb/readings/datastore"
	"github.com/coreybb/readings/datekeys"
	"github.com/coreybb/readings/models"
	"github.com/coreybb/readings/webutil"
)

const defaultWarmDays = 2

type assignmentStore interface {
	GetAssignment(ctx context.Context, dateKey string) (*models.ReadingAssignment, error)
}

type passageFetcher interface {
	FetchPassages(ctx context.Context, assignment models.ReadingAssignment) (ot, nt string, err error)
}

// Scheduler warms the passage cache for upcoming dates so the first reader of
// the day does not wait on the ESV API.
type Scheduler struct {
	assignments assignmentStore
	passages    passageFetcher
	keyFormat   datekeys.Format
	location    *time.Location
	days        int
	now         func() time.Time
}

// New creates a new Scheduler that warms today plus the following days-1
// dates. A non-positive days warms today and tomorrow.
func New(assignments assignmentStore, passages passageFetcher, keyFormat datekeys.Format, loc *time.Location, days int) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if days <= 0 {
		days = defaultWarmDays
	}
	return &Scheduler{
		assignments: assignments,
		passages:    passages,
		keyFormat:   keyFormat,
		location:    loc,
		days:        days,
		now:         time.Now,
	}
}

// HandleTick is an HTTP handler that triggers a scheduler tick.
// Used by Cloud Scheduler or manual curl requests.
func (s *Scheduler) HandleTick(w http.ResponseWriter, r *http.Request) error {
	slog.InfoContext(r.Context(), "Scheduler tick triggered via HTTP")

	warmed, err := s.Tick(r.Context())
	if err != nil {
		return webutil.ErrInternalServerWrap("scheduler tick failed", err)
	}

	webutil.RespondWithText(w, http.StatusOK, fmt.Sprintf("OK: warmed %d dates", warmed))
	return nil
}

// Tick fetches the passages for each upcoming date that has an assignment.
// Dates without one are skipped. Returns the number of dates warmed.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	today := s.keyFormat.Today(s.now(), s.location)

	warmed := 0
	var errs []error
	for i := 0; i < s.days; i++ {
		key, err := s.keyFormat.Offset(today, i)
		if err != nil {
			return warmed, fmt.Errorf("failed to compute date %d days ahead: %w", i, err)
		}

		ok, err := s.warm(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "Failed to warm passages", "date_key", key, "error", err)
			errs = append(errs, err)
			continue
		}
		if ok {
			warmed++
		}
	}

	return warmed, errors.Join(errs...)
}

func (s *Scheduler) warm(ctx context.Context, key string) (bool, error) {
	assignment, err := s.assignments.GetAssignment(ctx, key)
	if errors.Is(err, datastore.ErrAssignmentNotFound) {
		slog.DebugContext(ctx, "No assignment to warm", "date_key", key)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up %q: %w", key, err)
	}

	if _, _, err := s.passages.FetchPassages(ctx, *assignment); err != nil {
		return false, fmt.Errorf("failed to fetch passages for %q: %w", key, err)
	}
	slog.InfoContext(ctx, "Warmed passages", "date_key", key, "ot", assignment.OT, "nt", assignment.NT)
	return true, nil
}
