package routehandlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreybb/readings/datastore"
	"github.com/coreybb/readings/datekeys"
	"github.com/coreybb/readings/models"
	"github.com/coreybb/readings/render"
	"github.com/coreybb/readings/webutil"
)

const (
	dateQueryParam  = "date"
	msgDateNotFound = "Date not found in list"
)

// AssignmentStore looks up the reading assigned to a date key.
type AssignmentStore interface {
	GetAssignment(ctx context.Context, dateKey string) (*models.ReadingAssignment, error)
}

// PassageFetcher returns the rendered OT and NT passages of an assignment.
type PassageFetcher interface {
	FetchPassages(ctx context.Context, assignment models.ReadingAssignment) (ot, nt string, err error)
}

// Holds dependencies for the readings page.
type ReadingPageHandler struct {
	Assignments AssignmentStore
	Passages    PassageFetcher
	KeyFormat   datekeys.Format
	Location    *time.Location
	Now         func() time.Time
}

// Creates a new ReadingPageHandler. A nil location means UTC.
func NewReadingPageHandler(assignments AssignmentStore, passages PassageFetcher, keyFormat datekeys.Format, loc *time.Location) *ReadingPageHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReadingPageHandler{
		Assignments: assignments,
		Passages:    passages,
		KeyFormat:   keyFormat,
		Location:    loc,
		Now:         time.Now,
	}
}

func (h *ReadingPageHandler) now() time.Time {
	return h.Now().In(h.Location)
}

// HandleGetReadingPage serves the readings for ?date=<key>, or for today in
// the handler's timezone when the parameter is absent.
func (h *ReadingPageHandler) HandleGetReadingPage(w http.ResponseWriter, r *http.Request) error {
	now := h.now()

	query := r.URL.Query()
	dateKey := query.Get(dateQueryParam)
	if !query.Has(dateQueryParam) {
		dateKey = h.KeyFormat.Key(now)
	}

	assignment, err := h.Assignments.GetAssignment(r.Context(), dateKey)
	if err != nil {
		if errors.Is(err, datastore.ErrAssignmentNotFound) {
			return webutil.ErrNotFoundWrap(msgDateNotFound, err)
		}
		return fmt.Errorf("failed to look up readings for %q: %w", dateKey, err)
	}

	firstPassage, secondPassage, err := h.Passages.FetchPassages(r.Context(), *assignment)
	if err != nil {
		return fmt.Errorf("failed to fetch passages for %q: %w", dateKey, err)
	}

	date, err := h.KeyFormat.Parse(dateKey, now.Year())
	if err != nil {
		return fmt.Errorf("failed to parse date key: %w", err)
	}
	previousDate, err := h.KeyFormat.Offset(dateKey, -1)
	if err != nil {
		return fmt.Errorf("failed to compute previous date: %w", err)
	}
	nextDate, err := h.KeyFormat.Offset(dateKey, 1)
	if err != nil {
		return fmt.Errorf("failed to compute next date: %w", err)
	}

	page, err := render.Page(render.PageData{
		FirstPassage:  firstPassage,
		SecondPassage: secondPassage,
		Date:          date,
		ShowYear:      h.KeyFormat == datekeys.FormatISO,
		PreviousDate:  previousDate,
		NextDate:      nextDate,
	})
	if err != nil {
		return webutil.ErrInternalServerWrap("failed to render readings page", err)
	}

	webutil.RespondWithHTML(w, http.StatusOK, page)
	return nil
}
