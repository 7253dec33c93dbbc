package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orochaa/access-logger/model"
	"github.com/orochaa/access-logger/report"
)

// RecordFetcher is the record-store gateway as seen by a digest run.
type RecordFetcher interface {
	FetchRange(ctx context.Context, start, end time.Time) ([]model.AccessRecord, error)
}

// DeliveryService hands rendered documents to the outside world.
type DeliveryService interface {
	Send(subject, htmlBody string) error
	SendErrorNotification(cause error)
}

// GifFetcher supplies the optional decorative image. An empty URL is a
// valid, degraded result.
type GifFetcher interface {
	RandomGifURL(ctx context.Context) string
}

// Orchestrator wires a time window, the record store, the aggregator, the
// renderer and the delivery capability into one report run. Runs are
// independent, only read the store, and keep no state between invocations.
type Orchestrator struct {
	store    RecordFetcher
	mailer   DeliveryService
	gifs     GifFetcher
	renderer *report.Renderer
	now      func() time.Time
}

func NewOrchestrator(store RecordFetcher, mailer DeliveryService, gifs GifFetcher, renderer *report.Renderer) *Orchestrator {
	return &Orchestrator{
		store:    store,
		mailer:   mailer,
		gifs:     gifs,
		renderer: renderer,
		now:      time.Now,
	}
}

// RunDaily reports on the last 24 hours.
func (o *Orchestrator) RunDaily(ctx context.Context) error {
	start, end := DailyWindow(o.now().UTC())
	return o.run(ctx, "Daily Access Report", "day", start, end)
}

// RunMonthly reports on the previous calendar month, with boundaries
// computed in the report's display location rather than a fixed lookback.
func (o *Orchestrator) RunMonthly(ctx context.Context) error {
	start, end := PreviousMonthWindow(o.now(), o.renderer.Location())
	return o.run(ctx, "Monthly Access Report", "month", start, end)
}

// run is one pass of the digest pipeline: fetch, aggregate+render (or the
// empty variant), wrap, deliver. The first failure ends the run; there are
// no retries here, a failed run is re-triggered externally.
func (o *Orchestrator) run(ctx context.Context, subject, period string, start, end time.Time) error {
	records, err := o.store.FetchRange(ctx, start, end)
	if err != nil {
		return o.fail(fmt.Errorf("fetch access records: %w", err))
	}

	gifURL := ""
	if o.gifs != nil {
		gifURL = o.gifs.RandomGifURL(ctx)
	}

	var body string
	if len(records) == 0 {
		body = o.renderer.RenderEmpty(period, start, end)
	} else {
		body = o.renderer.Render(report.Aggregate(records), start, end)
	}

	doc := report.HTMLShell(subject, body, gifURL)

	if err := o.mailer.Send(subject, doc); err != nil {
		return o.fail(fmt.Errorf("deliver report: %w", err))
	}

	log.Info().
		Str("subject", subject).
		Int("records", len(records)).
		Time("window_start", start).
		Time("window_end", end).
		Msg("Report sent")

	return nil
}

// fail logs the error and reports it through the delivery capability as a
// best-effort side channel before handing it back to the caller.
func (o *Orchestrator) fail(err error) error {
	log.Error().Err(err).Msg("Report run failed")
	o.mailer.SendErrorNotification(err)
	return err
}

// DailyWindow is a fixed 24-hour lookback from now.
func DailyWindow(now time.Time) (start, end time.Time) {
	return now.Add(-24 * time.Hour), now
}

// PreviousMonthWindow covers the previous calendar month in loc, from its
// first instant through its last whole second.
func PreviousMonthWindow(now time.Time, loc *time.Location) (start, end time.Time) {
	local := now.In(loc)
	start = time.Date(local.Year(), local.Month()-1, 1, 0, 0, 0, 0, loc)
	end = start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}
