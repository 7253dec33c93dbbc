package digest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/orochaa/access-logger/model"
	"github.com/orochaa/access-logger/report"
)

type fakeStore struct {
	records []model.AccessRecord
	err     error

	gotStart time.Time
	gotEnd   time.Time
}

func (f *fakeStore) FetchRange(_ context.Context, start, end time.Time) ([]model.AccessRecord, error) {
	f.gotStart, f.gotEnd = start, end
	return f.records, f.err
}

type fakeMailer struct {
	sentSubject string
	sentBody    string
	sendErr     error
	notified    []error
}

func (f *fakeMailer) Send(subject, htmlBody string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentSubject = subject
	f.sentBody = htmlBody
	return nil
}

func (f *fakeMailer) SendErrorNotification(cause error) {
	f.notified = append(f.notified, cause)
}

type fakeGifs struct{ url string }

func (f *fakeGifs) RandomGifURL(context.Context) string { return f.url }

func newTestOrchestrator(t *testing.T, store *fakeStore, mailer *fakeMailer, gifs GifFetcher, now time.Time) *Orchestrator {
	t.Helper()
	renderer, err := report.NewRenderer("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	o := NewOrchestrator(store, mailer, gifs, renderer)
	o.now = func() time.Time { return now }
	return o
}

func testRecord(appName string, ts time.Time) model.AccessRecord {
	return model.AccessRecord{
		ID:        appName + ts.String(),
		AppName:   appName,
		Timestamp: ts,
		Meta: &model.ClientMetadata{
			Browser:  model.Browser{Name: "Chrome", Version: "120"},
			OS:       model.OS{Name: "Linux", Version: "6.1"},
			Device:   model.Device{Type: "desktop", Model: "generic"},
			Locale:   "en-US",
			Timezone: "UTC",
			PageURL:  "https://example.com",
		},
	}
}

func TestRunDaily_ReportPath(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{records: []model.AccessRecord{
		testRecord("app-a", now.Add(-time.Hour)),
		testRecord("app-a", now.Add(-2*time.Hour)),
	}}
	mailer := &fakeMailer{}

	o := newTestOrchestrator(t, store, mailer, &fakeGifs{url: "https://media.test/party.gif"}, now)

	if err := o.RunDaily(context.Background()); err != nil {
		t.Fatalf("RunDaily() error = %v", err)
	}

	if mailer.sentSubject != "Daily Access Report" {
		t.Errorf("subject = %q, want Daily Access Report", mailer.sentSubject)
	}
	if !strings.Contains(mailer.sentBody, ">app-a</h2>") {
		t.Errorf("report body missing app section:\n%s", mailer.sentBody)
	}
	if !strings.Contains(mailer.sentBody, "party.gif") {
		t.Errorf("report body missing decorative gif")
	}
	if len(mailer.notified) != 0 {
		t.Errorf("unexpected error notifications: %v", mailer.notified)
	}

	wantStart := now.Add(-24 * time.Hour)
	if !store.gotStart.Equal(wantStart) || !store.gotEnd.Equal(now) {
		t.Errorf("fetch window = [%v, %v], want [%v, %v]", store.gotStart, store.gotEnd, wantStart, now)
	}
}

func TestRunDaily_EmptyPathStillDelivers(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	mailer := &fakeMailer{}

	o := newTestOrchestrator(t, &fakeStore{}, mailer, &fakeGifs{}, now)

	if err := o.RunDaily(context.Background()); err != nil {
		t.Fatalf("RunDaily() error = %v", err)
	}

	if !strings.Contains(mailer.sentBody, "There were no accesses in the last day.") {
		t.Errorf("empty-window body missing notice:\n%s", mailer.sentBody)
	}
	if strings.Contains(mailer.sentBody, "<h2") {
		t.Errorf("empty-window body must have no per-app sections")
	}
	if strings.Contains(mailer.sentBody, "<img") {
		t.Errorf("empty gif URL must omit the image tag")
	}
}

func TestRun_FetchFailureNotifiesAndFails(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	fetchErr := errors.New("redis gone")
	mailer := &fakeMailer{}

	o := newTestOrchestrator(t, &fakeStore{err: fetchErr}, mailer, &fakeGifs{}, now)

	err := o.RunDaily(context.Background())
	if err == nil {
		t.Fatal("RunDaily() should fail when the fetch fails")
	}
	if !errors.Is(err, fetchErr) {
		t.Errorf("error = %v, want wrapped %v", err, fetchErr)
	}
	if len(mailer.notified) != 1 {
		t.Fatalf("error notifications = %d, want 1", len(mailer.notified))
	}
	if mailer.sentSubject != "" {
		t.Errorf("no report should have been delivered, got subject %q", mailer.sentSubject)
	}
}

func TestRun_DeliveryFailureNotifiesAndFails(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	sendErr := errors.New("smtp refused")
	mailer := &fakeMailer{sendErr: sendErr}

	o := newTestOrchestrator(t, &fakeStore{}, mailer, &fakeGifs{}, now)

	err := o.RunDaily(context.Background())
	if err == nil {
		t.Fatal("RunDaily() should fail when delivery fails")
	}
	if !errors.Is(err, sendErr) {
		t.Errorf("error = %v, want wrapped %v", err, sendErr)
	}
	if len(mailer.notified) != 1 {
		t.Errorf("error notifications = %d, want 1", len(mailer.notified))
	}
}

func TestRunMonthly_SubjectAndWindow(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}

	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	mailer := &fakeMailer{}

	o := newTestOrchestrator(t, store, mailer, &fakeGifs{}, now)

	if err := o.RunMonthly(context.Background()); err != nil {
		t.Fatalf("RunMonthly() error = %v", err)
	}

	if mailer.sentSubject != "Monthly Access Report" {
		t.Errorf("subject = %q, want Monthly Access Report", mailer.sentSubject)
	}

	wantStart := time.Date(2024, 2, 1, 0, 0, 0, 0, loc)
	wantEnd := time.Date(2024, 2, 29, 23, 59, 59, 0, loc)
	if !store.gotStart.Equal(wantStart) {
		t.Errorf("window start = %v, want %v", store.gotStart, wantStart)
	}
	if !store.gotEnd.Equal(wantEnd) {
		t.Errorf("window end = %v, want %v", store.gotEnd, wantEnd)
	}
}

func TestPreviousMonthWindow_JanuaryWrapsToDecember(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 1, 5, 8, 0, 0, 0, loc)

	start, end := PreviousMonthWindow(now, loc)

	wantStart := time.Date(2023, 12, 1, 0, 0, 0, 0, loc)
	wantEnd := time.Date(2023, 12, 31, 23, 59, 59, 0, loc)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestDailyWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	start, end := DailyWindow(now)

	if !end.Equal(now) {
		t.Errorf("end = %v, want %v", end, now)
	}
	if got := end.Sub(start); got != 24*time.Hour {
		t.Errorf("window length = %v, want 24h", got)
	}
}
