package report

import (
	"strings"
	"testing"
	"time"

	"github.com/orochaa/access-logger/model"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return r
}

func TestNewRenderer_InvalidTimezone(t *testing.T) {
	if _, err := NewRenderer("Not/AZone"); err == nil {
		t.Error("NewRenderer() with bogus timezone should fail")
	}
}

func TestRenderEmpty_ContainsISOBoundsAndNoSections(t *testing.T) {
	r := newTestRenderer(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	body := r.RenderEmpty("day", start, end)

	for _, want := range []string{
		"2024-01-01T00:00:00Z",
		"2024-01-02T00:00:00Z",
		"There were no accesses in the last day.",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("RenderEmpty() missing %q in:\n%s", want, body)
		}
	}

	if strings.Contains(body, "<h2") {
		t.Errorf("RenderEmpty() must not contain per-app sections:\n%s", body)
	}
}

func TestRender_SummaryAndSections(t *testing.T) {
	r := newTestRenderer(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	records := []model.AccessRecord{
		record("app-a", time.Date(2024, 1, 10, 13, 0, 0, 0, time.UTC), "Chrome", "Linux", "en-US"),
		record("app-a", time.Date(2024, 1, 11, 13, 0, 0, 0, time.UTC), "Firefox", "Linux", "pt-BR"),
		record("app-b", time.Date(2024, 1, 12, 13, 0, 0, 0, time.UTC), "Safari", "macOS", "en-GB"),
	}

	body := r.Render(Aggregate(records), start, end)

	// Grand-total summary comes before any app section.
	summaryIdx := strings.Index(body, "<strong>Accesses:</strong> 3")
	sectionIdx := strings.Index(body, "<h2")
	if summaryIdx == -1 {
		t.Fatalf("Render() missing grand-total summary in:\n%s", body)
	}
	if sectionIdx == -1 || sectionIdx < summaryIdx {
		t.Errorf("Render() summary must precede the app sections")
	}

	for _, want := range []string{
		">app-a</h2>",
		">app-b</h2>",
		"Chrome: 1, Firefox: 1",
		"Linux: 2",
		"en-US: 1, pt-BR: 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Render() missing %q", want)
		}
	}

	// One table row per access.
	if got := strings.Count(body, "UTC / "); got != 3 {
		t.Errorf("Render() has %d locale cells, want 3", got)
	}
}

func TestRender_UsesDisplayTimezoneForDates(t *testing.T) {
	r := newTestRenderer(t)

	// 13:00 UTC is 10:00 in São Paulo (UTC-3).
	ts := time.Date(2024, 1, 10, 13, 0, 0, 0, time.UTC)
	records := []model.AccessRecord{record("app-a", ts, "Chrome", "Linux", "en-US")}

	body := r.Render(Aggregate(records), ts, ts)

	if !strings.Contains(body, "10/01/2024, 10:00:00") {
		t.Errorf("Render() should show the record in the report timezone, got:\n%s", body)
	}
	if strings.Contains(body, "13:00:00") {
		t.Errorf("Render() leaked a UTC-formatted date")
	}
}

func TestRender_NilMetadataRendersUnknownCells(t *testing.T) {
	r := newTestRenderer(t)
	ts := time.Date(2024, 1, 10, 13, 0, 0, 0, time.UTC)

	records := []model.AccessRecord{{ID: "legacy", AppName: "app-a", Timestamp: ts}}
	body := r.Render(Aggregate(records), ts, ts)

	if !strings.Contains(body, "unknown / unknown") {
		t.Errorf("Render() should show unknown locale/timezone for legacy records:\n%s", body)
	}
}

func TestRender_Idempotent(t *testing.T) {
	r := newTestRenderer(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	records := []model.AccessRecord{
		record("app-a", start.Add(time.Hour), "Chrome", "Linux", "en-US"),
		record("app-b", start.Add(2*time.Hour), "Firefox", "macOS", "pt-BR"),
	}
	reports := Aggregate(records)

	first := r.Render(reports, start, end)
	second := r.Render(reports, start, end)
	if first != second {
		t.Error("Render() is not byte-identical across calls")
	}
}

func TestRender_EscapesHTMLInValues(t *testing.T) {
	r := newTestRenderer(t)
	ts := time.Date(2024, 1, 10, 13, 0, 0, 0, time.UTC)

	rec := record("<script>alert(1)</script>", ts, "Chrome", "Linux", "en-US")
	body := r.Render(Aggregate([]model.AccessRecord{rec}), ts, ts)

	if strings.Contains(body, "<script>") {
		t.Error("Render() must escape HTML in app names")
	}
}

func TestHTMLShell_WrapsWithoutAlteringBody(t *testing.T) {
	content := `<p id="marker">hello &amp; goodbye</p>`

	doc := HTMLShell("Monthly Access Report", content, "https://example.com/a.gif")

	if !strings.Contains(doc, content) {
		t.Error("HTMLShell() altered the body content")
	}
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Monthly Access Report</title>",
		`src="https://example.com/a.gif"`,
		"<h1",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("HTMLShell() missing %q", want)
		}
	}
}

func TestHTMLShell_EmptyGifURLOmitsImage(t *testing.T) {
	doc := HTMLShell("Daily Access Report", "<p>body</p>", "")

	if strings.Contains(doc, "<img") {
		t.Error("HTMLShell() with empty gif URL must omit the image tag")
	}
	if !strings.Contains(doc, "<p>body</p>") {
		t.Error("HTMLShell() lost the body")
	}
}
