package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/orochaa/access-logger/model"
)

// dateLayout mirrors the pt-BR "toLocaleString" shape used by the reports
// historically: day/month/year, 24h clock.
const dateLayout = "02/01/2006, 15:04:05"

// Renderer turns aggregated access data into an HTML report body. All date
// strings use one fixed display location for the whole report; each record's
// own timezone only shows up in the Locale / TZ column.
type Renderer struct {
	loc *time.Location
}

// NewRenderer builds a renderer for the given IANA timezone name.
func NewRenderer(displayTimezone string) (*Renderer, error) {
	loc, err := time.LoadLocation(displayTimezone)
	if err != nil {
		return nil, fmt.Errorf("load report timezone %q: %w", displayTimezone, err)
	}
	return &Renderer{loc: loc}, nil
}

// Location returns the renderer's display location.
func (r *Renderer) Location() *time.Location {
	return r.loc
}

func (r *Renderer) formatDate(t time.Time) string {
	return t.In(r.loc).Format(dateLayout)
}

// RenderEmpty produces the report body for a window with zero accesses.
// The bounds are stated in ISO-8601 UTC so there is no ambiguity about what
// was scanned. The renderer only ever sees "zero records": a failed fetch is
// an error upstream and never reaches this path.
func (r *Renderer) RenderEmpty(period string, start, end time.Time) string {
	return strings.TrimSpace(fmt.Sprintf(`
<p style="margin:4px 0 16px;">
  <strong>Window (UTC):</strong> %s → %s<br/>
  <strong>There were no accesses in the last %s.</strong>
</p>
`,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
		html.EscapeString(period),
	))
}

// Render produces the report body for a non-empty window: a grand-total
// summary followed by one section per application, in the order produced by
// Aggregate. Output is deterministic: the same input yields byte-identical
// HTML.
func (r *Renderer) Render(reports []AppReport, start, end time.Time) string {
	var b strings.Builder
	total := 0
	for _, app := range reports {
		total += len(app.Accesses)
	}

	fmt.Fprintf(&b, `<p style="margin:4px 0 16px;">
  <strong>Accesses:</strong> %d<br/>
  <strong>Window:</strong> %s → %s
</p>`,
		total, r.formatDate(start), r.formatDate(end))

	for _, app := range reports {
		r.renderAppSection(&b, app)
	}

	return b.String()
}

func (r *Renderer) renderAppSection(b *strings.Builder, app AppReport) {
	fmt.Fprintf(b, "\n<h2 style=\"margin:24px 0 8px;color:#2d3a4a;\">%s</h2>\n", html.EscapeString(app.AppName))
	fmt.Fprintf(b, `<p style="margin:4px 0;">
  <strong>Accesses:</strong> %d<br/>
  <strong>Browsers:</strong> %s<br/>
  <strong>OS:</strong> %s<br/>
  <strong>Locales:</strong> %s
</p>`,
		len(app.Accesses),
		flattenTable(app.Browsers),
		flattenTable(app.OS),
		flattenTable(app.Locales))

	b.WriteString(`
<table style="border-collapse:collapse;font-family:monospace;font-size:13px;margin-top:8px;">
  <thead>
    <tr>`)
	for _, col := range []string{"Timestamp", "Locale / TZ", "OS", "Browser", "Device", "Referrer"} {
		b.WriteString("\n      " + th(col))
	}
	b.WriteString(`
    </tr>
  </thead>
  <tbody>`)
	for _, access := range app.Accesses {
		r.renderAccessRow(b, access)
	}
	b.WriteString(`
  </tbody>
</table>`)
}

func (r *Renderer) renderAccessRow(b *strings.Builder, access model.AccessRecord) {
	meta := access.Meta
	if meta == nil {
		meta = &model.ClientMetadata{
			Browser:  model.Browser{Name: UnknownKey},
			OS:       model.OS{Name: UnknownKey},
			Device:   model.Device{Type: UnknownKey},
			Locale:   UnknownKey,
			Timezone: UnknownKey,
		}
	}

	b.WriteString("\n    <tr>")
	for _, cell := range []string{
		r.formatDate(access.Timestamp),
		meta.Timezone + " / " + meta.Locale,
		joinNameVersion(meta.OS.Name, meta.OS.Version),
		joinNameVersion(meta.Browser.Name, meta.Browser.Version),
		joinNameVersion(meta.Device.Type, meta.Device.Model),
		meta.Referrer,
	} {
		b.WriteString("\n      " + td(cell))
	}
	b.WriteString("\n    </tr>")
}

// flattenTable renders a frequency table as "key: count" pairs in
// first-occurrence order, joined by commas.
func flattenTable(table *FreqTable) string {
	entries := table.Entries()
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts = append(parts, fmt.Sprintf("%s: %d", html.EscapeString(entry.Key), entry.Count))
	}
	return strings.Join(parts, ", ")
}

func joinNameVersion(name, version string) string {
	if version == "" {
		return name
	}
	return name + " " + version
}

func td(txt string) string {
	return `<td style="padding:4px 8px;border:1px solid #ccc;">` + html.EscapeString(txt) + `</td>`
}

func th(txt string) string {
	return `<th style="padding:4px 8px;background:#f5f5f5;border:1px solid #ccc;text-align:left;">` + html.EscapeString(txt) + `</th>`
}

// HTMLShell wraps a report body in the deliverable HTML document. The shell
// never alters the body, only frames it. An empty gifURL simply omits the
// decorative image.
func HTMLShell(title, content, gifURL string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8"/>
  <title>` + html.EscapeString(title) + `</title>
</head>
<body style="font-family:Arial,Helvetica,sans-serif;color:#333;line-height:1.5;margin:0;padding:24px;">
`)
	if gifURL != "" {
		b.WriteString(`  <img src="` + html.EscapeString(gifURL) + `" alt="Celebration GIF" style="margin: 0 24px; max-width: 100%; height: auto;" />
`)
	}
	b.WriteString(`  <h1 style="margin-top:0;color:#1e293b;">` + html.EscapeString(title) + `</h1>
` + content + `
</body>
</html>`)
	return b.String()
}
