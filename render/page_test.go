package render

import (
	"strings"
	"testing"
	"time"
)

func defaultData() PageData {
	return PageData{
		FirstPassage:  `<div class="passage">Genesis 1 content</div>`,
		SecondPassage: `<div class="passage">Matthew 1 content</div>`,
		Date:          time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
		PreviousDate:  "01-14",
		NextDate:      "01-16",
	}
}

func mustRender(t *testing.T, data PageData) string {
	t.Helper()
	html, err := Page(data)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	return html
}

func assertContains(t *testing.T, html string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(html, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
}

func TestPageDocumentStructure(t *testing.T) {
	html := mustRender(t, defaultData())

	if !strings.HasPrefix(html, "<!DOCTYPE html>") {
		t.Errorf("page does not start with a doctype: %.40q", html)
	}
	assertContains(t, html,
		"<html lang='en'>",
		"</html>",
		"<meta charset='UTF-8'>",
		"viewport",
		"Daily Bible readings from The Axis Church in Nashville, TN",
		"max-width: 750px",
		"font-family:",
	)
}

func TestPageTitleAndHeading(t *testing.T) {
	html := mustRender(t, defaultData())
	assertContains(t, html,
		"<title>Readings for Thursday, January 15</title>",
		"January 15",
	)
	if strings.Contains(html, "2026") {
		t.Error("month-day page shows a year")
	}
}

func TestPageEmbedsPassagesVerbatim(t *testing.T) {
	data := defaultData()
	data.FirstPassage = `<h2 class="extra_text">Genesis 1</h2><p id="p01001001_01-1"><b class="chapter-num" id="v01001001-1">1:1&nbsp;</b>In the beginning</p>`
	html := mustRender(t, data)

	assertContains(t, html, data.FirstPassage, "Matthew 1 content")
}

func TestPageNavigation(t *testing.T) {
	html := mustRender(t, defaultData())
	assertContains(t, html,
		`href="?date=01-14"`,
		`href="?date=01-16"`,
		"Previous day",
		"Next day",
		`class="nav-arrow"`,
		"←",
		"→",
	)
}

func TestPagePrayerAndCopyright(t *testing.T) {
	html := mustRender(t, defaultData())
	assertContains(t, html,
		"Lord, open my eyes",
		"<strong>see</strong>",
		"<strong>hear</strong>",
		"<strong>know</strong>",
		"<strong>experience</strong>",
		"Amen",
		"ESV® Bible",
		"Crossway",
		"500 verses",
	)
}

func TestPageDateFormatting(t *testing.T) {
	tests := []struct {
		date     time.Time
		showYear bool
		prev     string
		next     string
		want     string
	}{
		{time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC), false, "07-03", "07-05", "Saturday, July 4"},
		{time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC), false, "12-24", "12-26", "Friday, December 25"},
		{time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), false, "12-31", "01-02", "Thursday, January 1"},
		{time.Date(2021, time.February, 23, 0, 0, 0, 0, time.UTC), true, "2021-02-22", "2021-02-24", "Tuesday, February 23, 2021"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			data := defaultData()
			data.Date = tt.date
			data.ShowYear = tt.showYear
			data.PreviousDate = tt.prev
			data.NextDate = tt.next

			html := mustRender(t, data)
			assertContains(t, html,
				"Readings for "+tt.want,
				`href="?date=`+tt.prev+`"`,
				`href="?date=`+tt.next+`"`,
			)
		})
	}
}
