// Package render builds the daily readings HTML page.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/readings.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/readings.html.tmpl"))

const (
	displayLayout         = "Monday, January 2"
	displayLayoutWithYear = "Monday, January 2, 2006"
)

// PageData is everything the readings page shows.
type PageData struct {
	// FirstPassage and SecondPassage are provider HTML, embedded unescaped.
	FirstPassage  string
	SecondPassage string
	Date          time.Time
	// ShowYear adds the year to the heading; month-day keys leave it off.
	ShowYear     bool
	PreviousDate string
	NextDate     string
}

type pageView struct {
	DisplayDate   string
	FirstPassage  template.HTML
	SecondPassage template.HTML
	PreviousDate  string
	NextDate      string
}

// FormatDisplayDate renders t the way the page heading shows it,
// e.g. "Thursday, January 15".
func FormatDisplayDate(t time.Time, withYear bool) string {
	if withYear {
		return t.Format(displayLayoutWithYear)
	}
	return t.Format(displayLayout)
}

// Page renders the readings page. It performs no I/O.
func Page(data PageData) (string, error) {
	view := pageView{
		DisplayDate:   FormatDisplayDate(data.Date, data.ShowYear),
		FirstPassage:  template.HTML(data.FirstPassage),
		SecondPassage: template.HTML(data.SecondPassage),
		PreviousDate:  data.PreviousDate,
		NextDate:      data.NextDate,
	}

	var sb strings.Builder
	if err := pageTemplate.Execute(&sb, view); err != nil {
		return "", fmt.Errorf("failed to render readings page: %w", err)
	}
	return sb.String(), nil
}
