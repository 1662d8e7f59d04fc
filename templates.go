package main

import (
	"embed"
	"html/template"
	"time"

	"github.com/arunvm123/eventease/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const dateTimeInputLayout = "2006-01-02T15:04"

var templateFuncs = template.FuncMap{
	"formatDate":      formatTime(model.DateLayout),
	"formatDateTime":  formatTime(dateTimeInputLayout),
	"displayDateTime": formatTime("2006-01-02 15:04"),
}

func formatTime(layout string) func(time.Time) string {
	return func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(layout)
	}
}

func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}
