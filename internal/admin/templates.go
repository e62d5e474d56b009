package admin

import (
	_ "embed"
	"html/template"
)

const settingsTemplateName = "settings.html"

//go:embed templates/settings.html
var settingsHTML string

var settingsTemplate = template.Must(template.New(settingsTemplateName).Parse(settingsHTML))
