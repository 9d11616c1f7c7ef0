package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"docflow/api/internal/recon"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/report.html")
	if err != nil {
		// Fallback to built-in template if file not found
		reportTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	reportTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(string(templateContent)))
}

// TemplateData holds data for report template rendering
type TemplateData struct {
	Title       string
	GeneratedAt time.Time
	Sets        []recon.DocumentSet
	LineItems   []recon.LineItemRecord
	TotalSets   int
	Matched     int
	Exceptions  int
}

func buildTemplateData(title string, report Report, includeLineItems bool) TemplateData {
	data := TemplateData{
		Title:       title,
		GeneratedAt: report.GeneratedAt,
		Sets:        report.Sets,
		TotalSets:   len(report.Sets),
	}
	for _, set := range report.Sets {
		if set.Exception == recon.ExceptionMatch {
			data.Matched++
		} else {
			data.Exceptions++
		}
	}
	if includeLineItems {
		data.LineItems = report.LineItems
	}
	return data
}

// RenderReportHTML renders the report template with provided data
func RenderReportHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 900px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    table { border-collapse: collapse; width: 100%; }
    th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">Generated {{formatDate .GeneratedAt "Jan 2, 2006 15:04"}} | {{.TotalSets}} sets | {{.Matched}} matched | {{.Exceptions}} exceptions</div>
  <table>
    <tr><th>Set</th><th>PO</th><th>Invoice</th><th>Packing List</th><th>Vendor</th><th>Qty</th><th>Status</th></tr>
    {{range .Sets}}<tr><td>{{.DocumentSet}}</td><td>{{.PurchaseOrderNo}}</td><td>{{.InvoiceNo}}</td><td>{{.PackingList}}</td><td>{{.Vendor}}</td><td>{{.TotalQuantity}}</td><td>{{.Exception}}</td></tr>{{end}}
  </table>
</body>
</html>`
