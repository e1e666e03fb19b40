package output

import (
	"fmt"
	"html/template"
	"os"

	apperrors "ghasreport/internal/errors"
	"ghasreport/internal/types"
)

var htmlTemplate = template.Must(template.New("report").Parse(`
<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Project}} &mdash; {{.Kind}}</title>
<style>
body { font-family: Arial; margin: 40px; }
h1 { color: #333; }
table { border-collapse: collapse; width: 100%; margin-top: 20px; }
th, td { border: 1px solid #ddd; padding: 8px; }
th { background-color: #f2f2f2; text-align: left; }
tr:nth-child(even) { background-color: #fafafa; }
</style>
</head>
<body>

<h1>{{.Project}}</h1>
<p>Report: {{.Kind}} &mdash; {{len .Rows}} row(s){{if .Skipped}}, {{.Skipped}} skipped{{end}}</p>

<table>
<tr>
{{range .Header}}<th>{{.}}</th>{{end}}
</tr>
{{range .Rows}}
<tr>
{{range .}}<td>{{.}}</td>{{end}}
</tr>
{{end}}
</table>

</body>
</html>
`))

func writeHTML(path string, rep *types.ProjectReport) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewIOError(fmt.Sprintf("creating %s", path), err)
	}
	defer f.Close()

	if err := htmlTemplate.Execute(f, rep); err != nil {
		return apperrors.NewIOError(fmt.Sprintf("writing %s", path), err)
	}
	return nil
}
