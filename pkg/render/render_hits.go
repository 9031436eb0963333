// Render HTML for viewing filtered hits

package render

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"net/url"

	"github.com/yumyai/blastview/logger"
	"github.com/yumyai/blastview/pkg/db"
	"github.com/yumyai/blastview/pkg/model"
	"go.uber.org/zap"
)

// Number of merged rows shown on screen; the download carries all of them.
const AggregatePreviewRows = 50

// calculateColorByIdentity maps an identity of 70 to 100 onto red to green.
func calculateColorByIdentity(value float64) string {

	if value >= 100 {
		return fmt.Sprintf("#%02X%02X00", 0, 255)
	}

	// Grey below 70%
	if value < 70 {
		return "#8B8989"
	}

	normalized := (value - 70) / (100 - 70)

	var r, g int
	if normalized <= 0.5 {
		r = 255
		g = int(math.Round(normalized * 2 * 255))
	} else {
		r = int(math.Round((1 - normalized) * 2 * 255))
		g = 255
	}

	return fmt.Sprintf("#%02X%02X00", r, g)
}

// ParamForm is what the shared filter form needs.
type ParamForm struct {
	Action      string
	Method      string
	Params      model.Params
	SortColumns []model.Column
}

func NewParamForm(action, method string, p model.Params) ParamForm {
	return ParamForm{Action: action, Method: method, Params: p, SortColumns: model.SortColumns()}
}

// IndexPageData lists the stored blocks.
type IndexPageData struct {
	Blocks   []string
	Form     ParamForm
	Query    url.Values // current filter params, appended to block links
	Message  string
	HasBlock bool
	Uploads  []db.Upload
}

// QueryPageData is one block after filtering.
type QueryPageData struct {
	Block    string
	Status   string
	Reason   string
	Rows     []model.Hit
	Comments []string
	Form     ParamForm
	Download string
}

// AggregatePageData is the merged result of a session.
type AggregatePageData struct {
	Ready     bool
	TotalHits int
	Blocks    int
	Rows      []model.Hit
	Shown     int
	Skipped   []model.SkippedBlock
	Form      ParamForm
	Download  string
}

var (
	index_page_template     *template.Template
	query_page_template     *template.Template
	aggregate_page_template *template.Template
)

// init initializes the templates used for rendering the HTML pages.
func init() {
	funcs := template.FuncMap{
		"identityColor": calculateColorByIdentity,
		"linkQuery": func(block string, q url.Values) string {
			return "/query/" + url.PathEscape(block) + "?" + q.Encode()
		},
	}

	layoutTmpl := `
	{{define "header"}}
	<!DOCTYPE html>
	<html>
	<head>
	    <link href="/static/style.css" rel="stylesheet"></link>
		<title>{{.}}</title>
	</head>
	<body>
		<header class="app-header">
			<h1 class="app-name">BLAST result viewer</h1>
			<p class="app-description">Upload, split, filter and download BLAST tabular reports.</p>
		</header>
	{{end}}
	{{define "footer"}}
	</body>
	</html>
	{{end}}
	`

	paramFormTmpl := `
	{{define "paramForm"}}
	<form class="param-form" action="{{.Action}}" method="{{.Method}}">
		<label>Min identity (%): <input type="number" name="identity" min="0" max="100" step="any" value="{{.Params.Identity}}"></label>
		<label>Min alignment_length: <input type="number" name="alignment_length" value="{{.Params.AlignmentLength}}"></label>
		<label>Max mismatches: <input type="number" name="mismatches" value="{{.Params.Mismatches}}"></label>
		<label>Max e-value: <input type="text" name="evalue" value="{{printf "%.1e" .Params.EValue}}"></label>
		<label>Top N per query: <input type="number" name="top_n" min="1" value="{{.Params.TopN}}"></label>
		<label>Sort by:
			<select name="sort_column">
			{{range .SortColumns}}
				<option value="{{.}}" {{if eq . $.Params.SortColumn}}selected{{end}}>{{.}}</option>
			{{end}}
			</select>
		</label>
		<label>Order:
			<select name="sort_direction">
				<option value="descending" {{if not .Params.Ascending}}selected{{end}}>Descending</option>
				<option value="ascending" {{if .Params.Ascending}}selected{{end}}>Ascending</option>
			</select>
		</label>
		<input type="submit" value="Apply">
	</form>
	{{end}}
	`

	hitTableTmpl := `
	{{define "hitTable"}}
	<table class="hittable" border="1">
		<tr>
			<th>query</th><th>subject</th><th>identity</th><th>alignment_length</th>
			<th>mismatches</th><th>gap_opens</th><th>q_start</th><th>q_end</th>
			<th>s_start</th><th>s_end</th><th>evalue</th><th>bit_score</th>
		</tr>
		{{range .}}
		<tr>
			<td>{{.Query}}</td>
			<td>{{.Subject}}</td>
			<td style="background-color: {{identityColor .Identity}}">{{.Identity}}</td>
			<td>{{.AlignmentLength}}</td>
			<td>{{.Mismatches}}</td>
			<td>{{.GapOpens}}</td>
			<td>{{.QStart}}</td>
			<td>{{.QEnd}}</td>
			<td>{{.SStart}}</td>
			<td>{{.SEnd}}</td>
			<td>{{.EValue}}</td>
			<td>{{.BitScore}}</td>
		</tr>
		{{end}}
	</table>
	{{end}}
	`

	indexTmpl := `
	{{template "header" "BLAST result viewer"}}
		<form action="/upload" method="POST" enctype="multipart/form-data">
			<label>BLAST tabular report (with "# Query:" lines): <input type="file" name="file" accept=".txt,.tsv"></label>
			<input type="submit" value="Upload and split">
		</form>
		{{if .Message}}<p class="message">{{.Message}}</p>{{end}}
		{{if .HasBlock}}
			<h2>Filter all queries</h2>
			{{template "paramForm" .Form}}
			<h2>Queries ({{len .Blocks}})</h2>
			<ul>
			{{range .Blocks}}
				<li><a href="{{linkQuery . $.Query}}">{{.}}</a></li>
			{{end}}
			</ul>
		{{else}}
			<p>No query data yet, upload a BLAST result file first.</p>
		{{end}}
		{{if .Uploads}}
			<h2>Recent uploads</h2>
			<table border="1">
				<tr><th>report</th><th>size (bytes)</th><th>queries</th><th>lines dropped</th><th>uploaded</th></tr>
				{{range .Uploads}}
				<tr><td>{{.ReportName}}</td><td>{{.SizeBytes}}</td><td>{{.Blocks}}</td><td>{{.Discarded}}</td><td>{{.UploadedAt.Format "2006-01-02 15:04:05"}}</td></tr>
				{{end}}
			</table>
		{{end}}
	{{template "footer"}}
	`

	queryTmpl := `
	{{template "header" .Block}}
		<p><a href="/">Back to queries</a></p>
		{{template "paramForm" .Form}}
		<h2>{{.Block}}: filtered result (top {{.Form.Params.TopN}})</h2>
		{{if .Reason}}
			<p class="message">This block has no table ({{.Status}}: {{.Reason}}).</p>
		{{else}}
			<p>{{len .Rows}} hits. [<a href="{{.Download}}">Download TSV</a>]</p>
			{{template "hitTable" .Rows}}
		{{end}}
		<details>
			<summary>Original annotation</summary>
			<pre>{{range .Comments}}{{.}}
{{end}}</pre>
		</details>
	{{template "footer"}}
	`

	aggregateTmpl := `
	{{template "header" "Merged result"}}
		<p><a href="/">Back to queries</a></p>
		{{template "paramForm" .Form}}
		{{if .Ready}}
			<h2>All queries: merged result</h2>
			<p>{{.TotalHits}} hits across {{.Blocks}} queries. Showing the first {{.Shown}}. [<a href="{{.Download}}">Download merged TSV</a>]</p>
			{{template "hitTable" .Rows}}
			{{if .Skipped}}
			<details>
				<summary>Skipped query files ({{len .Skipped}})</summary>
				<ul>
				{{range .Skipped}}<li>{{.Name}}: {{.Reason}}</li>{{end}}
				</ul>
			</details>
			{{end}}
		{{else}}
			<p>No merged result yet. Apply the filter to run it over every query.</p>
		{{end}}
	{{template "footer"}}
	`

	base := template.Must(template.New("base").Funcs(funcs).Parse(layoutTmpl + paramFormTmpl + hitTableTmpl))
	index_page_template = template.Must(template.Must(base.Clone()).New("index_page").Parse(indexTmpl))
	query_page_template = template.Must(template.Must(base.Clone()).New("query_page").Parse(queryTmpl))
	aggregate_page_template = template.Must(template.Must(base.Clone()).New("aggregate_page").Parse(aggregateTmpl))
}

func RenderIndexPage(w io.Writer, data IndexPageData) error {
	logger.Debug("Rendering index page", zap.Int("blocks", len(data.Blocks)))
	return index_page_template.ExecuteTemplate(w, "index_page", data)
}

func RenderQueryPage(w io.Writer, data QueryPageData) error {
	logger.Debug("Rendering query page", zap.String("block", data.Block), zap.Int("rows", len(data.Rows)))
	return query_page_template.ExecuteTemplate(w, "query_page", data)
}

// RenderAggregatePage shows at most AggregatePreviewRows rows of the merged result.
func RenderAggregatePage(w io.Writer, data AggregatePageData) error {
	if len(data.Rows) > AggregatePreviewRows {
		data.Rows = data.Rows[:AggregatePreviewRows]
	}
	data.Shown = len(data.Rows)
	logger.Debug("Rendering aggregate page", zap.Bool("ready", data.Ready), zap.Int("total_hits", data.TotalHits))
	return aggregate_page_template.ExecuteTemplate(w, "aggregate_page", data)
}
