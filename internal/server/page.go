package server

import (
	"html/template"
	"net/http"

	"github.com/KaramelBytes/esgsynth-cli/internal/prompt"
	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

// Sidebar options.
const (
	optionGeneration  = "generation"
	optionDuplication = "duplication"
)

type pageData struct {
	Option     string
	Industries []string
	Columns    []string
	Rows       []table.Row
	Total      int
	Token      string
	Filename   string
	Comparison string
	Raw        string
	Error      string
	Cached     bool
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, pd pageData) {
	if pd.Option == "" {
		pd.Option = r.URL.Query().Get("option")
	}
	if pd.Option != optionDuplication {
		pd.Option = optionGeneration
	}
	pd.Industries = prompt.Industries
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	if err := pageTmpl.Execute(w, pd); err != nil {
		s.log.Log("render page: %{error}v", err)
	}
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>ESG Data and Reporting</title>
<style>
body { font-family: sans-serif; margin: 0; display: flex; }
nav { width: 14rem; min-height: 100vh; padding: 1rem; background: #2e7bcf; color: #fff; }
nav a { color: #fff; display: block; margin: .5rem 0; }
nav a.active { font-weight: bold; }
main { padding: 1rem 2rem; flex: 1; }
fieldset { margin-bottom: 1.5rem; }
label { display: block; margin: .4rem 0; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: .2rem .5rem; }
.error { color: #b00020; }
pre { background: #f4f4f4; padding: .5rem; white-space: pre-wrap; }
</style>
</head>
<body>
<nav>
<h3>Select Options</h3>
<a href="/?option=generation"{{if eq .Option "generation"}} class="active"{{end}}>ESG Data Generation</a>
<a href="/?option=duplication"{{if eq .Option "duplication"}} class="active"{{end}}>ESG Data Duplication</a>
</nav>
<main>
<h1>ESG Data and Reporting</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Raw}}<h3>Response</h3><pre>{{.Raw}}</pre>{{end}}
{{if .Token}}
<h3>Preview ({{len .Rows}} of {{.Total}} rows{{if .Cached}}, cached{{end}})</h3>
<table>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
<p><a href="/download/{{.Token}}">Download {{.Filename}}</a></p>
{{if .Comparison}}<pre>{{.Comparison}}</pre>{{end}}
{{end}}
{{if eq .Option "generation"}}
<fieldset>
<legend>I have sample data</legend>
<form method="post" action="/extend" enctype="multipart/form-data">
<label>Please upload the file <input type="file" name="file" accept=".csv" required></label>
<label>Number of rows to be generated <input type="number" name="rows" min="0" value="1"></label>
<label>Engine <select name="engine"><option value="copula">Gaussian copula</option><option value="llm">Generative service</option></select></label>
<label>First column for comparison <input type="text" name="compare_a"></label>
<label>Second column for comparison <input type="text" name="compare_b"></label>
<label>Seed <input type="number" name="seed" min="0"></label>
<button type="submit">Generate Data</button>
</form>
</fieldset>
<fieldset>
<legend>I have no sample data</legend>
<form method="post" action="/generate">
<label>Choose the Industry <select name="industry">{{range .Industries}}<option>{{.}}</option>{{end}}</select></label>
<label>What type of data to be generated <input type="text" name="data_type" placeholder="ESG Scope 1"></label>
<label>Company <input type="text" name="company" placeholder="Any Company"></label>
<label>Country <input type="text" name="country" placeholder="India"></label>
<label>Location <input type="text" name="location" placeholder="Bangalore"></label>
<label>Year <input type="text" name="year" placeholder="2023"></label>
<label>Number of rows <input type="number" name="rows" min="0" value="1"></label>
<label>Number of columns <input type="number" name="columns" min="0" value="1"></label>
<button type="submit">Generate</button>
</form>
</fieldset>
{{else}}
<fieldset>
<legend>Duplicate rows</legend>
<form method="post" action="/duplicate" enctype="multipart/form-data">
<label>Please upload the file <input type="file" name="file" accept=".csv" required></label>
<label>Number of rows to add <input type="text" name="rows" value="0"></label>
<button type="submit">Submit</button>
</form>
</fieldset>
{{end}}
</main>
</body>
</html>
`))
