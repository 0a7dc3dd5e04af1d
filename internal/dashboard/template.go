package dashboard

// indexHTML is the single status page. It renders server-side only, no
// static assets to serve.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="15">
<title>lampctl{{if .domain}} &middot; {{.domain}}{{end}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin-bottom: 2rem; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.8rem; text-align: left; }
th { background: #f4f4f4; }
.up { color: #0a7d00; }
.down { color: #b00020; }
</style>
</head>
<body>
<h1>lampctl{{if .domain}} &mdash; {{.domain}}{{end}}</h1>
{{if .error}}<p class="down">{{.error}}</p>{{end}}
<h2>Containers</h2>
<table>
<tr><th>Name</th><th>Status</th></tr>
{{range .containers}}
<tr><td>{{.Name}}</td><td class="{{if .Running}}up{{else}}down{{end}}">{{.Status}}</td></tr>
{{end}}
</table>
<h2>Recent backup runs</h2>
<table>
<tr><th>Kind</th><th>Status</th><th>Path</th><th>Finished</th></tr>
{{range .runs}}
<tr><td>{{.Kind}}</td><td class="{{if eq .Status "ok"}}up{{else}}down{{end}}">{{.Status}}</td><td>{{.Path}}</td><td>{{.FinishedAt.Format "2006-01-02 15:04:05"}}</td></tr>
{{else}}
<tr><td colspan="4">none recorded</td></tr>
{{end}}
</table>
</body>
</html>
`
