package httpapi

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
)

var noteTemplate = template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 800px; margin: 50px auto; padding: 20px; background: #f5f5f5; }
.container { background: white; padding: 40px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
h1 { color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px; }
.meta { color: #7f8c8d; font-size: 0.9em; margin-bottom: 20px; }
.content { line-height: 1.6; color: #34495e; white-space: pre-wrap; }
</style>
</head>
<body>
<div class="container">
<h1>{{.Title}}</h1>
<div class="meta"><strong>Owner:</strong> {{.Owner}} | <strong>Created:</strong> {{.CreatedAt}}</div>
<div class="content">{{.Content}}</div>
</div>
</body>
</html>
`))

var sealedTemplate = template.Must(template.New("sealed").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Mischief Managed</title>
<style>
body { font-family: 'Courier New', monospace; max-width: 900px; margin: 50px auto; padding: 20px; background: #1a1a1a; color: #00ff00; }
.container { background: #0d0d0d; padding: 40px; border: 2px solid #00ff00; border-radius: 8px; }
h1 { text-align: center; font-size: 2.5em; text-shadow: 0 0 10px #00ff00; margin-bottom: 30px; }
.content { word-break: break-all; line-height: 1.4; font-size: 0.9em; }
</style>
</head>
<body>
<div class="container">
<h1>Mischief Managed</h1>
<div class="meta">{{.ID}}</div>
<div class="content">{{.Ciphertext}}</div>
</div>
</body>
</html>
`))

// respondHTML renders tmpl fully before writing so a template failure can
// still be reported with an error status.
func (a *API) respondHTML(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		a.respondErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (a *API) handleDownloadNote(w http.ResponseWriter, r *http.Request, principal string) {
	note, err := a.svc.ReadNote(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	a.respondHTML(w, r, noteTemplate, map[string]string{
		"Title":     note.Title,
		"Owner":     note.Owner,
		"CreatedAt": timestamp(note.CreatedAt),
		"Content":   note.Content,
	})
}

func (a *API) handleAdminDownloadNote(w http.ResponseWriter, r *http.Request, principal string) {
	note, ciphertext, err := a.svc.AdminReadCiphertext(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		a.respondErr(w, r, err)
		return
	}
	a.respondHTML(w, r, sealedTemplate, map[string]string{
		"ID":         note.ID,
		"Ciphertext": base64.StdEncoding.EncodeToString(ciphertext),
	})
}
