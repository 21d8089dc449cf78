package viewer

import (
	"html/template"
	"net/http"

	"github.com/graphdesk/graphdesk/internal/chat"
	"github.com/graphdesk/graphdesk/internal/pipeline"
)

type indexData struct {
	KnowledgeBaseID int64
	Documents       []pipeline.Document
}

type documentData struct {
	Document *pipeline.Document
	Body     template.HTML
}

type graphData struct {
	NodeCount int
	EdgeCount int
	Mermaid   string
}

type chatData struct {
	Messages []chat.Message
}

type errorData struct {
	Message string
}

// pageTemplates holds all viewer pages, sharing the base layout.
var pageTemplates = template.Must(template.New("base").Parse(baseTemplate))

func init() {
	template.Must(pageTemplates.New("index").Parse(indexTemplate))
	template.Must(pageTemplates.New("document").Parse(documentTemplate))
	template.Must(pageTemplates.New("graph").Parse(graphTemplate))
	template.Must(pageTemplates.New("chat").Parse(chatTemplate))
	template.Must(pageTemplates.New("error").Parse(errorTemplate))
}

func (s *Server) renderPage(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) renderErrorPage(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadGateway)
	_ = pageTemplates.ExecuteTemplate(w, "error", errorData{Message: err.Error()})
}

const baseTemplate = `{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>graphdesk</title>
  <style>
    body { font-family: -apple-system, sans-serif; max-width: 900px; margin: 2rem auto; padding: 0 1rem; color: #212529; }
    nav a { margin-right: 1rem; color: #228be6; text-decoration: none; }
    table { border-collapse: collapse; width: 100%; }
    th, td { border: 1px solid #dee2e6; padding: 0.4rem 0.6rem; text-align: left; }
    .status { font-family: monospace; }
    .msg-user { background: #e7f5ff; padding: 0.6rem; margin: 0.4rem 0; border-radius: 4px; }
    .msg-assistant { background: #f8f9fa; padding: 0.6rem; margin: 0.4rem 0; border-radius: 4px; }
    .meta { color: #868e96; font-size: 0.85rem; }
    pre.mermaid { background: #f8f9fa; padding: 1rem; overflow-x: auto; }
  </style>
</head>
<body>
<nav><a href="/">Documents</a><a href="/graph">Graph</a><a href="/chat">Chat</a></nav>
{{end}}
{{define "foot"}}</body></html>{{end}}`

const indexTemplate = `{{template "head"}}
<h1>Knowledge base {{.KnowledgeBaseID}}</h1>
<table>
  <tr><th>ID</th><th>File</th><th>Status</th><th>Group</th></tr>
  {{range .Documents}}
  <tr>
    <td><a href="/documents/{{.ID}}">{{.ID}}</a></td>
    <td>{{.FileName}}</td>
    <td class="status">{{.Status}}</td>
    <td class="status">{{.DocumentID}}</td>
  </tr>
  {{end}}
</table>
{{template "foot"}}`

const documentTemplate = `{{template "head"}}
<h1>{{.Document.FileName}}</h1>
<p class="meta">upload {{.Document.ID}} · status {{.Document.Status}}</p>
<article>{{.Body}}</article>
{{template "foot"}}`

const graphTemplate = `{{template "head"}}
<h1>Graph</h1>
<p class="meta">{{.NodeCount}} nodes · {{.EdgeCount}} edges</p>
<pre class="mermaid">{{.Mermaid}}</pre>
<script type="module">
  import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.esm.min.mjs";
  mermaid.initialize({ startOnLoad: true });
</script>
{{template "foot"}}`

const chatTemplate = `{{template "head"}}
<h1>Chat transcript</h1>
{{if not .Messages}}<p class="meta">No cached conversation.</p>{{end}}
{{range .Messages}}
<div class="msg-{{.Role}}">
  <div class="meta">{{.Role}}{{if .HasContext}} · {{.RetrievalCount}} sources{{end}}</div>
  <div>{{.Content}}</div>
</div>
{{end}}
{{template "foot"}}`

const errorTemplate = `{{template "head"}}
<h1>Something went wrong</h1>
<p class="status">{{.Message}}</p>
{{template "foot"}}`
