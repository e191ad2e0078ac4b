package chart

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"path/filepath"

	"go-prison-stats/internal/model"
	"go-prison-stats/pkg/router"
	"go-prison-stats/pkg/utils"

	"github.com/pkg/browser"
)

// Display shows a rendered chart. Mode "file" only reports the written
// files; "browser" serves a viewer page and opens it, blocking until ctx is
// done; "none" does nothing.
func Display(ctx context.Context, art *Artifact, spec model.Display) error {
	switch spec.Mode {
	case "none":
		return nil
	case "", "file":
		log.Printf("🖼️ Chart written to %s", art.Path)
		for _, f := range art.Frames {
			log.Printf("🖼️ Frame %s written to %s", f.Label, f.Path)
		}
		return nil
	case "browser":
		return serveViewer(ctx, art, spec.Addr)
	default:
		return fmt.Errorf("unknown display mode %q", spec.Mode)
	}
}

func serveViewer(ctx context.Context, art *Artifact, addr string) error {
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := router.Listen(addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	url := "http://" + ln.Addr().String() + "/"
	log.Printf("🌐 Chart viewer at %s (Ctrl+C to stop)", url)
	go func() {
		if err := browser.OpenURL(url); err != nil {
			log.Printf("⚠️ Could not open a browser: %v", err)
		}
	}()

	return NewViewer(art).Serve(ctx, ln)
}

// NewViewer returns a router serving the viewer page at "/" and the chart
// files under /files/.
func NewViewer(art *Artifact) *router.Router {
	files := map[string]string{filepath.Base(art.Path): art.Path}
	for _, f := range art.Frames {
		files[filepath.Base(f.Path)] = f.Path
	}

	r := router.New()
	r.GET("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := viewerPage.Execute(w, newViewerData(art)); err != nil {
			log.Printf("❌ Viewer page: %v", err)
		}
	})
	r.GET("/files/*", func(w http.ResponseWriter, req *http.Request) {
		path, ok := files[filepath.Base(req.URL.Path)]
		if !ok {
			http.NotFound(w, req)
			return
		}
		http.ServeFile(w, req, path)
	})
	return r
}

type viewerFrame struct {
	Label string
	URL   string
}

type viewerData struct {
	Title        string
	Combined     string
	Frames       []viewerFrame
	FrameMs      int
	TransitionMs int
	Warnings     []string
	Columns      []string
	Rows         [][]string
}

func newViewerData(art *Artifact) viewerData {
	cfg := art.Config
	data := viewerData{
		Title:        cfg.Title,
		Combined:     "/files/" + filepath.Base(art.Path),
		FrameMs:      cfg.FrameDuration,
		TransitionMs: cfg.TransitionDuration,
		Warnings:     art.Warnings,
	}
	for _, f := range art.Frames {
		data.Frames = append(data.Frames, viewerFrame{Label: f.Label, URL: "/files/" + filepath.Base(f.Path)})
	}

	// the hover table: plotted columns first, then hover and custom data
	seen := map[string]bool{}
	candidates := []string{cfg.HoverName, cfg.X, cfg.Color, cfg.Y}
	candidates = append(candidates, cfg.HoverData...)
	candidates = append(candidates, cfg.CustomData...)
	for _, c := range candidates {
		if c == "" || seen[c] || art.Table == nil || !art.Table.HasColumn(c) {
			continue
		}
		seen[c] = true
		data.Columns = append(data.Columns, c)
	}
	if art.Table != nil {
		for _, row := range art.Table.Rows {
			cells := make([]string, len(data.Columns))
			for i, c := range data.Columns {
				cells[i] = utils.FormatValue(row[c])
			}
			data.Rows = append(data.Rows, cells)
		}
	}
	for i, c := range data.Columns {
		data.Columns[i] = cfg.Label(c)
	}
	return data
}

var viewerPage = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 1.5em; }
#chart { max-width: 100%; transition: opacity {{.TransitionMs}}ms ease-in-out; }
table { border-collapse: collapse; margin-top: 1em; }
td, th { border: 1px solid #ccc; padding: 2px 8px; text-align: right; }
.warn { color: #a60; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Warnings}}<p class="warn">{{.}}</p>{{end}}
<div>
<button id="play">Play</button>
<button id="all">All frames</button>
<span id="frame-label"></span>
</div>
<img id="chart" src="{{.Combined}}" alt="{{.Title}}">
<table>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
<script>
const frames = [{{range .Frames}}{label: {{.Label}}, url: {{.URL}}},{{end}}];
const combined = {{.Combined}};
const frameMs = {{.FrameMs}}, transitionMs = {{.TransitionMs}};
const img = document.getElementById("chart");
const lbl = document.getElementById("frame-label");
let timer = null, idx = 0;
function show(url, text) {
  img.style.opacity = 0;
  setTimeout(() => { img.src = url; lbl.textContent = text; img.style.opacity = 1; }, transitionMs);
}
function step() {
  if (frames.length === 0) return;
  const f = frames[idx % frames.length];
  show(f.url, f.label);
  idx++;
}
document.getElementById("play").onclick = () => {
  if (timer) { clearInterval(timer); timer = null; return; }
  step();
  timer = setInterval(step, frameMs + transitionMs);
};
document.getElementById("all").onclick = () => {
  if (timer) { clearInterval(timer); timer = null; }
  show(combined, "");
};
</script>
</body>
</html>
`))
