package handler

import (
	"html/template"
	"net/http"
	"path/filepath"
	"visionserver/internal/config"
	"visionserver/internal/logger"
	"visionserver/internal/service/status"
)

const fallbackIndex = `<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<img src="/video_feed" alt="camera stream">
<p id="status">{{.Status}}</p>
<script>
setInterval(function () {
  fetch("/text_feed").then(function (r) { return r.text(); }).then(function (t) {
    document.getElementById("status").textContent = t;
  });
}, 1000);
</script>
</body>
</html>
`

type indexData struct {
	Title  string
	Status string
}

// IndexHandler renders the landing page from index.html in the static
// directory, or a built-in page when the template is missing.
func IndexHandler(cfg *config.Config, st *status.Status, logger *logger.Logger) http.HandlerFunc {
	path := filepath.Join(cfg.StaticDirectory, "index.html")
	tmpl, err := template.ParseFiles(path)
	if err != nil {
		logger.Warning("Using built-in landing page: %v", err)
		tmpl = template.Must(template.New("index").Parse(fallbackIndex))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		data := indexData{Title: "Object Distance Camera", Status: st.Text()}
		if err := tmpl.Execute(w, data); err != nil {
			logger.Error("Failed to render landing page: %v", err)
		}
	}
}
