package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"auto_pinterest_content_engine/queue"
)

// QueueReader is the slice of the local queue the dashboard needs.
type QueueReader interface {
	List(ctx context.Context) ([]queue.Entry, error)
}

// Server renders a read-only dashboard over the local content queue.
type Server struct {
	queue QueueReader
	log   *logrus.Logger
	page  *template.Template
}

func New(queueReader QueueReader, logger *logrus.Logger) (*Server, error) {
	if queueReader == nil {
		return nil, errors.New("queue reader is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	page, err := template.New("dashboard").Parse(dashboardTemplate)
	if err != nil {
		return nil, err
	}
	return &Server{queue: queueReader, log: logger, page: page}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleDashboard)
	return s.logMiddleware(mux)
}

type dashboardRow struct {
	Account     string
	Topic       string
	GeneratedAt string
	Title       string
	Description template.HTML
	Hashtags    []string
	Status      string
	HasImage    bool
	HasVideo    bool
}

type dashboardData struct {
	Rows []dashboardRow
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	entries, err := s.queue.List(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to list the content queue")
		http.Error(w, "failed to read queue", http.StatusInternalServerError)
		return
	}

	rows := make([]dashboardRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, dashboardRow{
			Account:     entry.Account,
			Topic:       entry.Topic,
			GeneratedAt: entry.GeneratedAt,
			Title:       entry.Title,
			Description: renderMarkdown(entry.Description),
			Hashtags:    entry.Hashtags,
			Status:      entry.Status,
			HasImage:    entry.ImagePath != "",
			HasVideo:    entry.VideoPath != "",
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Account != rows[j].Account {
			return rows[i].Account < rows[j].Account
		}
		return rows[i].GeneratedAt > rows[j].GeneratedAt
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, dashboardData{Rows: rows}); err != nil {
		s.log.WithError(err).Error("Failed to render the dashboard")
	}
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Infof("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

const dashboardTemplate = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Content Queue</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.5em; text-align: left; vertical-align: top; }
th { background: #f5f5f5; }
.tag { color: #366; margin-right: 0.4em; }
</style>
</head>
<body>
<h1>Content Queue</h1>
<table>
<tr><th>Account</th><th>Generated</th><th>Topic</th><th>Title</th><th>Description</th><th>Hashtags</th><th>Media</th><th>Status</th></tr>
{{range .Rows}}
<tr>
<td>{{.Account}}</td>
<td>{{.GeneratedAt}}</td>
<td>{{.Topic}}</td>
<td>{{.Title}}</td>
<td>{{.Description}}</td>
<td>{{range .Hashtags}}<span class="tag">{{.}}</span>{{end}}</td>
<td>{{if .HasImage}}🖼{{end}}{{if .HasVideo}} 🎬{{end}}</td>
<td>{{.Status}}</td>
</tr>
{{else}}
<tr><td colspan="8">Nothing generated yet.</td></tr>
{{end}}
</table>
</body>
</html>
`
