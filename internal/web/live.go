package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"petguard/internal/guard"
)

const liveHeartbeat = 25 * time.Second

type liveEvent struct {
	name string
	data string
}

type liveSummary struct {
	FullName    string `json:"full_name"`
	Pets        int    `json:"pets"`
	ActivePets  int    `json:"active_pets"`
	MaxPets     int    `json:"max_pets"`
	Available   int    `json:"available"`
	ReportCount int    `json:"reports"`
}

// handleLive es el canal del dashboard abierto: cada conexión SSE monta un
// ClientGuard y cerrar la conexión lo desmonta.
//
//	event: ready     -> resumen del dashboard
//	event: navigate  -> la página debe ir a data (login)
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// el stream vive más que el WriteTimeout del server
	_ = rc.SetWriteDeadline(time.Time{})

	events := make(chan liveEvent, 4)
	push := func(ev liveEvent) {
		select {
		case events <- ev:
		default:
		}
	}

	g := guard.NewClientGuard(guard.ClientOptions{
		Sessions: s.sessions,
		Loader:   dashboardLoader{s: s},
		Navigator: guard.NavigatorFunc(func(to string) {
			push(liveEvent{name: "navigate", data: to})
		}),
		OnReady: func(snap guard.Snapshot) {
			v := newDashboardView(snap)
			b, err := json.Marshal(liveSummary{
				FullName:    v.Profile.FullName,
				Pets:        len(v.Pets),
				ActivePets:  v.ActivePets,
				MaxPets:     v.Profile.MaxPets,
				Available:   v.Available,
				ReportCount: v.ReportCount,
			})
			if err != nil {
				return
			}
			push(liveEvent{name: "ready", data: string(b)})
		},
		Timeout:   s.clientTimeout,
		LoginPath: s.policy.LoginPath,
		Debug:     s.policy.Debug,
		Logger:    s.log,
	})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-store")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.log.Warn("live stream not supported", map[string]any{"error": err})
		return
	}

	if err := g.Mount(r.Context(), s.cookies.ReadTokens(r)); err != nil {
		return
	}
	defer g.Unmount()

	ticker := time.NewTicker(liveHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		case ev := <-events:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, ev.data); err != nil {
				return
			}
			_ = rc.Flush()
			if ev.name == "navigate" {
				return
			}
		}
	}
}
