package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/marben/mandel_zoom/display"
	"github.com/marben/mandel_zoom/pipeline"
)

// webServer serves the viewer page on /, frames on the /ws websocket endpoint
// and a JSON activity snapshot on /stats.
func webServer(addr string, hub *display.Hub, p *pipeline.Pipeline) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/stats", statsHandler(hub, p))
	mux.Handle("/", display.ViewerHandler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type statsResponse struct {
	State         string  `json:"state"`
	Frames        uint64  `json:"frames"`
	Scale         float64 `json:"scale"`
	LastFrameMS   float64 `json:"last_frame_ms"`
	InFlight      int     `json:"buffers_in_flight"`
	Allocated     uint64  `json:"buffers_allocated"`
	Retired       uint64  `json:"buffers_retired"`
	Viewers       int     `json:"viewers"`
	ViewerFrames  uint64  `json:"viewer_frames"`
	ViewerDrops   uint64  `json:"viewer_drops"`
	CloseRequests bool    `json:"close_requested"`
}

func statsHandler(hub *display.Hub, p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps := p.Stats()
		hs := hub.Stats()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statsResponse{
			State:         ps.State.String(),
			Frames:        ps.Frames,
			Scale:         ps.Scale,
			LastFrameMS:   float64(ps.LastFrame) / float64(time.Millisecond),
			InFlight:      ps.Valve.InFlight,
			Allocated:     ps.Valve.Allocated,
			Retired:       ps.Valve.Retired,
			Viewers:       hs.Viewers,
			ViewerFrames:  hs.Frames,
			ViewerDrops:   hs.Drops,
			CloseRequests: hub.CloseRequested(),
		})
	}
}
