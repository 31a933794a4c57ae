package serialmux

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"tailscale.com/tsweb"
)

// AttachAdminRoutes attaches debugging endpoints to the given HTTP mux under
// /debug/. These are reachable only over localhost/Tailscale and are not part
// of the public surface.
func (s *SerialMux[T]) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	// Manual line injection, for exercising the link without the scanner.
	debug.HandleSilentFunc("send-line", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		line := strings.TrimSpace(r.FormValue("line"))
		if line == "" {
			http.Error(w, "Missing line", http.StatusBadRequest)
			return
		}
		if err := s.WriteLine(line); err != nil {
			http.Error(w, "Failed to write line", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, fmt.Sprintf("Wrote %q to serial port", line))
	})

	// Server-Sent Events tail of the raw telemetry stream.
	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		id, c := s.Subscribe()
		defer s.Unsubscribe(id)

		w.Write([]byte(": ping\n\n"))
		w.(http.Flusher).Flush()

		for {
			select {
			case payload, ok := <-c:
				if !ok {
					return
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return
				}
				w.(http.Flusher).Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
}
