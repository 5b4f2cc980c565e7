// Package web serves the WhatsApp pairing page and the health endpoint.
package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// Snapshot is the bridge state rendered by the handlers.
type Snapshot struct {
	State  string
	QR     string // latest pairing code; empty when none
	Paired bool
	Target string
}

// Source returns the current snapshot.
type Source func() Snapshot

// NewHandler wires the routes.
func NewHandler(src Source) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", HealthHandler(src))
	mux.Handle("/", PairingHandler(src))
	return mux
}

// HealthHandler reports liveness plus the bridge state.
func HealthHandler(src Source) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := src()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(struct {
			Status string `json:"status"`
			State  string `json:"state"`
			Paired bool   `json:"paired"`
		}{Status: "ok", State: snap.State, Paired: snap.Paired})
	})
}

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="5">
<title>tubebridge</title>
<style>body{font-family:sans-serif;text-align:center;margin-top:3em}</style>
</head>
<body>
<h1>tubebridge</h1>
{{if .Paired}}<p>✅ Connected</p>{{if .Target}}<p>Forwarding to {{.Target}}</p>{{end}}
{{else if .Image}}<p>Scan with WhatsApp → Linked devices</p><img alt="QR code" src="{{.Image}}">
{{else}}<p>Waiting for QR...</p>{{end}}
<p><small>state: {{.State}}</small></p>
</body>
</html>
`))

// PairingHandler renders the QR code while unpaired.
func PairingHandler(src Source) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		snap := src()
		data := struct {
			Snapshot
			Image template.URL
		}{Snapshot: snap}
		if !snap.Paired && snap.QR != "" {
			png, err := qrcode.Encode(snap.QR, qrcode.Medium, 256)
			if err != nil {
				slog.Warn("encode qr", "err", err)
			} else {
				data.Image = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTmpl.Execute(w, data); err != nil {
			slog.Warn("render pairing page", "err", err)
		}
	})
}

// Serve runs the HTTP server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("web server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown failed", "err", err)
		_ = srv.Close()
	}
	return nil
}
