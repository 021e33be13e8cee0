// Package metrics serves the statsviz debug endpoint on a side port.
// The teacher's mains (march/main.go, gate/main.go) both spawn a
// goroutine calling a common/metrics.Serve that was referenced but not
// present in the retrieved pack; this authors that package from
// scratch against the real github.com/arl/statsviz API the teacher
// depends on.
package metrics

import (
	"net/http"

	"github.com/arl/statsviz"

	"mahjongcore/internal/logging"
)

// Serve registers the statsviz handler and blocks serving HTTP on addr.
// Intended to be run in its own goroutine by the CLI entrypoint.
func Serve(addr string) {
	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		logging.Error("statsviz registration failed: %v", err)
		return
	}
	logging.Info("metrics endpoint listening on http://%s/debug/statsviz/", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logging.Error("metrics endpoint stopped: %v", err)
	}
}
