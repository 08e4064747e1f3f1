package health

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"subgate/lib/api/response"
)

type status struct {
	Status   string `json:"status"`
	Instance string `json:"instance"`
	Started  string `json:"started"`
}

// Live answers the liveness probe. It reads no gate state at all; the
// process being able to serve this response is the whole signal.
func Live(_ *slog.Logger, instance string, started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok(status{
			Status:   "ok",
			Instance: instance,
			Started:  started.UTC().Format(time.RFC3339),
		}))
	}
}
