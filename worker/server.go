package worker

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/asticode/go-astilog"
	astihttp "github.com/asticode/go-astitools/http"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
)

// Serve exposes the worker API and the routes of its operatable runnables
func (w *Worker) Serve() {
	// Create router
	r := httprouter.New()

	// Add routes
	r.GET("/api/ok", w.ok)
	r.POST("/api/messages", w.handleWorkerMessage)

	// Loop through runnables
	w.mr.Lock()
	for _, rn := range w.rs {
		// Not operatable
		o, ok := rn.(accessvoice.Operatable)
		if !ok {
			continue
		}

		// Add routes
		for p, rs := range o.Routes() {
			for m, h := range rs {
				r.Handle(m, fmt.Sprintf("/runnables/%s/routes%s", rn.Metadata().Name, p), h)
			}
		}
	}
	w.mr.Unlock()

	// Chain middlewares
	h := astihttp.ChainMiddlewaresWithPrefix(r, []string{"/api/", "/runnables/"}, astihttp.MiddlewareContentType("application/json"))

	// Serve
	w.w.Serve(w.o.Server.Addr, h)
}

func (w *Worker) ok(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {}

func (w *Worker) handleWorkerMessage(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {
	// Log
	astilog.Debug("worker: handling worker message")

	// Unmarshal
	var m accessvoice.Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		accessvoice.WriteHTTPError(rw, http.StatusBadRequest, errors.Wrap(err, "worker: unmarshaling failed"))
		return
	}

	// Dispatch
	w.d.Dispatch(&m)
}
