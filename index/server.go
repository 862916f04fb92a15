package index

import (
	"encoding/json"
	"net/http"

	astihttp "github.com/asticode/go-astitools/http"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/preferences"
)

// Server prefixes
const (
	apiPrefix = "/api"
)

// Serve spawns the server
func (i *Index) Serve() {
	// Create router
	r := httprouter.New()

	// API
	r.GET(apiPrefix+"/ok", i.ok)
	r.GET(apiPrefix+"/references", i.references)
	r.GET(apiPrefix+"/preferences", i.getPreferences)
	r.PATCH(apiPrefix+"/preferences", i.patchPreferences)

	// Websockets
	r.GET("/websockets/ui", i.handleUIWebsocket)
	r.GET("/websockets/worker", i.handleWorkerWebsocket)

	// Chain middlewares
	h := astihttp.ChainMiddlewares(r, astihttp.MiddlewareBasicAuth(i.o.Server.Username, i.o.Server.Password))
	h = astihttp.ChainMiddlewaresWithPrefix(h, []string{apiPrefix + "/"}, astihttp.MiddlewareContentType("application/json"))

	// Serve
	i.w.Serve(i.o.Server.Addr, h)
}

func (i *Index) ok(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {}

type APIReferences struct {
	Preferences preferences.Preferences `json:"preferences"`
	Websocket   APIWebsocket            `json:"websocket"`
	Workers     []accessvoice.Worker    `json:"workers,omitempty"`
}

type APIWebsocket struct {
	Addr string `json:"addr"`
}

func (i *Index) references(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {
	// Snapshot preferences
	i.mp.Lock()
	ps := i.p
	i.mp.Unlock()

	// Write
	accessvoice.WriteHTTPData(rw, APIReferences{
		Preferences: ps,
		Websocket: APIWebsocket{
			Addr: "ws://" + i.o.Server.Addr + "/websockets/ui",
		},
		Workers: i.workers(),
	})
}

func (i *Index) getPreferences(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {
	// Snapshot preferences
	i.mp.Lock()
	ps := i.p
	i.mp.Unlock()

	// Write
	accessvoice.WriteHTTPData(rw, ps)
}

// patchPreferences updates a subset of the preferences provided as
// stringified key/value pairs
func (i *Index) patchPreferences(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {
	// Unmarshal
	var vs map[string]string
	if err := json.NewDecoder(r.Body).Decode(&vs); err != nil {
		accessvoice.WriteHTTPError(rw, http.StatusBadRequest, errors.Wrap(err, "index: unmarshaling failed"))
		return
	}

	// Loop through values
	for k, v := range vs {
		if err := i.setPreference(k, v); err != nil {
			accessvoice.WriteHTTPError(rw, http.StatusBadRequest, errors.Wrapf(err, "index: setting preference %s failed", k))
			return
		}
	}

	// Write the updated preferences back
	i.getPreferences(rw, r, p)
}
