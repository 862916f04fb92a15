package index

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/asticode/go-astilog"
	"github.com/asticode/go-astiws"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
)

type worker struct {
	mr   *sync.Mutex // Locks rs
	name string
	rs   map[string]accessvoice.RunnableDescription
	ws   *astiws.Client
}

func newWorker(i accessvoice.Worker, ws *astiws.Client) (w *worker) {
	// Create
	w = &worker{
		mr:   &sync.Mutex{},
		name: i.Name,
		rs:   make(map[string]accessvoice.RunnableDescription),
		ws:   ws,
	}

	// Loop through runnables
	for _, r := range i.Runnables {
		w.rs[r.Name] = r
	}
	return
}

func (w *worker) toMessage() (o accessvoice.Worker) {
	// Lock
	w.mr.Lock()
	defer w.mr.Unlock()

	// Create worker
	o = accessvoice.Worker{Name: w.name}

	// Get keys
	var ks []string
	for n := range w.rs {
		ks = append(ks, n)
	}

	// Sort keys
	sort.Strings(ks)

	// Loop through keys
	for _, k := range ks {
		// Append
		o.Runnables = append(o.Runnables, w.rs[k])
	}
	return
}

func (i *Index) handleWorkerWebsocket(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if err := i.ww.ServeHTTP(rw, r, func(c *astiws.Client) error {
		c.SetMessageHandler(i.handleWorkerMessage(c))
		return nil
	}); err != nil {
		if v, ok := errors.Cause(err).(*websocket.CloseError); !ok || v.Code != websocket.CloseNormalClosure {
			astilog.Error(errors.Wrap(err, "index: handling worker websocket failed"))
		}
		return
	}
}

func (i *Index) handleWorkerMessage(c *astiws.Client) astiws.MessageHandler {
	return func(p []byte) (err error) {
		// Log
		astilog.Debugf("index: handling worker message %s", p)

		// Unmarshal
		m := accessvoice.NewMessage()
		if err = json.Unmarshal(p, m); err != nil {
			err = errors.Wrap(err, "index: unmarshaling failed")
			return
		}

		// When the worker registers, we need to register the client
		if m.Name == accessvoice.CmdWorkerRegisterMessage && m.From.Name != nil {
			i.ww.RegisterClient(*m.From.Name, c)
		}

		// Dispatch
		i.d.Dispatch(m)
		return
	}
}

func (i *Index) sendMessageToWorkers(m *accessvoice.Message) (err error) {
	// Log
	astilog.Debugf("index: sending %s message to workers", m.Name)

	// Send message
	if err = sendMessage(m, i.ww); err != nil {
		err = errors.Wrap(err, "index: sending message failed")
		return
	}
	return
}

// sendMessageToRunnable forwards a message addressed to a runnable to the
// worker hosting it
func (i *Index) sendMessageToRunnable(m *accessvoice.Message) (err error) {
	// Messages between runnables of the same worker never reach the index,
	// only worker-qualified ones do
	if m.To == nil || m.To.Worker == nil {
		return
	}

	// Retrieve client
	c, ok := i.ww.Client(*m.To.Worker)
	if !ok {
		err = fmt.Errorf("index: client %s doesn't exist", *m.To.Worker)
		return
	}

	// Write
	if err = c.WriteJSON(m); err != nil {
		err = errors.Wrap(err, "index: writing JSON message failed")
		return
	}
	return
}

func (i *Index) addWorker(m *accessvoice.Message) (err error) {
	// Parse payload
	var mw accessvoice.Worker
	if mw, err = accessvoice.ParseCmdWorkerRegisterPayload(m); err != nil {
		err = errors.Wrap(err, "index: parsing payload failed")
		return
	}

	// Retrieve client
	c, ok := i.ww.Client(mw.Name)
	if !ok {
		err = fmt.Errorf("index: client %s doesn't exist", mw.Name)
		return
	}

	// Create worker
	w := newWorker(mw, c)

	// Update pool
	i.mw.Lock()
	i.ws[w.name] = w
	i.mw.Unlock()

	// Handle disconnect
	c.SetListener(astiws.EventNameDisconnect, func(_ *astiws.Client, _ string, _ json.RawMessage) (err error) {
		// Create disconnected message
		var m *accessvoice.Message
		if m, err = accessvoice.NewEventWorkerDisconnectedMessage(from, &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}, w.name); err != nil {
			err = errors.Wrap(err, "index: creating disconnected message failed")
			return
		}

		// Dispatch
		i.d.Dispatch(m)
		return
	})

	// Log
	astilog.Infof("index: worker %s has registered", w.name)

	// Create welcome message carrying the persisted preferences
	if m, err = accessvoice.NewEventWorkerWelcomeMessage(from, accessvoice.NewWorkerIdentifier(w.name), i.preferenceList()); err != nil {
		err = errors.Wrap(err, "index: creating welcome message failed")
		return
	}

	// Dispatch
	i.d.Dispatch(m)

	// Create registered message
	if m, err = accessvoice.NewEventWorkerRegisteredMessage(from, &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}, mw); err != nil {
		err = errors.Wrap(err, "index: creating registered message failed")
		return
	}

	// Dispatch
	i.d.Dispatch(m)
	return
}

func (i *Index) delWorker(m *accessvoice.Message) (err error) {
	// Parse payload
	var name string
	if name, err = accessvoice.ParseEventWorkerDisconnectedPayload(m); err != nil {
		err = errors.Wrap(err, "index: parsing message payload failed")
		return
	}

	// Update pool
	i.mw.Lock()
	delete(i.ws, name)
	i.mw.Unlock()

	// Unregister client
	i.ww.UnregisterClient(name)

	// Log
	astilog.Infof("index: worker %s has disconnected", name)
	return
}

// updateRunnableStatus keeps the worker pool in sync with runnable lifecycle
// events so that the references endpoint reports accurate statuses
func (i *Index) updateRunnableStatus(m *accessvoice.Message) (err error) {
	// Invalid from
	if m.From.Name == nil || m.From.Worker == nil {
		return
	}

	// Get status
	status := accessvoice.StoppedStatus
	if m.Name == accessvoice.EventRunnableStartedMessage {
		status = accessvoice.RunningStatus
	}

	// Fetch worker
	i.mw.Lock()
	w, ok := i.ws[*m.From.Worker]
	i.mw.Unlock()
	if !ok {
		return
	}

	// Update runnable
	w.mr.Lock()
	if r, ok := w.rs[*m.From.Name]; ok {
		r.Status = status
		w.rs[*m.From.Name] = r
	}
	w.mr.Unlock()
	return
}
