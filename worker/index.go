package worker

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/asticode/go-astilog"
	astiworker "github.com/asticode/go-astitools/worker"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
)

// Register registers the worker to the index
func (w *Worker) Register() {
	// Create headers
	h := make(http.Header)
	if w.o.Index.Password != "" && w.o.Index.Username != "" {
		h.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(w.o.Index.Username+":"+w.o.Index.Password)))
	}

	// Dial
	w.w.Dial(astiworker.DialOptions{
		Addr:   "ws://" + w.o.Index.Addr + "/websockets/worker",
		Client: w.ws,
		Header: h,
		OnDial: w.sendRegister,
		OnReadError: func(err error) {
			if v, ok := errors.Cause(err).(*websocket.CloseError); ok && v.Code == websocket.CloseNormalClosure {
				astilog.Info("worker: worker has disconnected from index")
			} else {
				astilog.Error(errors.Wrap(err, "worker: reading websocket failed"))
			}
		},
	})
}

func (w *Worker) sendRegister() (err error) {
	// Create message
	var m *accessvoice.Message
	if m, err = accessvoice.NewCmdWorkerRegisterMessage(*w.workerIdentifier(), accessvoice.NewIndexIdentifier(), accessvoice.Worker{
		Name:      w.name,
		Runnables: w.runnableDescriptions(),
	}); err != nil {
		err = errors.Wrap(err, "worker: creating register message failed")
		return
	}

	// Dispatch
	w.d.Dispatch(m)
	return
}

func (w *Worker) handleIndexMessage(p []byte) (err error) {
	// Log
	astilog.Debugf("worker: handling index message %s", p)

	// Unmarshal
	m := accessvoice.NewMessage()
	if err = json.Unmarshal(p, m); err != nil {
		err = errors.Wrap(err, "worker: unmarshaling failed")
		return
	}

	// Dispatch
	w.d.Dispatch(m)
	return
}

func (w *Worker) sendMessageToIndex(m *accessvoice.Message) (err error) {
	// Only forward messages of this worker
	if m.From.WorkerName() != w.name {
		return
	}

	// Write
	if err = w.ws.WriteJSON(m); err != nil {
		err = errors.Wrap(err, "worker: writing JSON message failed")
		return
	}
	return
}

// finishRegistration seeds the runnables with the persisted preferences sent
// alongside the welcome
func (w *Worker) finishRegistration(m *accessvoice.Message) (err error) {
	// Parse payload
	var ps []accessvoice.Preference
	if ps, err = accessvoice.ParseEventWorkerWelcomePayload(m); err != nil {
		err = errors.Wrap(err, "worker: parsing welcome payload failed")
		return
	}

	// Fan preferences out to the runnables
	for _, p := range ps {
		var pm *accessvoice.Message
		if pm, err = accessvoice.NewEventPreferenceUpdatedMessage(*accessvoice.NewIndexIdentifier(), w.workerIdentifier(), p); err != nil {
			err = errors.Wrap(err, "worker: creating preference message failed")
			return
		}
		if errF := w.fanOutPreference(pm); errF != nil {
			astilog.Error(errors.Wrap(errF, "worker: fanning out preference failed"))
		}
	}

	// Log
	astilog.Info("worker: worker has registered to the index")
	return
}
