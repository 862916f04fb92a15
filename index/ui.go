package index

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/asticode/go-astilog"
	"github.com/asticode/go-astiws"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
)

func uiName(c *astiws.Client) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%p", c)))
}

func (i *Index) handleUIWebsocket(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if err := i.wu.ServeHTTP(rw, r, func(c *astiws.Client) (err error) {
		// Set message handler
		c.SetMessageHandler(i.handleUIMessage)

		// Contrary to workers, UI can't provide proper unique names therefore we need to come up with one when it
		// connects and send it right away for future messages
		name := uiName(c)

		// Handle disconnect
		c.SetListener(astiws.EventNameDisconnect, func(_ *astiws.Client, _ string, _ json.RawMessage) (err error) {
			// Create disconnected message
			var m *accessvoice.Message
			if m, err = accessvoice.NewEventUIDisconnectedMessage(from, nil, name); err != nil {
				err = errors.Wrap(err, "index: creating disconnected message failed")
				return
			}

			// Dispatch
			i.d.Dispatch(m)
			return
		})

		// Register client
		i.wu.RegisterClient(name, c)

		// Log
		astilog.Infof("index: ui %s has connected", name)

		// Create welcome message
		var m *accessvoice.Message
		if m, err = accessvoice.NewEventUIWelcomeMessage(from, accessvoice.NewUIIdentifier(name), name, i.workers()); err != nil {
			err = errors.Wrap(err, "index: creating welcome message failed")
			return
		}

		// Dispatch
		i.d.Dispatch(m)
		return
	}); err != nil {
		if v, ok := errors.Cause(err).(*websocket.CloseError); !ok ||
			(v.Code != websocket.CloseNoStatusReceived && v.Code != websocket.CloseNormalClosure) {
			astilog.Error(errors.Wrap(err, "index: handling ui websocket failed"))
		}
		return
	}
}

func (i *Index) handleUIMessage(p []byte) (err error) {
	// Log
	astilog.Debugf("index: handling ui message %s", p)

	// Unmarshal
	m := accessvoice.NewMessage()
	if err = json.Unmarshal(p, m); err != nil {
		err = errors.Wrap(err, "index: unmarshaling failed")
		return
	}

	// Dispatch
	i.d.Dispatch(m)
	return
}

func (i *Index) sendMessageToUI(m *accessvoice.Message) (err error) {
	// Log
	astilog.Debugf("index: sending %s message to ui", m.Name)

	// Send message
	if err = sendMessage(m, i.wu); err != nil {
		err = errors.Wrap(err, "index: sending message failed")
		return
	}
	return
}

func (i *Index) unregisterUI(m *accessvoice.Message) (err error) {
	// Parse payload
	var name string
	if name, err = accessvoice.ParseEventUIDisconnectedPayload(m); err != nil {
		err = errors.Wrap(err, "index: parsing message payload failed")
		return
	}

	// Unregister client
	i.wu.UnregisterClient(name)

	// Log
	astilog.Infof("index: ui %s has disconnected", name)
	return
}

func (i *Index) extendUIConnection(m *accessvoice.Message) (err error) {
	// From name
	if m.From.Name == nil {
		err = errors.New("index: from name is empty")
		return
	}

	// Retrieve client from manager
	c, ok := i.wu.Client(*m.From.Name)
	if !ok {
		err = fmt.Errorf("index: client %s doesn't exist", *m.From.Name)
		return
	}

	// Extend connection
	if err = c.ExtendConnection(); err != nil {
		err = errors.Wrap(err, "index: extending connection failed")
		return
	}
	return
}
