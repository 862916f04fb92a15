package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/asticode/go-astilog"
	astiptr "github.com/asticode/go-astitools/ptr"
	astiworker "github.com/asticode/go-astitools/worker"
	"github.com/asticode/go-astiws"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/abilities/voice_command"
	"github.com/accesswork/go-accessvoice/preferences"
)

// Vars
var (
	from = accessvoice.Identifier{Type: accessvoice.IndexIdentifierType}
)

type Options struct {
	PreferencesPath string                    `toml:"preferences_path"`
	Server          accessvoice.ServerOptions `toml:"server"`
}

// Index is the hub of the system: it serves the UI and worker websockets,
// owns the accessibility preferences and reacts to structured commands.
type Index struct {
	d  *accessvoice.Dispatcher
	mp *sync.Mutex // Locks p
	mw *sync.Mutex // Locks ws
	o  Options
	p  preferences.Preferences
	s  *preferences.Store
	w  *astiworker.Worker
	ws map[string]*worker // Workers indexed by name
	wu *astiws.Manager
	ww *astiws.Manager
}

// New creates a new index
func New(o Options) (i *Index, err error) {
	// Create index
	i = &Index{
		d:  accessvoice.NewDispatcher(),
		mp: &sync.Mutex{},
		mw: &sync.Mutex{},
		o:  o,
		w:  astiworker.NewWorker(),
		ws: make(map[string]*worker),
		wu: astiws.NewManager(astiws.ManagerConfiguration{}),
		ww: astiws.NewManager(astiws.ManagerConfiguration{}),
	}

	// Default preferences path
	if i.o.PreferencesPath == "" {
		i.o.PreferencesPath = "preferences.db"
	}

	// Open preferences store
	if i.s, err = preferences.Open(i.o.PreferencesPath); err != nil {
		err = errors.Wrapf(err, "index: opening preferences store at %s failed", i.o.PreferencesPath)
		return
	}

	// Load preferences
	if i.p, err = i.s.Load(); err != nil {
		err = errors.Wrap(err, "index: loading preferences failed")
		return
	}

	// Add dispatcher handlers
	i.d.On(accessvoice.DispatchConditions{Name: astiptr.Str(accessvoice.CmdUIPingMessage)}, i.extendUIConnection)
	i.d.On(accessvoice.DispatchConditions{Name: astiptr.Str(accessvoice.CmdWorkerRegisterMessage)}, i.addWorker)
	i.d.On(accessvoice.DispatchConditions{Name: astiptr.Str(accessvoice.CmdPreferenceSetMessage)}, i.setPreferenceFromMessage)
	i.d.On(accessvoice.DispatchConditions{Names: map[string]bool{
		accessvoice.EventRunnableCrashedMessage: true,
		accessvoice.EventRunnableStartedMessage: true,
		accessvoice.EventRunnableStoppedMessage: true,
	}}, i.updateRunnableStatus)
	i.d.On(accessvoice.DispatchConditions{Name: astiptr.Str(accessvoice.EventUIDisconnectedMessage)}, i.unregisterUI)
	i.d.On(accessvoice.DispatchConditions{Name: astiptr.Str(accessvoice.EventWorkerDisconnectedMessage)}, i.delWorker)
	i.d.On(accessvoice.DispatchConditions{
		Name: astiptr.Str(voice_command.EventMatchedMessage),
		To:   &accessvoice.Identifier{Type: accessvoice.IndexIdentifierType},
	}, i.handleCommand)
	i.d.On(accessvoice.DispatchConditions{To: &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}}, i.sendMessageToUI)
	i.d.On(accessvoice.DispatchConditions{To: &accessvoice.Identifier{Type: accessvoice.WorkerIdentifierType}}, i.sendMessageToWorkers)
	i.d.On(accessvoice.DispatchConditions{To: &accessvoice.Identifier{Type: accessvoice.RunnableIdentifierType}}, i.sendMessageToRunnable)
	return
}

// Close closes the index properly
func (i *Index) Close() error {
	// Close ui clients
	if i.wu != nil {
		if err := i.wu.Close(); err != nil {
			astilog.Error(errors.Wrap(err, "index: closing ui clients failed"))
		}
	}

	// Close worker clients
	if i.ww != nil {
		if err := i.ww.Close(); err != nil {
			astilog.Error(errors.Wrap(err, "index: closing worker clients failed"))
		}
	}

	// Close preferences store
	if i.s != nil {
		if err := i.s.Close(); err != nil {
			astilog.Error(errors.Wrap(err, "index: closing preferences store failed"))
		}
	}
	return nil
}

// HandleSignals handles signals
func (i *Index) HandleSignals() {
	i.w.HandleSignals()
}

// Wait waits for the index to be stopped
func (i *Index) Wait() {
	i.w.Wait()
}

// On makes sure to handle messages with specific conditions
func (i *Index) On(c accessvoice.DispatchConditions, h accessvoice.MessageHandler) {
	i.d.On(c, h)
}

func sendMessage(m *accessvoice.Message, wm *astiws.Manager) (err error) {
	// Get clients
	var cs []*astiws.Client
	if m.To != nil && m.To.Name != nil {
		// Retrieve client from manager
		c, ok := wm.Client(*m.To.Name)
		if !ok {
			err = fmt.Errorf("index: client %s doesn't exist", *m.To.Name)
			return
		}

		// Append client
		cs = append(cs, c)
	} else {
		// Loop through clients
		wm.Clients(func(_ interface{}, c *astiws.Client) (err error) {
			cs = append(cs, c)
			return
		})
	}

	// Loop through clients
	for _, c := range cs {
		// Write
		if err = c.WriteJSON(m); err != nil {
			err = errors.Wrap(err, "index: writing JSON message failed")
			return
		}
	}
	return
}

func (i *Index) workers() (ws []accessvoice.Worker) {
	// Lock
	i.mw.Lock()
	defer i.mw.Unlock()

	// Get keys
	var ks []string
	for n := range i.ws {
		ks = append(ks, n)
	}

	// Sort keys
	sort.Strings(ks)

	// Loop through keys
	for _, k := range ks {
		// Append
		ws = append(ws, i.ws[k].toMessage())
	}
	return
}
