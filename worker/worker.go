package worker

import (
	"sync"

	astiptr "github.com/asticode/go-astitools/ptr"
	astiworker "github.com/asticode/go-astitools/worker"
	"github.com/asticode/go-astiws"

	accessvoice "github.com/accesswork/go-accessvoice"
)

type Options struct {
	Index  accessvoice.ServerOptions `toml:"index"`
	Server accessvoice.ServerOptions `toml:"server"`
}

// Worker hosts runnables and bridges them to the index over a websocket
type Worker struct {
	d     *accessvoice.Dispatcher
	mr    *sync.Mutex // Locks rs and order
	name  string
	o     Options
	order []string
	rs    map[string]accessvoice.Runnable
	w     *astiworker.Worker
	ws    *astiws.Client
}

// New creates a new worker
func New(name string, o Options) (w *Worker) {
	// Create worker
	w = &Worker{
		d:    accessvoice.NewDispatcher(),
		mr:   &sync.Mutex{},
		name: name,
		o:    o,
		rs:   make(map[string]accessvoice.Runnable),
		w:    astiworker.NewWorker(),
		ws:   astiws.NewClient(astiws.ClientConfiguration{}),
	}

	// Add websocket message handler
	w.ws.SetMessageHandler(w.handleIndexMessage)

	// Add dispatcher handlers
	w.d.On(accessvoice.DispatchConditions{Name: astiptr.Str(accessvoice.EventWorkerWelcomeMessage)}, w.finishRegistration)
	w.d.On(accessvoice.DispatchConditions{
		Name: astiptr.Str(accessvoice.CmdRunnableStartMessage),
		To:   w.workerIdentifier(),
	}, w.startRunnableFromMessage)
	w.d.On(accessvoice.DispatchConditions{
		Name: astiptr.Str(accessvoice.CmdRunnableStopMessage),
		To:   w.workerIdentifier(),
	}, w.stopRunnableFromMessage)
	w.d.On(accessvoice.DispatchConditions{
		Name: astiptr.Str(accessvoice.EventPreferenceUpdatedMessage),
		To:   &accessvoice.Identifier{Type: accessvoice.WorkerIdentifierType},
	}, w.fanOutPreference)
	w.d.On(accessvoice.DispatchConditions{To: &accessvoice.Identifier{Type: accessvoice.IndexIdentifierType}}, w.sendMessageToIndex)
	w.d.On(accessvoice.DispatchConditions{To: &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}}, w.sendMessageToIndex)
	return
}

// HandleSignals handles signals
func (w *Worker) HandleSignals() {
	w.w.HandleSignals()
}

// Wait waits for the worker to be stopped
func (w *Worker) Wait() {
	w.w.Wait()
}

// Close closes the worker properly
func (w *Worker) Close() error {
	// Stop runnables so that their resources are released
	w.mr.Lock()
	defer w.mr.Unlock()
	for _, r := range w.rs {
		if r.Status() == accessvoice.RunningStatus {
			r.Stop()
		}
	}
	return nil
}

func (w *Worker) workerIdentifier() *accessvoice.Identifier {
	return accessvoice.NewWorkerIdentifier(w.name)
}

func (w *Worker) runnableIdentifier(name string) *accessvoice.Identifier {
	return accessvoice.NewWorkerRunnableIdentifier(name, w.name)
}
