package worker

import (
	"context"
	"fmt"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
)

type Runnable struct {
	AutoStart bool
	Runnable  accessvoice.Runnable
}

func (w *Worker) RegisterRunnables(rs ...Runnable) {
	// Loop through runnables
	for _, r := range rs {
		name := r.Runnable.Metadata().Name

		// Add to pool
		w.mr.Lock()
		w.rs[name] = r.Runnable
		w.order = append(w.order, name)
		w.mr.Unlock()

		// Set dispatch func
		r.Runnable.SetDispatchFunc(w.dispatchFunc(name))

		// Set root ctx and task func
		r.Runnable.SetRootCtx(w.w.Context())
		r.Runnable.SetTaskFunc(w.w.NewTask)

		// Runnables address their peers without qualifying the worker,
		// therefore the condition must not either
		w.d.On(accessvoice.DispatchConditions{To: accessvoice.NewRunnableIdentifier(name)}, r.Runnable.OnMessage)

		// Log
		astilog.Infof("worker: registered runnable %s", name)

		// Auto start
		if r.AutoStart {
			// Start runnable
			if err := w.startRunnable(name); err != nil {
				astilog.Error(errors.Wrapf(err, "worker: starting runnable %s failed", name))
			}
		}
	}
}

func (w *Worker) dispatchFunc(name string) accessvoice.DispatchFunc {
	return func(m *accessvoice.Message) {
		// Stamp the sender with its worker
		m.From = *w.runnableIdentifier(name)

		// Dispatch
		w.d.Dispatch(m)
	}
}

// fanOutPreference forwards a preference event to every runnable of this
// worker. Runnables ignore preferences they don't care about.
func (w *Worker) fanOutPreference(m *accessvoice.Message) (err error) {
	// Get runnable names
	w.mr.Lock()
	names := make([]string, len(w.order))
	copy(names, w.order)
	w.mr.Unlock()

	// Loop through runnables
	for _, name := range names {
		cm := m.Clone()
		cm.To = accessvoice.NewRunnableIdentifier(name)
		w.d.Dispatch(cm)
	}
	return
}

func (w *Worker) startRunnableFromMessage(m *accessvoice.Message) (err error) {
	// Parse payload
	var name string
	if name, err = accessvoice.ParseCmdRunnableStartPayload(m); err != nil {
		err = errors.Wrap(err, "worker: parsing start payload failed")
		return
	}

	// Start runnable
	if err = w.startRunnable(name); err != nil {
		err = errors.Wrapf(err, "worker: starting runnable %s failed", name)
		return
	}
	return
}

func (w *Worker) startRunnable(name string) (err error) {
	// Fetch runnable
	w.mr.Lock()
	r, ok := w.rs[name]
	w.mr.Unlock()

	// No runnable
	if !ok {
		err = fmt.Errorf("worker: no %s runnable", name)
		return
	}

	// Check status
	if r.Status() == accessvoice.RunningStatus {
		err = fmt.Errorf("worker: runnable %s is already running", name)
		return
	}

	// Log
	astilog.Infof("worker: starting runnable %s", name)

	// Dispatch started event
	w.d.Dispatch(accessvoice.NewEventRunnableStartedMessage(*w.runnableIdentifier(name), &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}))

	// Create new task
	t := w.w.NewTask()

	// Execute the rest in a goroutine
	go func() {
		// Make sure to let the worker know when the task is done
		defer t.Done()

		// Start the runnable
		var m *accessvoice.Message
		if err := r.Start(w.w.Context()); err != nil && errors.Cause(err) != context.Canceled {
			astilog.Error(errors.Wrapf(err, "worker: runnable %s crashed", name))
			m = accessvoice.NewEventRunnableCrashedMessage(*w.runnableIdentifier(name), &accessvoice.Identifier{Type: accessvoice.UIIdentifierType})
		} else {
			astilog.Infof("worker: runnable %s has stopped", name)
			m = accessvoice.NewEventRunnableStoppedMessage(*w.runnableIdentifier(name), &accessvoice.Identifier{Type: accessvoice.UIIdentifierType})
		}

		// Dispatch
		w.d.Dispatch(m)
	}()
	return
}

func (w *Worker) stopRunnableFromMessage(m *accessvoice.Message) (err error) {
	// Parse payload
	var name string
	if name, err = accessvoice.ParseCmdRunnableStopPayload(m); err != nil {
		err = errors.Wrap(err, "worker: parsing stop payload failed")
		return
	}

	// Stop runnable
	if err = w.stopRunnable(name); err != nil {
		err = errors.Wrapf(err, "worker: stopping runnable %s failed", name)
		return
	}
	return
}

func (w *Worker) stopRunnable(name string) (err error) {
	// Fetch runnable
	w.mr.Lock()
	r, ok := w.rs[name]
	w.mr.Unlock()

	// No runnable
	if !ok {
		err = fmt.Errorf("worker: no %s runnable", name)
		return
	}

	// Check status
	if r.Status() == accessvoice.StoppedStatus {
		err = fmt.Errorf("worker: runnable %s is already stopped", name)
		return
	}

	// Log
	astilog.Infof("worker: stopping runnable %s", name)

	// Stop runnable
	r.Stop()
	return
}

func (w *Worker) runnableDescriptions() (ds []accessvoice.RunnableDescription) {
	w.mr.Lock()
	defer w.mr.Unlock()
	for _, name := range w.order {
		r := w.rs[name]
		ds = append(ds, accessvoice.RunnableDescription{
			Description: r.Metadata().Description,
			Name:        name,
			Status:      r.Status(),
		})
	}
	return
}
