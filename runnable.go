package accessvoice

import (
	"context"
	"sync"

	astiworker "github.com/asticode/go-astitools/worker"
	"github.com/pkg/errors"
)

// Statuses
const (
	RunningStatus = "running"
	StoppedStatus = "stopped"
)

type Runnable interface {
	Metadata() Metadata
	OnMessage(m *Message) error
	SetDispatchFunc(f DispatchFunc)
	SetRootCtx(ctx context.Context)
	SetTaskFunc(f TaskFunc)
	Start(ctx context.Context) error
	Status() string
	Stop()
}

// Metadata represents the metadata of a runnable
type Metadata struct {
	Description string
	Name        string
}

type DispatchFunc func(m *Message)

type TaskFunc func() *astiworker.Task

type BaseRunnableOptions struct {
	Metadata  Metadata
	OnMessage func(m *Message) error
	OnStart   func(ctx context.Context) error
	OnStop    func()
}

type BaseRunnable struct {
	dispatchFunc DispatchFunc
	o            BaseRunnableOptions
	oStart       *sync.Once
	oStop        *sync.Once
	rootCtx      context.Context
	startCancel  context.CancelFunc
	startCtx     context.Context
	status       string
	taskFunc     TaskFunc
}

func NewBaseRunnable(o BaseRunnableOptions) *BaseRunnable {
	return &BaseRunnable{
		o:      o,
		oStart: &sync.Once{},
		oStop:  &sync.Once{},
		status: StoppedStatus,
	}
}

func (r *BaseRunnable) Dispatch(m *Message) {
	if r.dispatchFunc != nil {
		r.dispatchFunc(m)
	}
}

func (r *BaseRunnable) Metadata() Metadata { return r.o.Metadata }

func (r *BaseRunnable) NewTask() *astiworker.Task { return r.taskFunc() }

func (r *BaseRunnable) OnMessage(m *Message) (err error) {
	if r.o.OnMessage != nil {
		if err = r.o.OnMessage(m); err != nil {
			err = errors.Wrap(err, "accessvoice: custom message handling failed")
			return
		}
	}
	return
}

func (r *BaseRunnable) RootCtx() context.Context { return r.rootCtx }

func (r *BaseRunnable) SetDispatchFunc(f DispatchFunc) { r.dispatchFunc = f }

func (r *BaseRunnable) SetRootCtx(ctx context.Context) { r.rootCtx = ctx }

func (r *BaseRunnable) SetTaskFunc(f TaskFunc) { r.taskFunc = f }

func (r *BaseRunnable) Status() string { return r.status }

func (r *BaseRunnable) Start(ctx context.Context) (err error) {
	// Make sure it's started only once
	r.oStart.Do(func() {
		// Create context
		r.startCtx, r.startCancel = context.WithCancel(ctx)

		// Reset once
		r.oStop = &sync.Once{}

		// Update status
		r.status = RunningStatus

		// Start
		if r.o.OnStart != nil {
			if err = r.o.OnStart(r.startCtx); err != nil {
				err = errors.Wrap(err, "accessvoice: starting failed")
			}
		} else {
			<-r.startCtx.Done()
		}

		// Check context
		if r.startCtx.Err() != nil {
			err = r.startCtx.Err()
		}

		// Update status
		r.status = StoppedStatus
	})
	return
}

func (r *BaseRunnable) Stop() {
	// Make sure it's stopped only once
	r.oStop.Do(func() {
		// Custom stop comes first so that in-flight resources are released
		// before the context is cancelled
		if r.o.OnStop != nil {
			r.o.OnStop()
		}

		// Cancel context
		if r.startCancel != nil {
			r.startCancel()
		}

		// Reset once
		r.oStart = &sync.Once{}
	})
}
