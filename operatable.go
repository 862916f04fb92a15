package accessvoice

import (
	"sync"

	"github.com/julienschmidt/httprouter"
)

type Operatable interface {
	Routes() map[string]map[string]httprouter.Handle // Indexed by path --> method
}

type BaseOperatable struct {
	mr *sync.Mutex // Locks rs
	rs map[string]map[string]httprouter.Handle
}

func NewBaseOperatable() *BaseOperatable {
	return &BaseOperatable{
		mr: &sync.Mutex{},
		rs: make(map[string]map[string]httprouter.Handle),
	}
}

func (o *BaseOperatable) Routes() map[string]map[string]httprouter.Handle {
	o.mr.Lock()
	defer o.mr.Unlock()
	return o.rs
}

func (o *BaseOperatable) AddRoute(path, method string, h httprouter.Handle) {
	// Lock
	o.mr.Lock()
	defer o.mr.Unlock()

	// Path doesn't exist
	if _, ok := o.rs[path]; !ok {
		o.rs[path] = make(map[string]httprouter.Handle)
	}

	// Add handler
	o.rs[path][method] = h
}
