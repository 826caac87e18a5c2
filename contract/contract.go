package contract

import (
	"context"
	"reflect"

	"github.com/ItsSkellyHer3/ChatIfy/domain"
)

// EventSink is one recipient of outbound events, typically backed by a
// websocket connection. Deliver must never block the caller: a sink that
// cannot keep up reports an error and the event is dropped for it.
type EventSink interface {
	Deliver(e domain.Event) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual naming
// in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
