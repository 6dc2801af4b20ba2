package audit

import "log"

type Event struct {
	ActorID  *uint
	Action   string
	Entity   string
	EntityID *uint
	Metadata any
}

// EventLogger is the persistence side of the trail; the gorm-backed
// Logger implements it in production.
type EventLogger interface {
	Log(actorID *uint, action, entity string, entityID *uint, metadata any) error
}

type Dispatcher struct {
	logger EventLogger
	queue  chan Event
}

func NewDispatcher(logger EventLogger) *Dispatcher {
	d := &Dispatcher{
		logger: logger,
		queue:  make(chan Event, 100),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	for ev := range d.queue {
		if err := d.logger.Log(
			ev.ActorID,
			ev.Action,
			ev.Entity,
			ev.EntityID,
			ev.Metadata,
		); err != nil {
			log.Println("audit error:", err)
		}
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	select {
	case d.queue <- ev:
	default:
		// Auditing must never block or fail a request.
		log.Println("audit queue full, dropping event")
	}
}
