package engine

import (
	"github.com/MRamiBalles/ElevatorBank/internal/domain/elevator"
	"github.com/MRamiBalles/ElevatorBank/internal/events"
)

// carObserver turns movement and door signals into journal events.
// It is safe for concurrent use because EventLog and Logger are.
type carObserver struct {
	d *Dispatcher
}

func (d *Dispatcher) observer() elevator.Observer {
	return carObserver{d: d}
}

func (o carObserver) FloorPassed(id, floorNumber int, dir elevator.Direction) {
	o.d.emit(events.EventTypeFloorPassed, elevatorActor(id), floorActor(floorNumber), map[string]string{
		"direction": string(dir),
	})
}

func (o carObserver) Arrived(id, floorNumber int) {
	o.d.emit(events.EventTypeArrived, elevatorActor(id), floorActor(floorNumber), nil)
	o.d.logger.Infof("Elevator %d has arrived at floor %d", id, floorNumber)
}

func (o carObserver) DoorsOpened(id, floorNumber int) {
	o.d.emit(events.EventTypeDoorsOpened, elevatorActor(id), floorActor(floorNumber), nil)
}

func (o carObserver) DoorsClosed(id, floorNumber int) {
	o.d.emit(events.EventTypeDoorsClosed, elevatorActor(id), floorActor(floorNumber), nil)
}
