package network

import (
	"errors"
	"fmt"

	"github.com/MRamiBalles/ElevatorBank/internal/domain/elevator"
	"github.com/MRamiBalles/ElevatorBank/internal/domain/floor"
	"github.com/MRamiBalles/ElevatorBank/internal/engine"
)

// Command types accepted over the WebSocket.
const (
	CommandRequest      = "REQUEST"
	CommandMove         = "MOVE"
	CommandLoad         = "LOAD"
	CommandUnload       = "UNLOAD"
	CommandAddPeople    = "ADD_PEOPLE"
	CommandRemovePeople = "REMOVE_PEOPLE"
	CommandCall         = "CALL"
	CommandStatus       = "STATUS"
)

// ErrUnknownCommand is reported for a Command whose Type is not recognised.
var ErrUnknownCommand = errors.New("unknown command type")

// Command is an incoming instruction from a WebSocket client. Only the
// fields relevant to Type are read.
type Command struct {
	ID         string `json:"id,omitempty"` // echoed back in the result
	Type       string `json:"type"`
	Floor      int    `json:"floor,omitempty"`
	From       int    `json:"from,omitempty"`
	To         int    `json:"to,omitempty"`
	Elevator   int    `json:"elevator,omitempty"`
	Count      int    `json:"count,omitempty"`
	Passengers int    `json:"passengers,omitempty"`
}

// CommandResult answers a single Command.
type CommandResult struct {
	ID       string                   `json:"id,omitempty"`
	Type     string                   `json:"type"`
	OK       bool                     `json:"ok"`
	Error    string                   `json:"error,omitempty"`
	Code     int                      `json:"code,omitempty"` // HTTP-equivalent status on failure
	Elevator *elevator.Status         `json:"elevator,omitempty"`
	Floor    *floor.Status            `json:"floor,omitempty"`
	Call     *engine.CallResult       `json:"call,omitempty"`
	Snapshot *engine.BuildingSnapshot `json:"snapshot,omitempty"`
}

// Execute runs cmd against d and packages the outcome.
func Execute(d *engine.Dispatcher, cmd Command) CommandResult {
	res := CommandResult{ID: cmd.ID, Type: cmd.Type}

	var err error
	switch cmd.Type {
	case CommandRequest:
		var s elevator.Status
		s, err = d.RequestNearestElevator(cmd.Floor)
		res.Elevator = &s
	case CommandMove:
		var s elevator.Status
		s, err = d.MoveElevatorToFloor(cmd.From, cmd.To)
		res.Elevator = &s
	case CommandLoad:
		var s elevator.Status
		s, err = d.LoadPeopleIntoElevator(cmd.Elevator, cmd.Count)
		res.Elevator = &s
	case CommandUnload:
		var s elevator.Status
		s, err = d.UnloadPeopleOutOfElevator(cmd.Elevator, cmd.Count)
		res.Elevator = &s
	case CommandAddPeople:
		var s floor.Status
		s, err = d.AddPeopleToFloor(cmd.Floor, cmd.Count)
		res.Floor = &s
	case CommandRemovePeople:
		var s floor.Status
		s, err = d.RemovePeopleFromFloor(cmd.Floor, cmd.Count)
		res.Floor = &s
	case CommandCall:
		var call engine.CallResult
		call, err = d.CallElevator(cmd.Floor, cmd.Passengers)
		if len(call.Assignments) > 0 {
			res.Call = &call
		}
	case CommandStatus:
		var snap engine.BuildingSnapshot
		snap, err = d.Snapshot()
		res.Snapshot = &snap
	default:
		err = fmt.Errorf("%q: %w", cmd.Type, ErrUnknownCommand)
	}

	if err != nil {
		res.Elevator, res.Floor, res.Snapshot = nil, nil, nil
		res.Error = err.Error()
		res.Code = StatusCode(err)
		return res
	}
	res.OK = true
	return res
}
