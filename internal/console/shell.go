// Package console is the interactive text front end of the elevator bank.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MRamiBalles/ElevatorBank/internal/engine"
)

const invalidInput = "Invalid input. Please try again."

// errEOF ends the session when the input runs out.
var errEOF = errors.New("end of input")

// Shell drives a Dispatcher from line-oriented input.
type Shell struct {
	in       *bufio.Scanner
	out      io.Writer
	d        *engine.Dispatcher
	capacity int
}

// NewShell reads commands from in and writes prompts and results to out.
// capacity is applied to every elevator created during setup.
func NewShell(in io.Reader, out io.Writer, d *engine.Dispatcher, capacity int) *Shell {
	return &Shell{
		in:       bufio.NewScanner(in),
		out:      out,
		d:        d,
		capacity: capacity,
	}
}

// Run performs setup and then serves the menu until Exit or end of input.
func (s *Shell) Run() error {
	err := s.setup()
	if err == nil {
		err = s.menu()
	}
	if errors.Is(err, errEOF) {
		return s.in.Err()
	}
	return err
}

func (s *Shell) setup() error {
	for {
		fmt.Fprintf(s.out, "Welcome to the Elevator System. Maximum capacity of passengers per elevator is %d\n\n", s.capacity)

		floors, err := s.readInt("Enter the number of floors (At least 2 floors)\n")
		if err != nil {
			return err
		}
		if floors < 2 {
			fmt.Fprintln(s.out, invalidInput)
			continue
		}
		elevators, err := s.readInt("Enter the number of elevators (At least 1)\n")
		if err != nil {
			return err
		}
		if elevators < 1 {
			fmt.Fprintln(s.out, invalidInput)
			continue
		}

		if err := s.d.Initialize(elevators, floors, s.capacity); err != nil {
			fmt.Fprintln(s.out, describe(err))
			continue
		}
		return nil
	}
}

func (s *Shell) menu() error {
	for {
		fmt.Fprint(s.out, "Options:\n"+
			"1. Request Nearest Elevator\n"+
			"2. Add People to Floor\n"+
			"3. Remove People from Floor\n"+
			"4. Get Elevators Statuses\n"+
			"5. Load People into Elevator\n"+
			"6. Unload People from Elevator\n"+
			"7. Move Elevator to Floor\n"+
			"8. Call Elevator\n"+
			"9. Exit\n")

		choice, err := s.readInt("Enter your choice: ")
		if err != nil {
			return err
		}

		switch choice {
		case 1:
			err = s.requestNearest()
		case 2:
			err = s.floorPeople(true)
		case 3:
			err = s.floorPeople(false)
		case 4:
			s.printStatuses()
		case 5:
			err = s.passengers(true)
		case 6:
			err = s.passengers(false)
		case 7:
			err = s.move()
		case 8:
			err = s.call()
		case 9:
			fmt.Fprintln(s.out, "Exiting...")
			return nil
		default:
			fmt.Fprintln(s.out, invalidInput)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out)
	}
}

func (s *Shell) requestNearest() error {
	floorNumber, ok, err := s.readPositive("Enter your current floor number: ")
	if !ok {
		return err
	}
	status, err := s.d.RequestNearestElevator(floorNumber)
	s.report(status.String(), err)
	return nil
}

func (s *Shell) floorPeople(add bool) error {
	floorNumber, ok, err := s.readPositive("Enter floor number: ")
	if !ok {
		return err
	}
	verb := "remove"
	if add {
		verb = "add"
	}
	count, ok, err := s.readPositive(fmt.Sprintf("Enter number of people to %s: ", verb))
	if !ok {
		return err
	}

	if add {
		status, err := s.d.AddPeopleToFloor(floorNumber, count)
		s.report(fmt.Sprintf("%d people added to floor %d. %d waiting.", count, floorNumber, status.Waiting), err)
	} else {
		status, err := s.d.RemovePeopleFromFloor(floorNumber, count)
		s.report(fmt.Sprintf("%d people removed from floor %d. %d waiting.", count, floorNumber, status.Waiting), err)
	}
	return nil
}

func (s *Shell) passengers(load bool) error {
	id, ok, err := s.readPositive("Enter elevator number: ")
	if !ok {
		return err
	}
	verb := "unload"
	if load {
		verb = "load"
	}
	count, ok, err := s.readPositive(fmt.Sprintf("Enter number of people to %s: ", verb))
	if !ok {
		return err
	}

	if load {
		status, err := s.d.LoadPeopleIntoElevator(id, count)
		s.report(status.String(), err)
	} else {
		status, err := s.d.UnloadPeopleOutOfElevator(id, count)
		s.report(status.String(), err)
	}
	return nil
}

func (s *Shell) move() error {
	from, ok, err := s.readPositive("Enter your current floor number: ")
	if !ok {
		return err
	}
	to, ok, err := s.readPositive("Enter your destination floor number: ")
	if !ok {
		return err
	}
	status, err := s.d.MoveElevatorToFloor(from, to)
	s.report(status.String(), err)
	return nil
}

func (s *Shell) call() error {
	floorNumber, ok, err := s.readPositive("Enter floor number: ")
	if !ok {
		return err
	}
	total, ok, err := s.readPositive("Enter number of passengers: ")
	if !ok {
		return err
	}

	result, err := s.d.CallElevator(floorNumber, total)
	for _, a := range result.Assignments {
		if a.Loaded {
			fmt.Fprintf(s.out, "Elevator %d took %d passengers.\n", a.ElevatorID, a.Passengers)
		} else {
			fmt.Fprintf(s.out, "Elevator %d could not take %d passengers: %s\n", a.ElevatorID, a.Passengers, a.Error)
		}
	}
	if len(result.Assignments) > 0 {
		fmt.Fprintf(s.out, "%d/%d passengers transported from floor %d.\n", result.Transported, result.Requested, result.Floor)
	}
	if err != nil && !errors.Is(err, engine.ErrBulkCallIncomplete) {
		fmt.Fprintln(s.out, describe(err))
	}
	return nil
}

func (s *Shell) printStatuses() {
	statuses, err := s.d.ReportAllStatuses()
	if err != nil {
		fmt.Fprintln(s.out, describe(err))
		return
	}
	for _, st := range statuses {
		fmt.Fprintln(s.out, st.String())
	}
}

func (s *Shell) report(success string, err error) {
	if err != nil {
		fmt.Fprintln(s.out, describe(err))
		return
	}
	fmt.Fprintln(s.out, success)
}

// readInt prompts and parses one line. A non-numeric line reads as 0.
func (s *Shell) readInt(prompt string) (int, error) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		return 0, errEOF
	}
	n, err := strconv.Atoi(strings.TrimSpace(s.in.Text()))
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// readPositive prompts for a number >= 1. ok is false when the caller should
// abandon the current action; err is non-nil only at end of input.
func (s *Shell) readPositive(prompt string) (n int, ok bool, err error) {
	n, err = s.readInt(prompt)
	if err != nil {
		return 0, false, err
	}
	if n < 1 {
		fmt.Fprintln(s.out, invalidInput)
		return 0, false, nil
	}
	return n, true, nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, engine.ErrUnknownFloor):
		return "The floor does not exist."
	case errors.Is(err, engine.ErrUnknownElevator):
		return "The elevator does not exist."
	case errors.Is(err, engine.ErrNoElevatorAvailable):
		return "No available elevators at the moment."
	default:
		return "Error: " + err.Error()
	}
}
