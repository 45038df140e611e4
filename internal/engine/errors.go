package engine

import (
	"errors"

	"github.com/MRamiBalles/ElevatorBank/internal/domain/elevator"
	"github.com/MRamiBalles/ElevatorBank/internal/domain/floor"
)

var (
	ErrNotInitialized       = errors.New("elevator service not initialized")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrUnknownFloor         = errors.New("the floor does not exist")
	ErrUnknownElevator      = errors.New("the elevator does not exist")
	ErrNoElevatorAvailable  = errors.New("no available elevators at the moment")
	ErrDuplicateFloor       = errors.New("the floor already exists")
	ErrDuplicateElevator    = errors.New("the elevator already exists")
	ErrFloorOccupied        = errors.New("an elevator is standing on the floor")
	ErrFloorGap             = errors.New("floors must stay contiguous from the ground floor")
	ErrBulkCallIncomplete   = errors.New("not every elevator could take its share")
)

// IsSetupError reports whether err means the bank must be (re)configured
// before anything else can succeed. Shells re-prompt on these.
func IsSetupError(err error) bool {
	return errors.Is(err, ErrNotInitialized) || errors.Is(err, ErrInvalidConfiguration)
}

// IsBusinessRule reports whether err is a capacity or headcount rule violation.
// State is always left unchanged when one of these is returned.
func IsBusinessRule(err error) bool {
	return errors.Is(err, elevator.ErrCapacityExceeded) ||
		errors.Is(err, elevator.ErrInsufficientLoad) ||
		errors.Is(err, elevator.ErrNegativeCount) ||
		errors.Is(err, floor.ErrInsufficientPeople) ||
		errors.Is(err, floor.ErrNegativeCount)
}

// IsLookupMiss reports whether err comes from an unknown floor or elevator.
func IsLookupMiss(err error) bool {
	return errors.Is(err, ErrUnknownFloor) || errors.Is(err, ErrUnknownElevator)
}
