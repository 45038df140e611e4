// Package floor defines the domain entity for a building floor.
// This package is PURE and must NOT import any infrastructure packages.
package floor

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidNumber      = errors.New("floor number must be at least 1")
	ErrInsufficientPeople = errors.New("cannot remove more people than currently waiting")
	ErrNegativeCount      = errors.New("number of people must not be negative")
)

// Floor is a landing where people wait for a car.
type Floor struct {
	number  int
	waiting int
}

// Status is a read-only view of a floor.
type Status struct {
	Number  int `json:"number"`
	Waiting int `json:"waiting"`
}

// New creates an empty floor.
func New(number int) (*Floor, error) {
	if number < 1 {
		return nil, fmt.Errorf("floor %d: %w", number, ErrInvalidNumber)
	}
	return &Floor{number: number}, nil
}

func (f *Floor) Number() int  { return f.number }
func (f *Floor) Waiting() int { return f.waiting }

// AddPeople adds n people to the queue on this floor.
func (f *Floor) AddPeople(n int) error {
	if n < 0 {
		return ErrNegativeCount
	}
	f.waiting += n
	return nil
}

// RemovePeople takes n people off the queue. Waiting never drops below zero.
func (f *Floor) RemovePeople(n int) error {
	if n < 0 {
		return ErrNegativeCount
	}
	if n > f.waiting {
		return fmt.Errorf("floor %d has %d waiting, cannot remove %d: %w",
			f.number, f.waiting, n, ErrInsufficientPeople)
	}
	f.waiting -= n
	return nil
}

func (f *Floor) Status() Status {
	return Status{Number: f.number, Waiting: f.waiting}
}
