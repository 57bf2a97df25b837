package person

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when a mutation addresses a position outside the store.
var ErrIndexOutOfRange = errors.New("index out of range")

// Store is an insertion-ordered list of people.
// It is not safe for concurrent use; it is owned by the main loop.
type Store struct {
	people []Person
}

// NewStore creates a store holding a copy of the given people.
func NewStore(people ...Person) *Store {
	s := &Store{people: make([]Person, 0, len(people))}
	s.people = append(s.people, people...)
	return s
}

// Len returns the number of people in the store.
func (s *Store) Len() int {
	return len(s.people)
}

// Append adds a person to the end of the store.
func (s *Store) Append(p Person) {
	s.people = append(s.people, p)
}

// At returns the person at index i.
func (s *Store) At(i int) (Person, error) {
	if err := s.check(i); err != nil {
		return Person{}, err
	}
	return s.people[i], nil
}

// Update renames the person at index i. Nothing else changes.
func (s *Store) Update(i int, name string) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.people[i].Name = name
	return nil
}

// RemoveAt deletes the person at index i, keeping the order of the others,
// and returns the removed person.
func (s *Store) RemoveAt(i int) (Person, error) {
	if err := s.check(i); err != nil {
		return Person{}, err
	}
	removed := s.people[i]
	s.people = append(s.people[:i], s.people[i+1:]...)
	return removed, nil
}

// All returns a copy of the people in order.
func (s *Store) All() []Person {
	out := make([]Person, len(s.people))
	copy(out, s.people)
	return out
}

func (s *Store) check(i int) error {
	if i < 0 || i >= len(s.people) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(s.people))
	}
	return nil
}
