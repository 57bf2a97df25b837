// Package person holds the Person record and the ordered in-memory store of people.
package person

import (
	"github.com/google/uuid"
)

// DefaultName is the name given to a freshly captured person.
const DefaultName = "Unknown"

// Person is a named face. ImageRef locates the face image in the image store.
type Person struct {
	Name     string `json:"name"`
	ImageRef string `json:"image"`
}

// New creates a person with the default name and a newly generated image reference.
// Image references are never reused.
func New() Person {
	return Person{
		Name:     DefaultName,
		ImageRef: uuid.New().String(),
	}
}
