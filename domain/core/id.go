package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	UserID         ID
	EventID        ID
	PatternID      ID
	InterventionID ID
	RunID          ID
)

// String conversions for domain IDs
func (id UserID) String() string         { return ID(id).String() }
func (id EventID) String() string        { return ID(id).String() }
func (id PatternID) String() string      { return ID(id).String() }
func (id InterventionID) String() string { return ID(id).String() }
func (id RunID) String() string          { return ID(id).String() }

func (id UserID) IsEmpty() bool         { return id == "" }
func (id EventID) IsEmpty() bool        { return id == "" }
func (id PatternID) IsEmpty() bool      { return id == "" }
func (id InterventionID) IsEmpty() bool { return id == "" }
func (id RunID) IsEmpty() bool          { return id == "" }

// ParseUserID parses a string into UserID
func ParseUserID(s string) (UserID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("user ID cannot be empty")
	}
	return UserID(s), nil
}

// ParseInterventionID parses a string into InterventionID
func ParseInterventionID(s string) (InterventionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("intervention ID cannot be empty")
	}
	return InterventionID(s), nil
}
