package domain

import (
	"fmt"
	"strings"
)

// LocationKind names one of the four levels of the building hierarchy,
// outermost to innermost.
type LocationKind string

const (
	KindSection   LocationKind = "section"
	KindStairwell LocationKind = "stairwell"
	KindLevel     LocationKind = "level"
	KindUnit      LocationKind = "unit"
)

// LocationKinds lists the hierarchy from the outermost level inward.
var LocationKinds = []LocationKind{KindSection, KindStairwell, KindLevel, KindUnit}

// Parent returns the enclosing kind. Sections have no parent kind and return "".
func (k LocationKind) Parent() LocationKind {
	switch k {
	case KindStairwell:
		return KindSection
	case KindLevel:
		return KindStairwell
	case KindUnit:
		return KindLevel
	default:
		return ""
	}
}

// Child returns the directly nested kind. Units are leaves and return "".
func (k LocationKind) Child() LocationKind {
	switch k {
	case KindSection:
		return KindStairwell
	case KindStairwell:
		return KindLevel
	case KindLevel:
		return KindUnit
	default:
		return ""
	}
}

// ParseLocationKind accepts the canonical names plus the German labels used
// on construction sites (Bauteil, Stiege, Ebene, Top).
func ParseLocationKind(s string) (LocationKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "section", "bauteil":
		return KindSection, nil
	case "stairwell", "stiege":
		return KindStairwell, nil
	case "level", "ebene", "floor":
		return KindLevel, nil
	case "unit", "top":
		return KindUnit, nil
	}
	return "", fmt.Errorf("unknown location kind %q", s)
}

type TaskStatus string

const (
	StatusOpen       TaskStatus = "open"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// ParseTaskStatus normalizes a status name. German labels from the site
// schedule ("Offen", "In Bearbeitung", "Erledigt") are accepted as aliases.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open", "offen":
		return StatusOpen, nil
	case "in_progress", "in-progress", "in progress", "in bearbeitung":
		return StatusInProgress, nil
	case "done", "erledigt":
		return StatusDone, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleManager     UserRole = "manager"
	RoleSubcontract UserRole = "sub"
)

// ValidUserRoles is the canonical set of accepted role strings.
var ValidUserRoles = map[string]bool{
	"admin": true, "manager": true, "sub": true,
}
