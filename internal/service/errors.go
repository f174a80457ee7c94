package service

import (
	"errors"

	"github.com/alexanderramin/taktplan/internal/domain"
)

var (
	// ErrNotFound is the repository sentinel, re-exported for callers.
	ErrNotFound = domain.ErrNotFound
	// ErrValidation marks input rejected before any mutation.
	ErrValidation = errors.New("validation failed")
	// ErrNotEligible marks an assignee that may not receive tasks.
	ErrNotEligible = errors.New("assignee not eligible")
	// ErrHasStartedTasks guards deletions that would discard started work.
	ErrHasStartedTasks = errors.New("started tasks exist")
)
