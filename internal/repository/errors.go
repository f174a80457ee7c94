package repository

import "github.com/alexanderramin/taktplan/internal/domain"

// ErrNotFound is wrapped by every lookup that finds no row.
var ErrNotFound = domain.ErrNotFound
