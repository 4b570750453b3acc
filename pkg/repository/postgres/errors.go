package postgres

import "github.com/secmon-lab/contactbook/pkg/domain/model"

// ErrNotFound is returned when the requested row does not exist
var ErrNotFound = model.ErrNotFound
