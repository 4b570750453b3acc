package memory

import "github.com/secmon-lab/contactbook/pkg/domain/model"

// ErrNotFound is returned when the requested item does not exist
var ErrNotFound = model.ErrNotFound
