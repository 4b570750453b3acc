package firestore

import "github.com/secmon-lab/contactbook/pkg/domain/model"

// ErrNotFound is returned when the requested document does not exist
var ErrNotFound = model.ErrNotFound
