package editor

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator mints ids for locally created buildings, floors and flats.
type IDGenerator interface {
	NewID() ID
}

// UUIDs is the default generator.
type UUIDs struct{}

func (UUIDs) NewID() ID { return ID(uuid.NewString()) }

// Sequence yields prefix1, prefix2, ... and is safe for concurrent use.
type Sequence struct {
	Prefix string
	n      atomic.Int64
}

func (s *Sequence) NewID() ID {
	return ID(s.Prefix + strconv.FormatInt(s.n.Add(1), 10))
}
