package regcache

import "errors"

// Resource-exhaustion conditions. They mean one guest instruction's codegen
// demanded more simultaneously-locked registers than the physical file
// allows; the translation unit must be aborted (the driver can fall back to
// the interpreter).
var (
	ErrOutOfRegisters    = errors.New("regcache: no spillable scalar slot")
	ErrNoEvictableQuad   = errors.New("regcache: no free or evictable quad")
	ErrTempPoolExhausted = errors.New("regcache: temp pool exhausted")
)
