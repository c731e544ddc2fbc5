package pgstore

import "errors"

// ErrPoolRequired is returned when New is called without a pool.
var ErrPoolRequired = errors.New("pgstore: pool is required")
