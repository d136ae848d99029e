package zkill

import "errors"

// Sentinel kinds for killboard errors.
var (
	ErrNoKillData = errors.New("no kill data")
)
