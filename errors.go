// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root

package wheel

import (
	"errors"
	"fmt"
)

// ErrInvalidDelay is returned by Register when the supplied delay is not a
// finite number (NaN or +/-Inf). A negative or sub-minimum delay is clamped
// rather than rejected; only non-numeric delays are an error.
var ErrInvalidDelay = errors.New("wheel: invalid delay")

// CallbackFailure wraps the error returned by a task callback. It is
// returned from Tick and is fatal to that Tick call, but not to the wheel:
// a failing one-shot task has already been removed from the table (a
// failing interval task has already been re-armed), and subsequent Tick
// calls are legal.
type CallbackFailure struct {
	TaskID TaskID
	Err    error
}

func (e *CallbackFailure) Error() string {
	return fmt.Sprintf("wheel: task %d callback failed: %v", e.TaskID, e.Err)
}

func (e *CallbackFailure) Unwrap() error {
	return e.Err
}
