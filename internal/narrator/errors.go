package narrator

import (
	"errors"
	"fmt"
)

// ErrUnknownTool means the model asked for a function outside the
// registry. This is a deployment/version skew between the declared tool
// set and the assistant, fatal to the turn and worth an operational alert.
var ErrUnknownTool = errors.New("unknown tool requested by model")

// ErrTurnExhausted means the polling budget ran out before the run
// reached a terminal state.
var ErrTurnExhausted = errors.New("turn polling budget exhausted")

// TurnError reports an external run that ended in a terminal failure
// state (cancelled, failed or expired). The core does not retry these;
// tool outputs already submitted stay committed.
type TurnError struct {
	Status RunStatus
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn ended with run status %q", e.Status)
}
