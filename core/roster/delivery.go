package roster

import (
	"context"

	"github.com/looplab/fsm"
	"github.com/pkg/errors"
)

const (
	statePending   = "pendiente"
	stateDelivered = "entregada"

	eventDeliver = "entregar"
)

// ErrAlreadyDelivered is returned when a delivery is requested for a card that was already handed out.
var ErrAlreadyDelivered = errors.New("la TNE ya fue entregada")

// newDeliveryFSM returns the delivery state machine positioned at the record's current state.
// The only transition is pendiente -> entregada.
func newDeliveryFSM(r StudentRecord) *fsm.FSM {
	initial := statePending
	if r.Delivered() {
		initial = stateDelivered
	}
	return fsm.NewFSM(
		initial,
		fsm.Events{
			{Name: eventDeliver, Src: []string{statePending}, Dst: stateDelivered},
		},
		fsm.Callbacks{},
	)
}

// CanDeliver reports whether the "mark delivered" action applies to the record.
func CanDeliver(r StudentRecord) bool {
	return !r.Delivered()
}

// checkDeliverable runs the transition on a throwaway machine; the record itself is never modified.
func checkDeliverable(ctx context.Context, r StudentRecord) error {
	err := newDeliveryFSM(r).Event(ctx, eventDeliver)
	if err == nil {
		return nil
	}
	if _, ok := err.(fsm.InvalidEventError); ok {
		return ErrAlreadyDelivered
	}
	return errors.Wrap(err, "checking delivery transition")
}
