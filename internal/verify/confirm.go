package verify

import (
	"context"
	"fmt"
)

// Confirmer is the gate between preview and mutation. Returning false leaves
// the order untouched.
type Confirmer interface {
	Confirm(ctx context.Context, plan *Plan) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, plan *Plan) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, plan *Plan) (bool, error) {
	return f(ctx, plan)
}

// AutoApprove confirms every plan. Use only where an operator already
// reviewed the preview out of band.
var AutoApprove Confirmer = ConfirmFunc(func(context.Context, *Plan) (bool, error) {
	return true, nil
})

// ExpectDrafts confirms only when the plan still has the number of drafts the
// operator previewed.
type ExpectDrafts int

// Confirm compares the draft count with the expected one.
func (n ExpectDrafts) Confirm(_ context.Context, plan *Plan) (bool, error) {
	if got := len(plan.Drafts()); got != int(n) {
		return false, fmt.Errorf("%w: previewed %d drafts, plan has %d", ErrPlanChanged, int(n), got)
	}
	return true, nil
}
