package kanban

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxOrderIndex is the largest order index the order_index INTEGER column
// holds. The max tag on MoveRequest.OrderIndex must match it.
const MaxOrderIndex = math.MaxInt32

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest runs the validate tags of a request. Every transport goes
// through the Service, so the limits hold for HTTP and gRPC alike.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Msg: fmt.Sprintf("invalid request: %v", err)}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed on %q (%s)", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
	}
	return &ValidationError{Msg: "invalid request: " + strings.Join(msgs, ", ")}
}

// checkShifts refuses a plan that would push a card past MaxOrderIndex.
// The column needs a compaction pass before it takes more cards there.
func checkShifts(status Status, shifts []Shift) error {
	for _, sh := range shifts {
		if sh.NewIndex > MaxOrderIndex {
			return &ValidationError{Msg: fmt.Sprintf("column %s is full at position %d", status, MaxOrderIndex)}
		}
	}
	return nil
}
