package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrDayNotLoaded rejects mutations while no day is populated.
	ErrDayNotLoaded = errors.New("tracker: day not loaded")
	// ErrFoodNotFound indicates that the slot holds no food with the requested id.
	ErrFoodNotFound = errors.New("tracker: food not found")
	// ErrStaleLoad reports a load or write that finished after the session moved on.
	ErrStaleLoad = errors.New("tracker: stale result discarded")
	// ErrInvalidFood rejects new foods without a name or with out-of-range macronutrients.
	ErrInvalidFood = errors.New("tracker: invalid food")

	errMissingGateway    = errors.New("day gateway is required")
	errMissingUserID     = errors.New("user identifier is required")
	errMissingIDProvider = errors.New("id provider is required")
)

// ServiceError carries a stable code of the form "tracker.<operation>.<reason>".
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the stable error code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opSessionNew     = "tracker.session.new"
	opSelectDate     = "tracker.select_date"
	opLoadDay        = "tracker.load_day"
	opAddFood        = "tracker.add_food"
	opRemoveFood     = "tracker.remove_food"
	opUpdateServings = "tracker.update_servings"

	reasonMissingGateway    = "missing_gateway"
	reasonMissingUserID     = "missing_user_id"
	reasonMissingIDProvider = "missing_id_provider"
	reasonInvalidDate       = "invalid_date"
	reasonLoadFailed        = "load_failed"
	reasonIDFailed          = "id_failed"
	reasonWriteFailed       = "write_failed"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ErrorCode extracts the ServiceError code from err, or "" when there is none.
func ErrorCode(err error) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code()
	}
	return ""
}
