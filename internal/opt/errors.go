package opt

import "errors"

var (
	ErrInvalidScenario  = errors.New("invalid scenario")
	ErrRouteNotAnchored = errors.New("route must start and end at the depot")
	ErrOverBudget       = errors.New("route exceeds range budget")
	ErrZoneCrossing     = errors.New("route crosses an exclusion zone")
	ErrAlreadyCredited  = errors.New("target already credited")
	ErrUnknownStrategy  = errors.New("unknown strategy")
	ErrUnknownLevel     = errors.New("unknown level")
)
