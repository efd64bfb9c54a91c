package api

import (
	"dronefeed/internal/config"
	"dronefeed/internal/model"
)

var requestValidator = config.NewValidator()

// validateSolveRequest checks the request envelope. The scenario itself is
// validated after any level preset has been applied.
func validateSolveRequest(req *model.SolveRequest) error {
	return requestValidator.Validate(req)
}

func validateSubscriptionRequest(req *model.SubscriptionRequest) error {
	return requestValidator.Validate(req)
}
