package appErrors

// Error codes returned to API clients.
const (
	CodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	CodeOwnershipMismatch   ErrorCode = "OWNERSHIP_MISMATCH"
	CodeGatewayUnavailable  ErrorCode = "GATEWAY_UNAVAILABLE"
	CodeVerificationFailed  ErrorCode = "GATEWAY_VERIFICATION_FAILED"
	CodePaymentNotCompleted ErrorCode = "PAYMENT_NOT_COMPLETED"
	CodePersistenceFailed   ErrorCode = "PERSISTENCE_FAILED"
	CodeConfiguration       ErrorCode = "CONFIGURATION_ERROR"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeInternalError       ErrorCode = "INTERNAL_ERROR"
)
