package handlers

// AppHandlers bundles every HTTP handler for route registration.
type AppHandlers struct {
	PaymentHandler *PaymentHandler
	PushHandler    *PushHandler
}
