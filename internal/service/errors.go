package service

// Error is a user-facing workflow outcome. Code is stable and surfaced to
// clients verbatim.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrNotFound              = &Error{Code: "NotFound", Message: "not found"}
	ErrForbidden             = &Error{Code: "Forbidden", Message: "not allowed"}
	ErrIllegalTransition     = &Error{Code: "IllegalTransition", Message: "transition not allowed from the current status"}
	ErrInvalidOffer          = &Error{Code: "InvalidOffer", Message: "offered price must be positive and not exceed the listed price"}
	ErrSelfPurchase          = &Error{Code: "SelfPurchase", Message: "cannot request your own book"}
	ErrInvalidDate           = &Error{Code: "InvalidDate", Message: "delivery date must be in the future and within the allowed horizon"}
	ErrInvalidOtp            = &Error{Code: "InvalidOtp", Message: "invalid delivery code"}
	ErrOtpExpired            = &Error{Code: "OtpExpired", Message: "delivery code has expired"}
	ErrAlreadyVerified       = &Error{Code: "AlreadyVerified", Message: "delivery code already verified"}
	ErrOtpNotVerified        = &Error{Code: "OtpNotVerified", Message: "delivery code has not been verified"}
	ErrDeliveryNotConfirmed  = &Error{Code: "DeliveryNotConfirmed", Message: "delivery must be confirmed by both parties first"}
	ErrPaymentMethodRequired = &Error{Code: "PaymentMethodRequired", Message: "payment method is required"}
	ErrInvalidInput          = &Error{Code: "InvalidInput", Message: "invalid input"}
	ErrInsufficientBalance   = &Error{Code: "InsufficientBalance", Message: "insufficient balance"}

	// ErrNotReady is returned by TryFinalize when the payout precondition does
	// not hold or the payout was already processed.
	ErrNotReady = &Error{Code: "NotReady", Message: "payout not ready"}
)
