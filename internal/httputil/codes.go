package httputil

// Machine-readable error codes returned alongside error messages so frontend
// clients can branch on the failure without parsing English text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeSamePassword       = "SAME_PASSWORD"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeNotVerified        = "ACCOUNT_NOT_VERIFIED"
	CodeAlreadyVerified    = "ALREADY_VERIFIED"
	CodeTokenRequired      = "TOKEN_REQUIRED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeNotFound           = "NOT_FOUND"
	CodeMissingAuth        = "MISSING_AUTHENTICATION"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeNotificationFailed = "NOTIFICATION_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
)
