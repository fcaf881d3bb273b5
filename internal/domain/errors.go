package domain

import (
	"errors"
	"strconv"
	"strings"
)

// ErrKind groups errors by how the transport reports them.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindAuth           ErrKind = "auth"           // 401
	KindForbidden      ErrKind = "forbidden"      // 403
	KindNotFound       ErrKind = "not_found"      // 404
	KindConflict       ErrKind = "conflict"       // 409
	KindTooLarge       ErrKind = "too_large"      // 413
	KindRateLimited    ErrKind = "rate_limited"   // 429
	KindUpstream       ErrKind = "upstream"       // 502
	KindInfrastructure ErrKind = "infrastructure" // 503
	KindInternal       ErrKind = "internal"       // 500
)

// Error is what every service returns on failure. Code is part of the API
// contract. Message is shown to clients as-is; Cause only reaches the logs.
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString("/")
	b.WriteString(e.Code)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// With sets one meta entry and returns e for chaining.
func (e *Error) With(key, value string) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]string, 2)
	}
	e.Meta[key] = value
	return e
}

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

// Is reports whether err carries a domain error with the given code.
func Is(err error, code string) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// KindOf returns the kind of a domain error, or KindInternal for anything else.
func KindOf(err error) ErrKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// 400

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "invalid JSON body", cause)
}

func ErrMissingField(field string) *Error {
	return New(KindValidation, "missing_field", "missing required field").With("field", field)
}

// ErrMissingFields reports several required fields checked together.
func ErrMissingFields(msg string, fields ...string) *Error {
	return New(KindValidation, "missing_field", msg).With("field", strings.Join(fields, ","))
}

func ErrInvalidField(field, reason string) *Error {
	return New(KindValidation, "invalid_field", "invalid field").
		With("field", field).
		With("reason", reason)
}

// ErrWeakPassword carries the policy reason both in Meta and in the message.
func ErrWeakPassword(reason string) *Error {
	return New(KindValidation, "weak_password", "Password "+reason).With("reason", reason)
}

func ErrUnsupportedProvider(provider string) *Error {
	return New(KindValidation, "unsupported_provider", "Unsupported provider").With("provider", provider)
}

func ErrInvalidUpload(reason string) *Error {
	return New(KindValidation, "invalid_upload", "invalid upload").With("reason", reason)
}

// 401

// ErrInvalidCredentials covers both unknown email and wrong password so
// login never reveals which accounts exist.
func ErrInvalidCredentials() *Error {
	return New(KindAuth, "invalid_credentials", "Invalid credentials")
}

func ErrTokenMissing() *Error {
	return New(KindAuth, "token_missing", "Authentication token is required")
}

func ErrTokenInvalid() *Error {
	return New(KindAuth, "token_invalid", "Token verification failed")
}

func ErrTokenExpired() *Error {
	return New(KindAuth, "token_expired", "Token expired")
}

func ErrOAuthIdentityMismatch(provider string) *Error {
	return New(KindAuth, "oauth_identity_mismatch", "provider identity could not be confirmed").
		With("provider", provider)
}

// 403

func ErrForbidden() *Error {
	return New(KindForbidden, "forbidden", "forbidden")
}

func ErrInsufficientRole(required string) *Error {
	return New(KindForbidden, "insufficient_role", "Administrator access required").With("required", required)
}

func ErrEmailNotVerified() *Error {
	return New(KindForbidden, "email_not_verified", "Please verify your email before logging in")
}

// 404

func ErrUserNotFound() *Error {
	return New(KindNotFound, "user_not_found", "user not found")
}

func ErrVerifyTokenNotFound() *Error {
	return New(KindNotFound, "verify_token_not_found", "Verification link is invalid or expired")
}

func ErrAdNotFound() *Error {
	return New(KindNotFound, "ad_not_found", "Ad not found")
}

func ErrContactMessageNotFound() *Error {
	return New(KindNotFound, "message_not_found", "Message not found")
}

// 409

func ErrEmailAlreadyExists() *Error {
	return New(KindConflict, "email_already_exists", "Email already registered")
}

// 413

func ErrPayloadTooLarge(limit int64) *Error {
	return New(KindTooLarge, "payload_too_large", "payload too large").
		With("limit_bytes", strconv.FormatInt(limit, 10))
}

// 429

func ErrRateLimited(scope string) *Error {
	return New(KindRateLimited, "rate_limited", "too many requests").With("scope", scope)
}

// 5xx. The cause is kept for logs only.

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "db_unavailable", "database unavailable", cause)
}

func ErrRedisUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "redis_unavailable", "cache unavailable", cause)
}

func ErrRabbitUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "rabbit_unavailable", "message broker unavailable", cause)
}

func ErrStorageUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "storage_unavailable", "file storage unavailable", cause)
}

func ErrMailDelivery(cause error) *Error {
	return Wrap(KindUpstream, "mail_delivery_failed", "Could not send reply", cause)
}

func ErrOAuthProviderUnavailable(cause error) *Error {
	return Wrap(KindUpstream, "oauth_provider_unavailable", "identity provider unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "token signing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "random generation failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "Internal server error", cause)
}
