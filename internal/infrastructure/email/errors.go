package email

import (
	"errors"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// DeliveryError is what every sender here returns on failure. The mail
// consumer parks Permanent failures on the dead-letter queue and retries
// the rest.
type DeliveryError struct {
	Op        string
	Err       error
	permanent bool
}

func (e *DeliveryError) Error() string   { return "email " + e.Op + ": " + e.Err.Error() }
func (e *DeliveryError) Unwrap() error   { return e.Err }
func (e *DeliveryError) Permanent() bool { return e.permanent }

func permanent(op string, err error) error { return &DeliveryError{Op: op, Err: err, permanent: true} }
func transient(op string, err error) error { return &DeliveryError{Op: op, Err: err} }

// IsPermanent reports whether err is a delivery failure that will not
// succeed on retry.
func IsPermanent(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.permanent
}

// SMTP replies that mean the message or the account is rejected for good.
var rejectMarkers = []string{"535", "5.7.8", "550", "5.1.1", "553", "authentication failed", "not accepted"}

func classifySMTPError(err error) error {
	var se *gomail.SendError
	if errors.As(err, &se) && se.IsTemp() {
		return transient("send", err)
	}
	msg := strings.ToLower(err.Error())
	for _, m := range rejectMarkers {
		if strings.Contains(msg, m) {
			return permanent("send", err)
		}
	}
	return transient("send", err)
}
