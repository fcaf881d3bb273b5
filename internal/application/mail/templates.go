package mail

import (
	"fmt"
	"html"
	"strings"
)

const (
	VerificationSubject = "Verify your new account"
	DefaultReplySubject = "Message from Dev Studio"
)

// VerificationURL builds the link the client route /verify/:token handles.
func VerificationURL(frontendBase, token string) string {
	return strings.TrimRight(frontendBase, "/") + "/verify/" + token
}

// VerificationEmail renders the sign-up confirmation message.
func VerificationEmail(to, name, verifyURL string) Message {
	greeting := name
	if greeting == "" {
		greeting = "friend"
	}
	textName := name
	if textName == "" {
		textName = "Friend"
	}

	escURL := html.EscapeString(verifyURL)
	body := `<div style="font-family: sans-serif; background:#0f172a; padding:24px; color:#f8fafc; border-radius:14px;">
  <h2 style="margin-bottom:12px;">Hey ` + html.EscapeString(greeting) + `,</h2>
  <p>You signed up for the workspace studio. Click below to confirm your email and start uploading your profile.</p>
  <a href="` + escURL + `" style="display:inline-block; padding:12px 18px; background:#0ea5e9; color:#0f172a; border-radius:8px; font-weight:600; margin-top:18px;">Verify my email</a>
  <p style="margin-top:16px; font-size:12px;">If you did not request this, you can ignore this email.</p>
</div>`

	return Message{
		To:      to,
		Subject: VerificationSubject,
		Text:    fmt.Sprintf("%s, verify your account at %s", textName, verifyURL),
		HTML:    body,
		Kind:    KindVerification,
	}
}

// AdminReplyEmail renders a reply from the studio to a contact message.
func AdminReplyEmail(to, subject, message string) Message {
	if strings.TrimSpace(subject) == "" {
		subject = DefaultReplySubject
	}
	body := `<div style="font-family:sans-serif; padding:20px; background:#0f172a; color:#f1f5f9; border-radius:12px;">
  <h2 style="margin-bottom:12px;">Studio reply</h2>
  <p>` + html.EscapeString(message) + `</p>
  <p style="font-size:14px; color:#94a3b8;">We will continue supporting your journey.</p>
</div>`

	return Message{
		To:      to,
		Subject: subject,
		Text:    message,
		HTML:    body,
		Kind:    KindAdminReply,
	}
}
