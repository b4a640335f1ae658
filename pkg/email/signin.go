package email

import (
	"fmt"
	"html/template"
	"strings"
)

// signInTmpl is the magic-link sign-in email. Styling is inline because email
// clients strip style sheets.
var signInTmpl = template.Must(template.New("signin").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Helvetica, Arial, sans-serif; color: #1a1a1a; margin: 0; padding: 24px;">
  <div style="max-width: 480px; margin: 0 auto;">
    <h2 style="margin: 0 0 16px;">Sign in to {{.AppName}}</h2>
    <p>Click the button below to sign in. The link is valid for {{.TTL}} and can be used once.</p>
    <p style="margin: 24px 0;">
      <a href="{{.Link}}" style="background: #2563eb; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none; display: inline-block;">Sign in</a>
    </p>
    <p style="color: #6b7280; font-size: 13px;">If the button does not work, copy this address into your browser:<br>{{.Link}}</p>
    <p style="color: #6b7280; font-size: 13px;">If you did not request this email, you can safely ignore it.</p>
  </div>
</body>
</html>`))

// SignInMessage composes the magic-link email for the given recipient.
func SignInMessage(appName, to, link, ttl string) (Message, error) {
	var body strings.Builder
	err := signInTmpl.Execute(&body, struct {
		AppName string
		Link    string
		TTL     string
	}{AppName: appName, Link: link, TTL: ttl})
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	return Message{
		To:       to,
		Subject:  fmt.Sprintf("Sign in to %s", appName),
		HTMLBody: body.String(),
		Tag:      "sign-in",
	}, nil
}
