package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"

	"github.com/go-weather-auth/internal/domain"
)

// Mailer delivers a rendered email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// Service renders account emails and hands them to the configured sink.
type Service interface {
	SendVerification(ctx context.Context, u *domain.User) error
	SendResetCode(ctx context.Context, email, code string) error
}

type service struct {
	mailer  Mailer
	ownLink string
}

// NewService builds the notifier. ownLink is this API's public base URL and is
// used to build the verification link.
func NewService(mailer Mailer, ownLink string) Service {
	return &service{mailer: mailer, ownLink: ownLink}
}

var verificationTmpl = template.Must(template.New("verify").Parse(`<html>
  <body>
    <h2>Hi {{.Username}},</h2>
    <p>Please confirm your email address to activate your account.</p>
    <p><a href="{{.Link}}">Verify email</a></p>
  </body>
</html>`))

var resetTmpl = template.Must(template.New("reset").Parse(`<html>
  <body>
    <p>Your password reset code is:</p>
    <h1>{{.Code}}</h1>
    <p>The code expires in 24 hours.</p>
  </body>
</html>`))

func (s *service) SendVerification(ctx context.Context, u *domain.User) error {
	link := fmt.Sprintf("%s/api/verify-email?userId=%s", s.ownLink, url.QueryEscape(u.UserID))
	body, err := render(verificationTmpl, map[string]string{"Username": u.Username, "Link": link})
	if err != nil {
		return err
	}
	return s.mailer.SendEmail(ctx, u.Email, "Verify your email", body)
}

func (s *service) SendResetCode(ctx context.Context, email, code string) error {
	body, err := render(resetTmpl, map[string]string{"Code": code})
	if err != nil {
		return err
	}
	return s.mailer.SendEmail(ctx, email, "Password reset code", body)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
