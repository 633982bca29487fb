package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/go-weather-auth/internal/application/account"
)

// EmailConfirmHandler serves the link sent in the verification email. Both
// outcomes render a page that redirects the browser to the front end.
type EmailConfirmHandler struct {
	svc          account.Service
	frontendLink string
}

func NewEmailConfirmHandler(svc account.Service, frontendLink string) *EmailConfirmHandler {
	return &EmailConfirmHandler{svc: svc, frontendLink: frontendLink}
}

var confirmPage = template.Must(template.New("confirm").Parse(`<html>
  <head>
    <meta http-equiv="refresh" content="{{.Delay}}; url={{.Link}}">
  </head>
  <body>
    <div style="display: flex; justify-content: center; align-items: center; height: 100%; background-color: #e3e3e3;">
      <a href="{{.Link}}" style="border: 2px solid black; border-radius: 20px; padding-inline: 20px; text-decoration: none;">
        <h1 style="color: #ce0014; font-weight: bold;">{{.Title}}</h1>
      </a>
    </div>
  </body>
</html>
`))

type confirmData struct {
	Delay int
	Link  string
	Title string
}

func (h *EmailConfirmHandler) Verify(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.svc.VerifyEmail(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		httpError(w, r, "account.verify_email", err)
		return
	}
	if outcome == account.AlreadyVerified {
		h.render(w, http.StatusBadRequest, confirmData{Delay: 1, Link: h.frontendLink, Title: "Verification not needed"})
		return
	}
	h.render(w, http.StatusOK, confirmData{Delay: 3, Link: h.frontendLink, Title: "User verified successfully"})
}

func (h *EmailConfirmHandler) render(w http.ResponseWriter, status int, data confirmData) {
	var buf bytes.Buffer
	if err := confirmPage.Execute(&buf, data); err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
