package service

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"mime/multipart"
	"net/textproto"
	"strings"
	texttemplate "text/template"
	"time"
)

var verificationText = texttemplate.Must(texttemplate.New("text").Parse(
	`Hello {{.FullName}},

Welcome to Learn & connect! Your verification code is:

    {{.Code}}

The code expires in {{.Minutes}} minutes. If you did not create an account you can ignore this email.
`))

var verificationHTML = htmltemplate.Must(htmltemplate.New("html").Parse(
	`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Hello {{.FullName}},</h2>
  <p>Welcome to Learn &amp; connect! Your verification code is:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>The code expires in {{.Minutes}} minutes. If you did not create an account you can ignore this email.</p>
</body>
</html>
`))

type templateData struct {
	FullName string
	Code     string
	Minutes  int
}

// RenderVerification returns the plain-text and HTML bodies for msg.
// Minutes is measured from now to the code's expiry.
func RenderVerification(msg VerificationEmail, now time.Time) (text, html string, err error) {
	mins := int(msg.ExpiresAt.Sub(now).Round(time.Minute) / time.Minute)
	if mins < 1 {
		mins = 1
	}
	data := templateData{FullName: msg.FullName, Code: msg.Code, Minutes: mins}
	var tb, hb bytes.Buffer
	if err := verificationText.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("render text: %w", err)
	}
	if err := verificationHTML.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("render html: %w", err)
	}
	return tb.String(), hb.String(), nil
}

// buildMessage assembles an RFC 5322 multipart/alternative message.
func buildMessage(from string, msg VerificationEmail, text, html string, now time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, part := range []struct{ ctype, content string }{
		{"text/plain; charset=UTF-8", text},
		{"text/html; charset=UTF-8", html},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.ctype},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	headers := []string{
		"From: " + from,
		"To: " + sanitizeHeader(msg.To),
		"Subject: " + sanitizeHeader(msg.Subject),
		"Date: " + now.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + mw.Boundary(),
	}
	out.WriteString(strings.Join(headers, "\r\n"))
	out.WriteString("\r\n\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
