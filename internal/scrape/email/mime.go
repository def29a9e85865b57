package email

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

const maxBodyBytes = 6 << 20

// parseRFC822 returns the decoded subject plus the best text/plain and
// text/html parts of raw.
func parseRFC822(raw []byte, fallbackSubject string) (subject, bodyText, htmlBody string) {
	if len(raw) == 0 {
		return fallbackSubject, "", ""
	}
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return fallbackSubject, string(raw), ""
	}

	subject = decodeRFC2047(msg.Header.Get("Subject"))
	if subject == "" {
		subject = fallbackSubject
	}

	bodyRaw, _ := io.ReadAll(io.LimitReader(msg.Body, maxBodyBytes))
	bodyText, htmlBody = extractMIMETextParts(msg.Header, bodyRaw)
	if bodyText == "" && htmlBody == "" {
		bodyText = string(bodyRaw)
	}
	return subject, bodyText, htmlBody
}

func extractMIMETextParts(h mail.Header, body []byte) (plain, htmlPart string) {
	cte := strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding")))

	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return string(decodeTransferEncoding(body, cte)), ""
	}
	mediaType = strings.ToLower(mediaType)

	if !strings.HasPrefix(mediaType, "multipart/") {
		s := string(decodeTransferEncoding(body, cte))
		if strings.HasPrefix(mediaType, "text/html") {
			return "", s
		}
		return s, ""
	}

	boundary := params["boundary"]
	if boundary == "" {
		return string(decodeTransferEncoding(body, cte)), ""
	}
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		partCTE := strings.ToLower(strings.TrimSpace(p.Header.Get("Content-Transfer-Encoding")))
		pMedia, _, _ := mime.ParseMediaType(p.Header.Get("Content-Type"))
		pMedia = strings.ToLower(pMedia)

		// multipart.Part decodes quoted-printable itself and drops the header.
		b, _ := io.ReadAll(io.LimitReader(p, maxBodyBytes))
		b = decodeTransferEncoding(b, partCTE)

		switch {
		case strings.HasPrefix(pMedia, "multipart/"):
			pl, ht := extractMIMETextParts(mail.Header(p.Header), b)
			if len(pl) > len(plain) {
				plain = pl
			}
			if len(ht) > len(htmlPart) {
				htmlPart = ht
			}
		case strings.HasPrefix(pMedia, "text/plain"):
			if len(b) > len(plain) {
				plain = string(b)
			}
		case strings.HasPrefix(pMedia, "text/html"):
			if len(b) > len(htmlPart) {
				htmlPart = string(b)
			}
		}
	}
	return plain, htmlPart
}

func decodeTransferEncoding(b []byte, cte string) []byte {
	var r io.Reader
	switch cte {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b))
	case "quoted-printable":
		r = quotedprintable.NewReader(bytes.NewReader(b))
	default:
		return b
	}
	out, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil && len(out) == 0 {
		return b
	}
	return out
}

func decodeRFC2047(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	out, err := new(mime.WordDecoder).DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}

func containsAnyCI(s string, any []string) bool {
	ls := strings.ToLower(s)
	for _, a := range any {
		a = strings.TrimSpace(a)
		if a != "" && strings.Contains(ls, strings.ToLower(a)) {
			return true
		}
	}
	return false
}
