// Package extract recovers an embedded CSV attachment from a raw
// MIME-encoded email body. It targets the single known bank-export
// format, not MIME in general.
package extract

import (
	"encoding/base64"
	"log/slog"
	"strings"
)

// encodingMarker is the header line that precedes the base64 attachment
// section in the bank's statement emails.
const encodingMarker = "Content-Transfer-Encoding: base64"

// Part-metadata prefixes that the export interleaves with body lines.
var metadataPrefixes = []string{"Content-ID:", "X-Attachment-Id:"}

// EmbeddedCSV locates the first base64 section of the email body and
// returns its decoded text. The second return value is false when no
// section is found or the payload cannot be decoded; this function never
// fails harder than that.
func EmbeddedCSV(emailText string) (string, bool) {
	lines := strings.Split(emailText, "\n")

	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == encodingMarker {
			start = i + 1
			break
		}
	}
	if start < 0 {
		slog.Debug("no base64 transfer-encoding marker in email body")
		return "", false
	}

	var payload strings.Builder
	for _, line := range lines[start:] {
		if isBoundary(line) {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isMetadata(trimmed) {
			continue
		}
		payload.WriteString(trimmed)
	}

	if payload.Len() == 0 {
		return "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(payload.String())
	if err != nil {
		slog.Warn("embedded attachment is not valid base64", "error", err)
		return "", false
	}

	return string(decoded), true
}

// isBoundary reports whether the line looks like a MIME multipart
// boundary: it starts with "--" and contains a second "--" later on.
// This is a deliberate approximation of the export's framing, fragile
// against content lines that happen to start with "--".
func isBoundary(line string) bool {
	return strings.HasPrefix(line, "--") && strings.Contains(line[2:], "--")
}

func isMetadata(line string) bool {
	for _, prefix := range metadataPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
