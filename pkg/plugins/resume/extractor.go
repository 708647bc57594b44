package resume

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const downloadUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var extractorLogger = slog.With("component", "resume_extractor")

// DownloadPDF fetches a PDF over HTTP. The content is returned even when it
// does not look like a PDF; the caller decides what to do with it.
func DownloadPDF(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to download PDF from %s: %v", url, err)
	}
	req.Header.Set("User-Agent", downloadUserAgent)

	extractorLogger.Info("Downloading PDF", "url", url)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Failed to download PDF from %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("Failed to download PDF from %s: HTTP %d", url, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Failed to download PDF from %s: %v", url, err)
	}

	if !looksLikePDF(url, resp.Header, content) {
		extractorLogger.Warn("Content may not be a PDF",
			"url", url, "content_type", resp.Header.Get("Content-Type"))
	}
	return content, nil
}

// looksLikePDF accepts the download when any signal confirms PDF content:
// the Content-Type, a .pdf URL, an Airtable attachment with a filename in
// Content-Disposition, or the %PDF- magic bytes.
func looksLikePDF(url string, header http.Header, content []byte) bool {
	contentType := strings.ToLower(header.Get("Content-Type"))
	if strings.Contains(contentType, "application/pdf") {
		return true
	}
	if strings.HasSuffix(strings.ToLower(url), ".pdf") {
		return true
	}
	if strings.Contains(url, "airtableusercontent.com") {
		disposition := strings.ToLower(header.Get("Content-Disposition"))
		for _, marker := range []string{".pdf", "filename=", "filename*="} {
			if strings.Contains(disposition, marker) {
				return true
			}
		}
		if len(content) > 1000 && hasPDFMagic(content) {
			return true
		}
	}
	return false
}

func hasPDFMagic(content []byte) bool {
	limit := 10
	if len(content) < limit {
		limit = len(content)
	}
	return bytes.Contains(content[:limit], []byte("%PDF-"))
}

// ExtractText pulls the plain text out of PDF bytes.
func ExtractText(content []byte) (string, error) {
	if !hasPDFMagic(content) {
		extractorLogger.Warn("Content doesn't appear to be a PDF",
			"first_bytes", string(content[:min(len(content), 10)]))
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("Failed to extract text from PDF: %v", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("Failed to extract text from PDF: %v", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, plain); err != nil {
		return "", fmt.Errorf("Failed to extract text from PDF: %v", err)
	}

	text := CleanText(builder.String())
	if len(strings.TrimSpace(text)) < 10 {
		extractorLogger.Warn("Extracted very little text", "chars", len(text))
	} else {
		extractorLogger.Info("Text extraction successful", "text_length", len(text))
	}
	return text, nil
}

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(` {2,}`)
)

// CleanText collapses repeated whitespace and strips non-printable runes.
func CleanText(text string) string {
	text = multiNewline.ReplaceAllString(text, "\n\n")
	text = multiSpace.ReplaceAllString(text, " ")

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range text {
		if r == '\n' || unicode.IsPrint(r) {
			builder.WriteRune(r)
		}
	}
	return strings.TrimSpace(builder.String())
}

var defaultSectionNames = []string{"education", "experience", "skills", "projects", "languages"}

// ExtractSection returns the body of a named section, ending at the next
// known section heading. Returns "" when the section is absent.
func ExtractSection(text, sectionName string, nextSectionNames []string) string {
	if nextSectionNames == nil {
		nextSectionNames = defaultSectionNames
	}

	pattern := sectionHeadingPattern(sectionName)
	loc := pattern.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	sectionStart := loc[1]

	sectionEnd := len(text)
	for _, next := range nextSectionNames {
		if strings.EqualFold(next, sectionName) {
			continue
		}
		nextLoc := sectionHeadingPattern(next).FindStringIndex(text[sectionStart:])
		if nextLoc != nil && sectionStart+nextLoc[0] < sectionEnd {
			sectionEnd = sectionStart + nextLoc[0]
		}
	}

	return strings.TrimSpace(text[sectionStart:sectionEnd])
}

func sectionHeadingPattern(name string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?i)(?:^|\n)(?:\s*)(` + quoted + `)(?:\s*:?\s*)(?:\n|$)`)
}
