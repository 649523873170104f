package services

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FileExtractService turns a local document into plain text for use as chat context.
type FileExtractService struct{}

func NewFileExtractService() *FileExtractService {
	return &FileExtractService{}
}

// SupportedContextExtensions lists the file types ExtractTextFromPath accepts.
var SupportedContextExtensions = []string{".txt", ".md", ".pdf", ".docx"}

func (s *FileExtractService) ExtractTextFromPath(path string) (string, error) {
	var (
		raw string
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md":
		raw, err = readPlainText(path)
	case ".pdf":
		raw, err = readPDFText(path)
	case ".docx":
		raw, err = readDOCXText(path)
	default:
		return "", fmt.Errorf("unsupported context file type %q (supported: %s)", ext, strings.Join(SupportedContextExtensions, ", "))
	}
	if err != nil {
		return "", err
	}

	text := normalizeExtractedText(raw)
	if text == "" {
		return "", fmt.Errorf("no extractable text found in %s", filepath.Base(path))
	}
	return text, nil
}

func readPlainText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read context file: %w", err)
	}
	return string(b), nil
}

func readPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func readDOCXText(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		documentXML, err := readZipEntry(f)
		if err != nil {
			return "", fmt.Errorf("read docx body: %w", err)
		}
		return stripDOCXML(documentXML), nil
	}
	return "", fmt.Errorf("docx document.xml not found")
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

var docxBreaks = strings.NewReplacer(
	"</w:p>", "\n",
	"<w:br/>", "\n",
	"<w:br />", "\n",
	"<w:tab/>", "\t",
)

var xmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

func stripDOCXML(src []byte) string {
	s := docxBreaks.Replace(string(src))
	s = xmlTagPattern.ReplaceAllString(s, "")
	return xmlEntities.Replace(s)
}

// normalizeExtractedText trims every line and collapses runs of blank lines
// into one.
func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	blank := false
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if !blank {
				b.WriteString("\n")
			}
			blank = true
			continue
		}
		blank = false
		b.WriteString(trimmed)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
