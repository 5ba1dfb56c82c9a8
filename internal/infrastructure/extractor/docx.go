package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// A .docx file is a zip archive; the document body lives in
// word/document.xml as WordprocessingML. Text sits in <w:t> elements,
// paragraphs in <w:p>, explicit breaks in <w:br> and <w:tab>.
func extractDocx(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}

	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	body, err := archive.Open("word/document.xml")
	if err != nil {
		return "", fmt.Errorf("open docx document body: %w", err)
	}
	defer body.Close()

	text, err := wordprocessingText(body)
	if err != nil {
		return "", fmt.Errorf("parse docx body: %w", err)
	}
	return text, nil
}

func wordprocessingText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br":
				sb.WriteByte('\n')
			case "tab":
				sb.WriteByte('\t')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
