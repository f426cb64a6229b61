package textpdf

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const docxBodyPart = "word/document.xml"

var ErrUnsupportedFormat = errors.New("no text extractor for this format")

// ExtractText returns the raw text of a Word file, one paragraph per block,
// blocks separated by a blank line. Formatting, images and tables layout are lost.
func ExtractText(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".docx":
		return extractDocx(path)
	default:
		// legacy binary .doc is left to the office suite
		return "", errors.Wrap(ErrUnsupportedFormat, ext)
	}
}

func extractDocx(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", errors.Wrap(err, "opening docx")
	}
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		if f.Name != docxBodyPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", errors.Wrap(err, "opening "+docxBodyPart)
		}
		defer func() { _ = rc.Close() }()
		return documentText(rc)
	}
	return "", errors.Errorf("%s not found in docx", docxBodyPart)
}

// documentText walks WordprocessingML: text runs (w:t), tabs, line breaks and paragraph ends.
func documentText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paras  []string
		para   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, "parsing "+docxBodyPart)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				paras = append(paras, para.String())
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(el)
			}
		}
	}
	if para.Len() > 0 {
		paras = append(paras, para.String())
	}
	return strings.Join(paras, "\n\n"), nil
}
