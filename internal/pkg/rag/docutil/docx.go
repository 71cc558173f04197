package docutil

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/unidoc/unioffice/common/license"
	"github.com/unidoc/unioffice/document"
)

// wordNS 是 WordprocessingML 主命名空间。
const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

const documentPart = "word/document.xml"

var officeLicensed atomic.Bool

// SetOfficeLicense 设置 unioffice 的 metered key。设置成功后 .docx 由 unioffice 解析，
// 未设置时直接读取 word/document.xml 的段落。空 key 不做任何事。
func SetOfficeLicense(key string) error {
	if key == "" {
		return nil
	}
	if err := license.SetMeteredKey(key); err != nil {
		return fmt.Errorf("set unioffice license: %w", err)
	}
	officeLicensed.Store(true)
	return nil
}

// OfficeLicensed 报告 unioffice 是否已获得授权。
func OfficeLicensed() bool {
	return officeLicensed.Load()
}

// extractDOCX 按段落提取文本，段落间以换行连接。
func extractDOCX(data []byte) (string, error) {
	if officeLicensed.Load() {
		return extractDOCXOffice(data)
	}
	return extractDOCXXML(data)
}

func extractDOCXOffice(data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	paragraphs := doc.Paragraphs()
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		var line strings.Builder
		for _, r := range p.Runs() {
			line.WriteString(r.Text())
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n"), nil
}

// extractDOCXXML 从 OOXML 包中读取正文段落：w:t 为文本，run 内的 w:tab 与 w:br 分别转为制表符和换行。
func extractDOCXXML(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("parse docx: missing %s", documentPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer rc.Close()

	lines, err := readParagraphs(rc)
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

func readParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		lines  []string
		line   strings.Builder
		inPara bool
		inRun  bool
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				inPara = true
				line.Reset()
			case "r":
				inRun = true
			case "t":
				inText = true
			case "tab":
				// w:pPr/w:tabs 下的 w:tab 是制表位定义，不是文本
				if inRun {
					line.WriteByte('\t')
				}
			case "br", "cr":
				if inRun {
					line.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "r":
				inRun = false
			case "t":
				inText = false
			case "p":
				lines = append(lines, line.String())
				inPara = false
			}
		case xml.CharData:
			if inText && inPara {
				line.Write(t)
			}
		}
	}
}
