// Package fixtures builds test inputs for the form-fill pipeline: a minimal
// fillable PDF template, workbooks and generated records.
package fixtures

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FACorreiaa/formfill-api/internal/domain/formfill"
)

// TemplateFileName mirrors the production template name.
const TemplateFileName = "Letter_of_Representation_Fillable.pdf"

// BuildTemplate returns a one-page PDF whose AcroForm defines a text field
// for each name. With no names, the twelve production fields are used.
func BuildTemplate(fieldNames ...string) []byte {
	if len(fieldNames) == 0 {
		fieldNames = formfill.FieldNames
	}

	const (
		catalogObj = 1
		pagesObj   = 2
		fontObj    = 3
		pageObj    = 4
		firstField = 5
	)
	contentObj := firstField + len(fieldNames)

	var fieldRefs []string
	for i := range fieldNames {
		fieldRefs = append(fieldRefs, fmt.Sprintf("%d 0 R", firstField+i))
	}
	refs := strings.Join(fieldRefs, " ")

	content := "BT /Helv 14 Tf 72 760 Td (Letter of Representation) Tj ET"

	objects := []string{
		fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R /AcroForm << /Fields [%s] /DA (/Helv 0 Tf 0 g) /DR << /Font << /Helv %d 0 R >> >> >> >>",
			pagesObj, refs, fontObj),
		fmt.Sprintf("<< /Type /Pages /Kids [%d 0 R] /Count 1 >>", pageObj),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /Helv %d 0 R >> >> /Contents %d 0 R /Annots [%s] >>",
			pagesObj, fontObj, contentObj, refs),
	}

	for i, name := range fieldNames {
		y := 720 - i*24
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /Rect [72 %d 540 %d] /P %d 0 R /F 4 /DA (/Helv 10 Tf 0 g) >>",
			escapeString(name), y, y+18, pageObj))
	}

	objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalogObj, xref)

	return buf.Bytes()
}

// WriteTemplate writes BuildTemplate(fieldNames...) to dir and returns its path.
func WriteTemplate(dir string, fieldNames ...string) (string, error) {
	path := filepath.Join(dir, TemplateFileName)
	if err := os.WriteFile(path, BuildTemplate(fieldNames...), 0644); err != nil {
		return "", fmt.Errorf("failed to write template: %w", err)
	}
	return path, nil
}

func escapeString(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return replacer.Replace(s)
}
