// Package pdf fills the Letter of Representation template with pdfcpu.
//
// The template is opened from disk on every call and never modified: pdfcpu
// exports the template's form as JSON, the matching field values are set on
// that export and the result is filled into a fresh copy written to w.
package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrTemplateNotFound is returned when the template file does not exist.
var ErrTemplateNotFound = errors.New("pdf template not found")

// Field kinds in pdfcpu's form export that carry free text values.
var textKinds = []string{"textfield", "datefield"}

// formGroup is pdfcpu's form export document. Only the parts the filler
// touches are decoded; everything else is carried through unchanged.
type formGroup struct {
	Header json.RawMessage              `json:"header,omitempty"`
	Forms  []map[string]json.RawMessage `json:"forms"`
}

// Filler writes filled copies of a fixed template.
type Filler struct {
	templatePath string
}

// NewFiller creates a filler for the template at templatePath.
func NewFiller(templatePath string) *Filler {
	return &Filler{templatePath: templatePath}
}

// TemplatePath returns the configured template location.
func (f *Filler) TemplatePath() string {
	return f.templatePath
}

// TemplateAvailable reports whether the template file currently exists.
func (f *Filler) TemplateAvailable() bool {
	info, err := os.Stat(f.templatePath)
	return err == nil && info.Mode().IsRegular()
}

// Fill writes a copy of the template to w with each named field set to its
// value. Values for fields the template does not define are ignored.
func (f *Filler) Fill(ctx context.Context, values map[string]string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	template, err := f.open()
	if err != nil {
		return err
	}
	defer template.Close()

	group, err := exportForm(template, f.templatePath)
	if err != nil {
		return err
	}

	if err := group.setValues(values); err != nil {
		return err
	}

	formJSON, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("failed to encode form values: %w", err)
	}

	if _, err := template.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind template: %w", err)
	}

	if err := api.FillForm(template, bytes.NewReader(formJSON), w, newConfiguration()); err != nil {
		return fmt.Errorf("failed to fill form: %w", err)
	}
	return nil
}

// TemplateFields returns the names of the text fields the template defines.
func (f *Filler) TemplateFields() ([]string, error) {
	template, err := f.open()
	if err != nil {
		return nil, err
	}
	defer template.Close()

	values, err := ReadFields(template)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// MissingFields returns the entries of want the template does not define.
func (f *Filler) MissingFields(want []string) ([]string, error) {
	have, err := f.TemplateFields()
	if err != nil {
		return nil, err
	}

	defined := make(map[string]bool, len(have))
	for _, name := range have {
		defined[name] = true
	}

	var missing []string
	for _, name := range want {
		if !defined[name] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// ReadFields returns the current value of every text field in the PDF
// read from rs, keyed by field name.
func ReadFields(rs io.ReadSeeker) (map[string]string, error) {
	group, err := exportForm(rs, "document.pdf")
	if err != nil {
		return nil, err
	}
	return group.values()
}

func (f *Filler) open() (*os.File, error) {
	file, err := os.Open(f.templatePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, f.templatePath)
		}
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	return file, nil
}

func exportForm(rs io.ReadSeeker, source string) (*formGroup, error) {
	var buf bytes.Buffer
	if err := api.ExportFormJSON(rs, &buf, source, newConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to export form: %w", err)
	}

	var group formGroup
	if err := json.Unmarshal(buf.Bytes(), &group); err != nil {
		return nil, fmt.Errorf("failed to decode form export: %w", err)
	}
	return &group, nil
}

// setValues rewrites the "value" of every text field whose name has an
// entry in values.
func (g *formGroup) setValues(values map[string]string) error {
	for _, form := range g.Forms {
		for _, kind := range textKinds {
			raw, ok := form[kind]
			if !ok {
				continue
			}

			var fields []map[string]any
			if err := json.Unmarshal(raw, &fields); err != nil {
				return fmt.Errorf("failed to decode %s entries: %w", kind, err)
			}

			for _, field := range fields {
				name, _ := field["name"].(string)
				if value, ok := values[name]; ok {
					field["value"] = value
				}
			}

			updated, err := json.Marshal(fields)
			if err != nil {
				return fmt.Errorf("failed to encode %s entries: %w", kind, err)
			}
			form[kind] = updated
		}
	}
	return nil
}

func (g *formGroup) values() (map[string]string, error) {
	out := make(map[string]string)
	for _, form := range g.Forms {
		for _, kind := range textKinds {
			raw, ok := form[kind]
			if !ok {
				continue
			}

			var fields []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			}
			if err := json.Unmarshal(raw, &fields); err != nil {
				return nil, fmt.Errorf("failed to decode %s entries: %w", kind, err)
			}

			for _, field := range fields {
				if _, seen := out[field.Name]; !seen {
					out[field.Name] = field.Value
				}
			}
		}
	}
	return out, nil
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
