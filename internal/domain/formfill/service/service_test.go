package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/formfill-api/internal/domain/formfill"
	"github.com/FACorreiaa/formfill-api/internal/domain/formfill/fixtures"
	"github.com/FACorreiaa/formfill-api/internal/domain/formfill/pdf"
	"github.com/FACorreiaa/formfill-api/pkg/logger"
	"github.com/FACorreiaa/formfill-api/pkg/storage"
)

var fixedNow = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	svc       *FormFillService
	uploadDir string
	outputDir string
	template  string
}

func newTestEnv(t *testing.T, filler Filler) *testEnv {
	t.Helper()
	root := t.TempDir()

	uploads, err := storage.NewLocalStorage(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	outputs, err := storage.NewLocalStorage(filepath.Join(root, "outputs"))
	require.NoError(t, err)

	template, err := fixtures.WriteTemplate(root)
	require.NoError(t, err)

	if filler == nil {
		filler = pdf.NewFiller(template)
	}

	svc := NewFormFillService(uploads, outputs, filler, logger.Discard()).
		WithClock(func() time.Time { return fixedNow })

	return &testEnv{
		svc:       svc,
		uploadDir: uploads.Dir(),
		outputDir: outputs.Dir(),
		template:  template,
	}
}

func (e *testEnv) files(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func workbook(t *testing.T, record formfill.Record) []byte {
	t.Helper()
	data, err := fixtures.RecordWorkbook(record)
	require.NoError(t, err)
	return data
}

// failingFiller writes a partial document and then fails
type failingFiller struct {
	path string
}

func (f *failingFiller) TemplatePath() string    { return f.path }
func (f *failingFiller) TemplateAvailable() bool { return true }

func (f *failingFiller) Fill(ctx context.Context, values map[string]string, w io.Writer) error {
	_, _ = io.WriteString(w, "%PDF-1.7 partial")
	return errors.New("malformed AcroForm")
}

func (f *failingFiller) MissingFields(want []string) ([]string, error) {
	return nil, nil
}

func TestFillSuccess(t *testing.T) {
	env := newTestEnv(t, nil)
	record := fixtures.NewRecordGeneratorWithSeed(11).Record()

	result, err := env.svc.Fill(context.Background(), "client.xlsx", bytes.NewReader(workbook(t, record)))
	require.NoError(t, err)

	assert.Equal(t, "Letter_of_Representation_Filled_20250314_093000.pdf", result.DownloadName)
	assert.Equal(t, fixedNow, result.CreatedAt)
	assert.Equal(t, record.Values(), result.Record.Values())

	// Upload removed, document kept until purged
	assert.Empty(t, env.files(t, env.uploadDir))
	outputs := env.files(t, env.outputDir)
	require.Len(t, outputs, 1)
	assert.Equal(t, fmt.Sprintf("filled_pdf_20250314_093000_%s.pdf", result.ID), outputs[0])
	assert.Equal(t, filepath.Join(env.outputDir, outputs[0]), result.OutputPath)

	data, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), result.Size)

	fields, err := pdf.ReadFields(bytes.NewReader(data))
	require.NoError(t, err)
	for _, name := range formfill.FieldNames {
		assert.Equal(t, record.Get(name), fields[name], "field %s", name)
	}
}

func TestFillUppercaseExtension(t *testing.T) {
	env := newTestEnv(t, nil)
	record := fixtures.NewRecordGeneratorWithSeed(12).Record()

	_, err := env.svc.Fill(context.Background(), "CLIENT.XLSX", bytes.NewReader(workbook(t, record)))
	require.NoError(t, err)
}

func TestFillInvalidExtension(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.svc.Fill(context.Background(), "client.csv", strings.NewReader("date,client_name\n"))
	require.Error(t, err)

	assert.ErrorIs(t, err, formfill.ErrInvalidInput)
	assert.Equal(t, "Invalid file type. Please upload an Excel file (.xlsx or .xls)", err.Error())
	assert.Empty(t, env.files(t, env.uploadDir))
	assert.Empty(t, env.files(t, env.outputDir))
}

func TestFillTemplateMissing(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, os.Remove(env.template))

	record := fixtures.NewRecordGeneratorWithSeed(13).Record()
	_, err := env.svc.Fill(context.Background(), "client.xlsx", bytes.NewReader(workbook(t, record)))
	require.Error(t, err)

	assert.ErrorIs(t, err, formfill.ErrConfiguration)
	assert.Contains(t, err.Error(), env.template)
	assert.Empty(t, env.files(t, env.uploadDir), "nothing is stored when the template is missing")
	assert.Empty(t, env.files(t, env.outputDir))
}

func TestFillEmptyWorkbook(t *testing.T) {
	env := newTestEnv(t, nil)

	data, err := fixtures.Workbook(formfill.FieldNames)
	require.NoError(t, err)

	_, err = env.svc.Fill(context.Background(), "empty.xlsx", bytes.NewReader(data))
	require.Error(t, err)

	assert.ErrorIs(t, err, formfill.ErrEmptyInput)
	assert.Empty(t, env.files(t, env.uploadDir))
	assert.Empty(t, env.files(t, env.outputDir), "no document for an empty workbook")
}

func TestFillCorruptWorkbook(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.svc.Fill(context.Background(), "broken.xlsx", strings.NewReader("PK not really a zip"))
	require.Error(t, err)

	assert.ErrorIs(t, err, formfill.ErrProcessing)
	assert.Empty(t, env.files(t, env.uploadDir))
	assert.Empty(t, env.files(t, env.outputDir))
}

func TestFillLegacyWorkbookIsProcessingError(t *testing.T) {
	env := newTestEnv(t, nil)

	// Passes the extension check but is not an OOXML workbook
	_, err := env.svc.Fill(context.Background(), "legacy.xls", strings.NewReader("\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1"))
	require.Error(t, err)
	assert.Equal(t, formfill.KindProcessing, formfill.KindOf(err))
}

func TestFillFillerFailureRollsBack(t *testing.T) {
	env := newTestEnv(t, &failingFiller{path: "template.pdf"})
	record := fixtures.NewRecordGeneratorWithSeed(14).Record()

	_, err := env.svc.Fill(context.Background(), "client.xlsx", bytes.NewReader(workbook(t, record)))
	require.Error(t, err)

	assert.ErrorIs(t, err, formfill.ErrProcessing)
	assert.Contains(t, err.Error(), "malformed AcroForm")
	assert.Empty(t, env.files(t, env.uploadDir), "upload removed after failure")
	assert.Empty(t, env.files(t, env.outputDir), "partial document removed after failure")
}

func TestFillRecordReaderOverride(t *testing.T) {
	env := newTestEnv(t, nil)

	var seenPath string
	env.svc.WithRecordReader(func(path string) (formfill.Record, error) {
		seenPath = path
		return formfill.Record{formfill.FieldClientName: "Jane Doe"}, nil
	})

	result, err := env.svc.Fill(context.Background(), "client.xlsx", strings.NewReader("ignored"))
	require.NoError(t, err)

	assert.Equal(t, env.uploadDir, filepath.Dir(seenPath))
	assert.Equal(t, "Jane Doe", result.Record.Get(formfill.FieldClientName))
}

func TestFillConcurrentRequests(t *testing.T) {
	env := newTestEnv(t, nil)
	gen := fixtures.NewRecordGeneratorWithSeed(99)

	const requests = 8
	records := make([]formfill.Record, requests)
	uploads := make([][]byte, requests)
	for i := range records {
		records[i] = gen.Record()
		records[i][formfill.FieldCaseNumber] = fmt.Sprintf("CASE-%02d", i)
		uploads[i] = workbook(t, records[i])
	}

	results := make([]*FillResult, requests)
	var g errgroup.Group
	for i := 0; i < requests; i++ {
		i := i
		g.Go(func() error {
			// Same client filename for every request
			res, err := env.svc.Fill(context.Background(), "letter.xlsx", bytes.NewReader(uploads[i]))
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())

	paths := make(map[string]bool)
	for i, res := range results {
		require.NotNil(t, res)
		paths[res.OutputPath] = true

		data, err := os.ReadFile(res.OutputPath)
		require.NoError(t, err)
		fields, err := pdf.ReadFields(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, records[i].Get(formfill.FieldCaseNumber), fields[formfill.FieldCaseNumber])
		assert.Equal(t, records[i].Get(formfill.FieldEmail), fields[formfill.FieldEmail])
	}

	assert.Len(t, paths, requests, "every request gets its own document")
	assert.Empty(t, env.files(t, env.uploadDir))
	assert.Len(t, env.files(t, env.outputDir), requests)
}

func TestFillBatchNotImplemented(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.svc.FillBatch(context.Background(), "batch.xlsx", strings.NewReader("anything"))
	require.Error(t, err)
	assert.ErrorIs(t, err, formfill.ErrNotImplemented)
	assert.Equal(t, "Batch processing not yet implemented", err.Error())
	assert.Empty(t, env.files(t, env.uploadDir))
}
