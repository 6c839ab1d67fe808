package diag

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Report(d Diagnostic) {
	m.Called(d)
}

func sampleDiagnostic() Diagnostic {
	return Diagnostic{
		Pos:      Pos{Filename: "zip.rs", Line: 4, Column: 3},
		Severity: SeverityWarning,
		Code:     CodeBitfieldPadding,
		Message:  "bitfield group leaves 3 bits unused",
	}
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	NewWriterSink(&buf).Report(sampleDiagnostic())
	assert.Equal(t, "zip.rs:4:3: warning: bitfield group leaves 3 bits unused [bitfield-padding]\n", buf.String())
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	NewSlogSink(logger).Report(sampleDiagnostic())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "bitfield-padding", entry["code"])
	assert.Equal(t, "zip.rs:4:3", entry["pos"])
	assert.Equal(t, float64(4), entry["line"])
}

func TestMultiSinkFansOut(t *testing.T) {
	d := sampleDiagnostic()
	a := &mockSink{}
	b := &mockSink{}
	a.On("Report", d).Once()
	b.On("Report", d).Once()

	NewMultiSink(a, b).Report(d)

	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestReportAll(t *testing.T) {
	s := &mockSink{}
	s.On("Report", mock.Anything).Twice()
	ReportAll(s, List{sampleDiagnostic(), sampleDiagnostic()})
	s.AssertExpectations(t)
	NoopSink{}.Report(sampleDiagnostic())
}
