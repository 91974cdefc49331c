package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FormatVersion identifies the result-file layout this writer produces.
// Readers built for a different version may misinterpret the output, so the
// writer leaves a marker file in the output directory and warns when an
// existing marker disagrees.
const FormatVersion = "2"

// AllowFormatMismatchEnv silences the format-version warning when set to a
// non-empty value.
const AllowFormatMismatchEnv = "STEPSCOPE_ALLOW_FORMAT_MISMATCH"

const formatMarkerName = ".stepscope-format"

// AllureWriter is a Reporter that records steps in memory and, each time a
// root step finishes, writes one Allure-style `<uuid>-result.json` document
// to the output directory. Attachment content is written to sibling files and
// referenced by source name.
type AllureWriter struct {
	Recorder

	dir string
	log zerolog.Logger
}

// NewAllureWriter prepares the output directory and returns a writer. The
// logger is only used for the format-version warning; pass zerolog.Nop() to
// disable it.
func NewAllureWriter(dir string, log zerolog.Logger) (*AllureWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create result directory: %w", err)
	}

	w := &AllureWriter{dir: dir, log: log}
	w.checkFormatMarker()
	w.Recorder.onRootEnd = w.writeResult
	return w, nil
}

func (w *AllureWriter) checkFormatMarker() {
	marker := filepath.Join(w.dir, formatMarkerName)
	data, err := os.ReadFile(marker)
	if err == nil {
		existing := strings.TrimSpace(string(data))
		if existing != FormatVersion && os.Getenv(AllowFormatMismatchEnv) == "" {
			w.log.Warn().
				Str("dir", w.dir).
				Str("found", existing).
				Str("expected", FormatVersion).
				Msgf("result directory was written with format version %s, expected %s; set %s to silence", existing, FormatVersion, AllowFormatMismatchEnv)
		}
		return
	}

	// Marker write failures are not fatal; results remain usable.
	_ = os.WriteFile(marker, []byte(FormatVersion+"\n"), 0o644)
}

type allureStatusDetails struct {
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

type allureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

type allureStep struct {
	Name          string               `json:"name"`
	Status        string               `json:"status"`
	StatusDetails *allureStatusDetails `json:"statusDetails,omitempty"`
	Start         int64                `json:"start"`
	Stop          int64                `json:"stop"`
	Steps         []allureStep         `json:"steps"`
	Attachments   []allureAttachment   `json:"attachments,omitempty"`
}

type allureResult struct {
	UUID string `json:"uuid"`
	allureStep
}

// writeResult serialises one finished root step. Write failures surface as
// warnings only: reporting must never disturb the scope state machine.
func (w *AllureWriter) writeResult(root *StepRecord) {
	id := uuid.NewString()
	result := allureResult{
		UUID:       id,
		allureStep: w.convert(root),
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		w.log.Warn().Err(err).Str("step", root.Name).Msg("failed to encode result")
		return
	}

	path := filepath.Join(w.dir, id+"-result.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("failed to write result")
	}
}

func (w *AllureWriter) convert(rec *StepRecord) allureStep {
	out := allureStep{
		Name:   rec.Name,
		Status: string(rec.Status),
		Start:  rec.Start.UnixMilli(),
		Stop:   rec.Stop.UnixMilli(),
		Steps:  []allureStep{},
	}
	if rec.Failure != "" {
		out.StatusDetails = &allureStatusDetails{
			Message: fmt.Sprintf("%s: %s", rec.FailureKind, rec.Failure),
		}
	}
	for _, child := range rec.Steps {
		out.Steps = append(out.Steps, w.convert(child))
	}
	for _, att := range rec.Attachments {
		source := uuid.NewString() + "-attachment"
		if err := os.WriteFile(filepath.Join(w.dir, source), att.Content, 0o644); err != nil {
			w.log.Warn().Err(err).Str("attachment", att.Name).Msg("failed to write attachment")
			continue
		}
		out.Attachments = append(out.Attachments, allureAttachment{
			Name:   att.Name,
			Source: source,
			Type:   att.MediaType,
		})
	}
	return out
}
