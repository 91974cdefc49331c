package report

import (
	"sync"
	"time"

	scoperrors "stepscope/pkg/errors"
)

// Attachment is a named blob recorded against a step.
type Attachment struct {
	Name      string
	MediaType string
	Content   []byte
}

// StepRecord is one node in the recorded step tree.
type StepRecord struct {
	Name        string
	Status      Status
	Failure     string
	FailureKind string
	Start       time.Time
	Stop        time.Time
	Steps       []*StepRecord
	Attachments []Attachment
}

// Find returns the first descendant (depth-first, self included) with the
// given name, or nil.
func (r *StepRecord) Find(name string) *StepRecord {
	if r == nil {
		return nil
	}
	if r.Name == name {
		return r
	}
	for _, child := range r.Steps {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Recorder is an in-memory Reporter that materialises steps as a tree.
// Nesting follows begin/end bracketing: a step begun while another is open
// becomes its child. Bracketing is per logical thread of control, so share a
// Recorder across goroutines only for independent root steps.
type Recorder struct {
	mu    sync.Mutex
	roots []*StepRecord
	open  []*StepRecord

	// onRootEnd, when set, fires after a root step closes.
	onRootEnd func(*StepRecord)
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// BeginStep opens a step under the innermost open step, or as a new root.
func (r *Recorder) BeginStep(title string) StepHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := &StepRecord{Name: title, Start: time.Now()}
	if len(r.open) == 0 {
		r.roots = append(r.roots, rec)
	} else {
		parent := r.open[len(r.open)-1]
		parent.Steps = append(parent.Steps, rec)
	}
	r.open = append(r.open, rec)
	return rec
}

// EndStep closes the step with its final status. The handle is expected to be
// the innermost open step; if it is not, it is removed from wherever it sits.
func (r *Recorder) EndStep(h StepHandle, status Status, err error) {
	rec, ok := h.(*StepRecord)
	if !ok || rec == nil {
		return
	}

	r.mu.Lock()
	rec.Status = status
	rec.Stop = time.Now()
	if err != nil {
		rec.Failure = err.Error()
		rec.FailureKind = scoperrors.Kind(err)
	}

	wasRoot := false
	for _, root := range r.roots {
		if root == rec {
			wasRoot = true
			break
		}
	}
	if n := len(r.open); n > 0 && r.open[n-1] == rec {
		r.open = r.open[:n-1]
	} else {
		for i, o := range r.open {
			if o == rec {
				r.open = append(r.open[:i], r.open[i+1:]...)
				break
			}
		}
	}
	openEmpty := len(r.open) == 0
	callback := r.onRootEnd
	r.mu.Unlock()

	if wasRoot && openEmpty && callback != nil {
		callback(rec)
	}
}

// Attach records a blob against the given open step. A nil handle is ignored.
func (r *Recorder) Attach(h StepHandle, name, mediaType string, content []byte) {
	rec, ok := h.(*StepRecord)
	if !ok || rec == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rec.Attachments = append(rec.Attachments, Attachment{Name: name, MediaType: mediaType, Content: content})
}

// Roots returns the recorded top-level steps in begin order.
func (r *Recorder) Roots() []*StepRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*StepRecord(nil), r.roots...)
}
