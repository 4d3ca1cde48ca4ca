// Package mock implements a scripted detector for tests and for running the
// pipelines without any real detection backend.
package mock

import (
	"context"
	"sync"

	"github.com/veilworks/faceveil/internal/detect"
	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/media"
)

// Detector replays scripted detections. Successive DetectFaces calls map
// onto frame indices, which matches how the analysis pipeline walks a
// stream.
type Detector struct {
	mu     sync.Mutex
	next   int
	script map[int][]domain.Region
	errs   map[int]error
	always []domain.Region
}

var _ detect.Detector = (*Detector)(nil)

func New() *Detector {
	return &Detector{
		script: make(map[int][]domain.Region),
		errs:   make(map[int]error),
	}
}

// ScriptRegions sets the regions returned for the given call index.
func (d *Detector) ScriptRegions(call int, regions ...domain.Region) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.script[call] = regions
}

// ScriptError makes the given call index fail.
func (d *Detector) ScriptError(call int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs[call] = err
}

// Always sets the regions returned for calls with no script entry. The
// default is none.
func (d *Detector) Always(regions ...domain.Region) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.always = regions
}

// Calls returns how many times DetectFaces ran.
func (d *Detector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next
}

func (d *Detector) Name() string { return "mock" }

func (d *Detector) DetectFaces(ctx context.Context, frame *media.Frame) ([]domain.Region, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	call := d.next
	d.next++

	if err, ok := d.errs[call]; ok {
		return nil, err
	}
	if regions, ok := d.script[call]; ok {
		return append([]domain.Region(nil), regions...), nil
	}
	return append([]domain.Region(nil), d.always...), nil
}
