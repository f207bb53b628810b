package scrub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPlayer struct {
	ready    bool
	duration float64
	seeks    []float64
}

func (p *stubPlayer) Ready() bool       { return p.ready }
func (p *stubPlayer) Duration() float64 { return p.duration }

func (p *stubPlayer) Seek(seconds float64) error {
	p.seeks = append(p.seeks, seconds)
	return nil
}

func TestDrag_SeeksOnceAtRelease(t *testing.T) {
	p := &stubPlayer{ready: true, duration: 200}
	c := New(p)

	c.PointerDown(0.1)
	c.PointerMove(0.3)
	c.PointerMove(0.5)
	c.PointerMove(0.7)
	c.PointerUp(0.75)

	assert.Equal(t, []float64{150}, p.seeks, "only the release position seeks")
}

func TestDrag_PreviewTracksPointer(t *testing.T) {
	p := &stubPlayer{ready: true, duration: 100}
	c := New(p)

	c.PointerDown(0.2)
	assert.True(t, c.Dragging())
	assert.Equal(t, 20.0, c.PreviewTime())

	c.PointerMove(0.6)
	assert.Equal(t, 60.0, c.PreviewTime())
	assert.Empty(t, p.seeks, "no seek while dragging")
}

func TestDrag_SuppressesTrailingClick(t *testing.T) {
	p := &stubPlayer{ready: true, duration: 100}
	c := New(p)

	c.PointerDown(0.1)
	c.PointerMove(0.4)
	c.PointerUp(0.4)
	c.Click(0.4)

	assert.Equal(t, []float64{40}, p.seeks, "drag release and click must not both seek")
}

func TestClick_SeeksOnce(t *testing.T) {
	p := &stubPlayer{ready: true, duration: 80}
	c := New(p)

	c.Click(0.25)
	assert.Equal(t, []float64{20}, p.seeks)

	c.Click(0.5)
	assert.Equal(t, []float64{20, 40}, p.seeks, "suppression must not leak into later clicks")
}

func TestClamp_FractionOutOfRange(t *testing.T) {
	p := &stubPlayer{ready: true, duration: 100}
	c := New(p)

	c.Click(-0.5)
	c.Click(1.8)

	assert.Equal(t, []float64{0, 100}, p.seeks)
}

func TestNoOp_WhenPlayerNotReady(t *testing.T) {
	p := &stubPlayer{ready: false, duration: 100}
	c := New(p)

	c.PointerDown(0.5)
	c.PointerMove(0.6)
	c.PointerUp(0.6)
	c.Click(0.5)

	assert.Empty(t, p.seeks)
	assert.False(t, c.Dragging())
}

func TestNoOp_WhenDurationUnknown(t *testing.T) {
	p := &stubPlayer{ready: true, duration: 0}
	c := New(p)

	c.PointerDown(0.5)
	c.Click(0.5)

	assert.Empty(t, p.seeks)
}

func TestPointerMove_OutsideDragIgnored(t *testing.T) {
	p := &stubPlayer{ready: true, duration: 100}
	c := New(p)

	c.PointerMove(0.9)
	assert.Equal(t, 0.0, c.PreviewTime())
}

func TestPointerUp_WithoutDownIgnored(t *testing.T) {
	p := &stubPlayer{ready: true, duration: 100}
	c := New(p)

	c.PointerUp(0.9)
	assert.Empty(t, p.seeks)

	// A later plain click still works: nothing was suppressed.
	c.Click(0.5)
	assert.Equal(t, []float64{50}, p.seeks)
}
