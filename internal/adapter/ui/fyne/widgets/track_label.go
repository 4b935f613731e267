// Package widgets holds custom Fyne widgets used by the player window.
package widgets

import (
	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

var (
	_ fyneapp.DoubleTappable    = (*TrackLabel)(nil)
	_ fyneapp.SecondaryTappable = (*TrackLabel)(nil)
)

// TrackLabel is a queue row. It reports double taps and right clicks together
// with the row index it currently shows.
type TrackLabel struct {
	widget.Label
	index           int
	doubleTapped    func(index int)
	secondaryTapped func(index int, pos fyneapp.Position)
}

// NewTrackLabel creates a row. Either callback may be nil.
func NewTrackLabel(doubleTapped func(index int), secondaryTapped func(index int, pos fyneapp.Position)) *TrackLabel {
	label := &TrackLabel{
		doubleTapped:    doubleTapped,
		secondaryTapped: secondaryTapped,
	}
	label.Truncation = fyneapp.TextTruncateEllipsis
	label.ExtendBaseWidget(label)
	return label
}

// SetIndex sets the row this label shows. widget.List reuses cells, so it
// changes on every update.
func (l *TrackLabel) SetIndex(index int) {
	l.index = index
}

// Index returns the row this label shows.
func (l *TrackLabel) Index() int {
	return l.index
}

func (l *TrackLabel) DoubleTapped(_ *fyneapp.PointEvent) {
	if l.doubleTapped != nil {
		l.doubleTapped(l.index)
	}
}

func (l *TrackLabel) TappedSecondary(pe *fyneapp.PointEvent) {
	if l.secondaryTapped != nil {
		l.secondaryTapped(l.index, pe.AbsolutePosition)
	}
}
