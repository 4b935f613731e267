package fyne

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tunestream/tunestream/internal/adapter/ui/fyne/widgets"
	"github.com/tunestream/tunestream/internal/adapter/ui/presenter"
	"github.com/tunestream/tunestream/internal/domain"
)

const (
	windowTitle  = "tunestream"
	windowWidth  = 520
	windowHeight = 560
	miniHeight   = 110
)

// Session is the part of the playback session the window drives.
type Session interface {
	Controls
	Seek(fraction float64)
	SetVolume(volume float64)
	ToggleShuffleMode()
	ToggleRepeat()
	ToggleMiniView()
	PlayTrack(track domain.Track)
	InsertAfterCurrent(track domain.Track)
	AppendToEnd(track domain.Track)
}

// PlayerWindow is the desktop player: transport controls, a seek bar and the
// searchable play queue. It is a passive view fed by a presenter.Presenter;
// user input goes straight to the session.
type PlayerWindow struct {
	logger  *slog.Logger
	window  fyneapp.Window
	session Session
	keys    *KeyBindings

	// UI components
	prevButton     *widget.Button
	playButton     *widget.Button
	nextButton     *widget.Button
	shuffleButton  *widget.Button
	repeatButton   *widget.Button
	miniButton     *widget.Button
	songInfo       *widget.Label
	message        *widget.Label
	currentTime    *widget.Label
	endTime        *widget.Label
	progressSlider *widget.Slider
	volumeSlider   *widget.Slider
	searchEntry    *widget.Entry
	list           *widget.List
	queuePanel     *fyneapp.Container

	// View state, only touched on the Fyne goroutine
	queue   []domain.Track
	visible []int // queue indexes matching the search
	current int
	mini    bool

	closeOnce sync.Once
}

// NewPlayerWindow creates the window on app. Call ShowAndRun to display it.
func NewPlayerWindow(logger *slog.Logger, app fyneapp.App, session Session) *PlayerWindow {
	w := &PlayerWindow{
		logger:  logger.With("component", "window"),
		session: session,
		keys:    NewKeyBindings(logger, session),
	}

	w.window = app.NewWindow(windowTitle)
	w.buildUI()
	w.window.Resize(fyneapp.NewSize(windowWidth, windowHeight))
	w.window.SetOnClosed(w.keys.Detach)
	w.keys.Attach(w.window.Canvas())
	return w
}

func (w *PlayerWindow) buildUI() {
	s := w.session

	w.prevButton = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), s.Previous)
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), s.TogglePlay)
	w.nextButton = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), s.Next)
	w.shuffleButton = widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), s.ToggleShuffleMode)
	w.repeatButton = widget.NewButtonWithIcon("off", theme.MediaReplayIcon(), s.ToggleRepeat)
	w.miniButton = widget.NewButtonWithIcon("", theme.ViewRestoreIcon(), s.ToggleMiniView)

	w.songInfo = widget.NewLabel("Nothing to play")
	w.songInfo.Truncation = fyneapp.TextTruncateEllipsis
	w.songInfo.TextStyle = fyneapp.TextStyle{Bold: true}

	w.message = widget.NewLabel("")
	w.message.Truncation = fyneapp.TextTruncateEllipsis
	w.message.Importance = widget.DangerImportance

	w.volumeSlider = widget.NewSlider(0, 100)
	w.volumeSlider.OnChangeEnded = func(value float64) { s.SetVolume(value / 100) }

	w.progressSlider = widget.NewSlider(0, 100)
	w.progressSlider.Step = 0.1
	w.progressSlider.OnChangeEnded = func(value float64) { s.Seek(value / 100) }
	w.currentTime = widget.NewLabel(formatTime(0))
	w.endTime = widget.NewLabel(formatTime(0))

	w.searchEntry = widget.NewEntry()
	w.searchEntry.SetPlaceHolder("Search queue...")
	w.searchEntry.OnChanged = func(string) { w.applyFilter() }

	w.list = widget.NewList(
		func() int { return len(w.visible) },
		func() fyneapp.CanvasObject {
			return widgets.NewTrackLabel(w.onRowDoubleTapped, w.onRowSecondaryTapped)
		},
		w.updateRow,
	)

	buttons := container.NewHBox(
		w.prevButton, w.playButton, w.nextButton,
		w.shuffleButton, w.repeatButton, w.miniButton,
	)
	volume := container.NewBorder(nil, nil, widget.NewIcon(theme.VolumeUpIcon()), nil, w.volumeSlider)
	header := container.NewBorder(nil, nil, buttons, nil, volume)
	progress := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)
	controls := container.NewVBox(w.songInfo, header, progress)

	w.queuePanel = container.NewBorder(w.searchEntry, w.message, nil, nil, w.list)
	w.window.SetContent(container.NewPadded(container.NewBorder(controls, nil, nil, nil, w.queuePanel)))
}

// Render implements presenter.View.
func (w *PlayerWindow) Render(status presenter.Status) {
	fyneapp.Do(func() { w.apply(status) })
}

// Notify implements presenter.View.
func (w *PlayerWindow) Notify(message string) {
	fyneapp.Do(func() { w.message.SetText(message) })
}

func (w *PlayerWindow) apply(status presenter.Status) {
	if status.Playing {
		w.playButton.SetIcon(theme.MediaPauseIcon())
	} else {
		w.playButton.SetIcon(theme.MediaPlayIcon())
	}

	w.songInfo.SetText(trackInfo(status))
	w.repeatButton.SetText(status.Repeat.String())
	if status.Shuffling {
		w.shuffleButton.Importance = widget.HighImportance
	} else {
		w.shuffleButton.Importance = widget.MediumImportance
	}
	w.shuffleButton.Refresh()

	// Set values directly; SetValue would fire the seek and volume callbacks.
	w.progressSlider.Value = 0
	if status.Duration > 0 {
		w.progressSlider.Value = min(float64(status.Position)/float64(status.Duration), 1) * 100
	}
	w.progressSlider.Refresh()
	w.volumeSlider.Value = status.Volume * 100
	w.volumeSlider.Refresh()
	w.currentTime.SetText(formatTime(status.Position))
	w.endTime.SetText(formatTime(status.Duration))

	w.setMini(status.Mini)
	w.setQueue(status.Queue, status.Index)
}

func (w *PlayerWindow) setMini(mini bool) {
	if mini == w.mini {
		return
	}
	w.mini = mini
	if mini {
		w.queuePanel.Hide()
		w.window.Resize(fyneapp.NewSize(windowWidth, miniHeight))
	} else {
		w.queuePanel.Show()
		w.window.Resize(fyneapp.NewSize(windowWidth, windowHeight))
	}
}

// setQueue refilters the list when the queue or the current track changed
// and reports whether it did. Progress updates leave the list alone.
func (w *PlayerWindow) setQueue(queue []domain.Track, current int) bool {
	if current == w.current && slices.Equal(queue, w.queue) {
		return false
	}
	w.queue = queue
	w.current = current
	w.applyFilter()
	return true
}

// applyFilter recomputes the visible rows from the search text and highlights
// the current track when it is visible.
func (w *PlayerWindow) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(w.searchEntry.Text))

	w.visible = w.visible[:0]
	for i, track := range w.queue {
		if query == "" || matchesSearch(track, query) {
			w.visible = append(w.visible, i)
		}
	}
	w.list.Refresh()

	for row, i := range w.visible {
		if i == w.current {
			w.list.Select(row)
			return
		}
	}
	w.list.UnselectAll()
}

func (w *PlayerWindow) updateRow(row widget.ListItemID, obj fyneapp.CanvasObject) {
	label, ok := obj.(*widgets.TrackLabel)
	if !ok || row < 0 || row >= len(w.visible) {
		return
	}

	i := w.visible[row]
	track := w.queue[i]
	label.SetIndex(row)
	label.TextStyle.Bold = i == w.current
	label.SetText(fmt.Sprintf("%d. %s - %s", i+1, track.Title, track.Artist))
}

// trackAt maps a list row onto its track.
func (w *PlayerWindow) trackAt(row int) (domain.Track, bool) {
	if row < 0 || row >= len(w.visible) {
		return domain.Track{}, false
	}
	return w.queue[w.visible[row]], true
}

func (w *PlayerWindow) onRowDoubleTapped(row int) {
	if track, ok := w.trackAt(row); ok {
		w.session.PlayTrack(track)
	}
}

func (w *PlayerWindow) onRowSecondaryTapped(row int, pos fyneapp.Position) {
	track, ok := w.trackAt(row)
	if !ok {
		return
	}
	widget.ShowPopUpMenuAtPosition(w.rowMenu(track), w.window.Canvas(), pos)
}

func (w *PlayerWindow) rowMenu(track domain.Track) *fyneapp.Menu {
	return fyneapp.NewMenu("",
		fyneapp.NewMenuItem("Play", func() { w.session.PlayTrack(track) }),
		fyneapp.NewMenuItem("Play next", func() { w.session.InsertAfterCurrent(track) }),
		fyneapp.NewMenuItem("Play last", func() { w.session.AppendToEnd(track) }),
	)
}

// ShowAndRun shows the window and runs the Fyne event loop until it closes.
func (w *PlayerWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window. It is safe to call more than once.
func (w *PlayerWindow) Close() {
	w.closeOnce.Do(func() {
		w.keys.Detach()
		w.window.Close()
	})
}

// Window returns the underlying Fyne window.
func (w *PlayerWindow) Window() fyneapp.Window {
	return w.window
}

func trackInfo(status presenter.Status) string {
	switch {
	case status.Count == 0 || status.Title == "":
		return "Nothing to play"
	case status.Artist == "":
		return status.Title
	default:
		return status.Artist + " - " + status.Title
	}
}

func matchesSearch(track domain.Track, query string) bool {
	return strings.Contains(strings.ToLower(track.Title), query) ||
		strings.Contains(strings.ToLower(track.Artist), query)
}

func formatTime(d time.Duration) string {
	seconds := int(max(d, 0) / time.Second)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

var _ presenter.View = (*PlayerWindow)(nil)
