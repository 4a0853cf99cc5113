package cmd

import (
	"fmt"
	"math/rand/v2"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// frameArea is the redrawn region a spinner lives in.
type frameArea interface {
	Update(text ...any)
	Stop() error
}

var newArea = func() (frameArea, error) {
	return pterm.DefaultArea.WithRemoveWhenDone(true).Start()
}

// spinner is an inline spinner followed by text. The cursor is hidden while
// it runs and the line is removed when it stops.
type spinner struct {
	text string

	mu      sync.Mutex
	area    frameArea
	frame   int
	stopped bool

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func startSpinner(text string) *spinner {
	s := &spinner{text: text, stop: make(chan struct{})}
	cursor.Hide()
	area, err := newArea()
	if err != nil {
		cursor.Show()
		s.stopped = true
		return s
	}
	s.area = area
	s.redrawLocked()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(120 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.mu.Lock()
				s.frame++
				s.redrawLocked()
				s.mu.Unlock()
			case <-s.stop:
				return
			}
		}
	}()
	return s
}

func (s *spinner) redrawLocked() {
	if s.area != nil {
		s.area.Update(fmt.Sprintf("%s %s", spinnerFrames[s.frame%len(spinnerFrames)], s.text))
	}
}

// Print runs fn with the spinner line taken off screen, so whatever fn
// prints stays above the spinner instead of mixing with its frames.
func (s *spinner) Print(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.area == nil {
		fn()
		return
	}
	_ = s.area.Stop()
	s.area = nil
	fn()
	if area, err := newArea(); err == nil {
		s.area = area
		s.redrawLocked()
	}
}

// Stop removes the spinner. It is safe to call more than once.
func (s *spinner) Stop() {
	s.once.Do(func() {
		close(s.stop)
		s.wg.Wait()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.stopped {
			return
		}
		s.stopped = true
		if s.area != nil {
			_ = s.area.Stop()
			s.area = nil
		}
		cursor.Show()
	})
}

// openBrowser attempts to open url in the user's default browser. It starts
// the browser process but does not wait for it.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// greeting returns a friendly phrase with the user's identifier.
func greeting(identifier string) string {
	greetings := []string{
		"🎉 Welcome back, %s!",
		"✨ Great to see you, %s!",
		"🚀 You're all set, %s!",
		"👋 Hello %s!",
		"🌟 Welcome aboard, %s!",
		"🔓 Access granted! Welcome %s!",
	}
	return fmt.Sprintf(greetings[rand.IntN(len(greetings))], identifier)
}

// terminalNotifier prints view notifications as pterm status lines, around
// the attached spinner if there is one.
type terminalNotifier struct {
	mu sync.Mutex
	sp *spinner
}

func (n *terminalNotifier) attach(sp *spinner) {
	n.mu.Lock()
	n.sp = sp
	n.mu.Unlock()
}

func (n *terminalNotifier) print(fn func()) {
	n.mu.Lock()
	sp := n.sp
	n.mu.Unlock()
	if sp == nil {
		fn()
		return
	}
	sp.Print(fn)
}

func (n *terminalNotifier) Success(msg string) { n.print(func() { pterm.Success.Println(msg) }) }
func (n *terminalNotifier) Error(msg string)   { n.print(func() { pterm.Error.Println(msg) }) }
