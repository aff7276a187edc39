package handler

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"pokuclick/animation"
	"pokuclick/interfaces"
)

var (
	_ interfaces.Presenter    = (*StatePresenter)(nil)
	_ interfaces.BusyListener = (*StatePresenter)(nil)
)

// ViewState is what a remote client needs to render the screen.
type ViewState struct {
	LocalTotal     int64   `json:"local_total"`
	FlushedTotal   int64   `json:"flushed_total"`
	LastFlush      int64   `json:"last_flush"`
	RemoteFrom     int64   `json:"remote_from"`
	RemoteTo       int64   `json:"remote_to"`
	RemoteDuration float64 `json:"remote_duration_seconds"`
	SpeedLines     bool    `json:"speed_lines"`
	Busy           bool    `json:"busy"`
	Animation      string  `json:"animation"`
	LastPitch      float64 `json:"last_pitch"`
	LastGain       float64 `json:"last_gain"`
}

// StatePresenter records engine callbacks into a ViewState that HTTP
// clients poll, and keeps the character animation machine in step.
type StatePresenter struct {
	mu      sync.RWMutex
	view    ViewState
	machine *animation.Machine
	logger  *zap.Logger
}

// NewStatePresenter creates a StatePresenter with the character idle.
func NewStatePresenter(logger *zap.Logger) *StatePresenter {
	p := &StatePresenter{logger: logger}
	p.machine = animation.NewMachine(p.onAnimationChange)
	p.view.Animation = animation.Idle.String()
	return p
}

func (p *StatePresenter) onAnimationChange(from, to animation.State, event animation.Event) {
	p.mu.Lock()
	p.view.Animation = to.String()
	p.mu.Unlock()

	if from != to {
		p.logger.Debug("Animation changed",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
			zap.Stringer("event", event))
	}
}

// DisplayLocalTotal implements interfaces.Presenter.
func (p *StatePresenter) DisplayLocalTotal(value int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.view.LocalTotal = value
}

// DisplayFlushed implements interfaces.Presenter.
func (p *StatePresenter) DisplayFlushed(total, amount int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.view.FlushedTotal = total
	p.view.LastFlush = amount
}

// AnimateRemoteTotal implements interfaces.Presenter.
func (p *StatePresenter) AnimateRemoteTotal(from, to int64, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.view.RemoteFrom = from
	p.view.RemoteTo = to
	p.view.RemoteDuration = duration.Seconds()
}

// RateThresholdCrossed implements interfaces.Presenter.
func (p *StatePresenter) RateThresholdCrossed(direction interfaces.Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.view.SpeedLines = direction == interfaces.Rising
}

// PlayCue implements interfaces.Presenter. Every cue is a click, so it
// also restarts the click animation.
func (p *StatePresenter) PlayCue(cue interfaces.Cue) {
	p.mu.Lock()
	p.view.LastPitch = cue.Pitch
	p.view.LastGain = cue.Gain
	p.mu.Unlock()

	p.machine.Fire(animation.Click)
}

// OnBusyBegan implements interfaces.BusyListener.
func (p *StatePresenter) OnBusyBegan() {
	p.mu.Lock()
	p.view.Busy = true
	p.mu.Unlock()

	p.machine.OnBusyBegan()
}

// OnBusyEnded implements interfaces.BusyListener.
func (p *StatePresenter) OnBusyEnded() {
	p.mu.Lock()
	p.view.Busy = false
	p.mu.Unlock()

	p.machine.OnBusyEnded()
}

// CompleteAnimation reports that the client finished playing the current clip.
func (p *StatePresenter) CompleteAnimation() animation.State {
	p.machine.Fire(animation.Complete)
	return p.machine.State()
}

// View returns a copy of the current view state.
func (p *StatePresenter) View() ViewState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.view
}
