package game

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Scheduler arms one deferred finalize per click window. Timers are never
// cancelled: when every eligible player clicks early, that path finalizes
// first and the expired timer finds the room back in Waiting, where the
// phase re-check makes it a no-op. The clock is injected so tests drive
// time with a fake.
type Scheduler struct {
	clock    clockwork.Clock
	window   time.Duration
	finalize func(roomID string)
}

func NewScheduler(clock clockwork.Clock, window time.Duration, finalize func(roomID string)) *Scheduler {
	return &Scheduler{
		clock:    clock,
		window:   window,
		finalize: finalize,
	}
}

// Window is the configured click-window duration.
func (s *Scheduler) Window() time.Duration {
	return s.window
}

// ScheduleFinalize arms a one-shot timer that finalizes the room's round
// when the click window elapses.
func (s *Scheduler) ScheduleFinalize(roomID string) {
	timer := s.clock.NewTimer(s.window)
	go func() {
		<-timer.Chan()
		log.Debug().
			Str("room_id", roomID).
			Dur("window", s.window).
			Msg("click window elapsed, finalizing round")
		s.finalize(roomID)
	}()
}
