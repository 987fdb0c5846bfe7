package session

import (
	"sync"
	"testing"
)

func TestMachine_TransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		trigger Trigger
		want    State
		changed bool
	}{
		{"idle + start → recording", Idle, TriggerStart, Recording, true},
		{"idle + key toggle is a no-op", Idle, TriggerKeyToggle, Idle, false},
		{"idle + pause is a no-op", Idle, TriggerPause, Idle, false},
		{"idle + resume is a no-op", Idle, TriggerResume, Idle, false},
		{"idle + stop is a no-op", Idle, TriggerStop, Idle, false},

		{"recording + key toggle → paused", Recording, TriggerKeyToggle, Paused, true},
		{"recording + voice pause → paused", Recording, TriggerPause, Paused, true},
		{"recording + voice resume is a no-op", Recording, TriggerResume, Recording, false},
		{"recording + stop → stopped", Recording, TriggerStop, Stopped, true},
		{"recording + start is a no-op", Recording, TriggerStart, Recording, false},

		{"paused + key toggle → recording", Paused, TriggerKeyToggle, Recording, true},
		{"paused + voice resume → recording", Paused, TriggerResume, Recording, true},
		{"paused + voice pause is a no-op", Paused, TriggerPause, Paused, false},
		{"paused + stop → stopped", Paused, TriggerStop, Stopped, true},

		{"stopped is terminal for start", Stopped, TriggerStart, Stopped, false},
		{"stopped is terminal for key toggle", Stopped, TriggerKeyToggle, Stopped, false},
		{"stopped is terminal for pause", Stopped, TriggerPause, Stopped, false},
		{"stopped is terminal for resume", Stopped, TriggerResume, Stopped, false},
		{"stopped is terminal for stop", Stopped, TriggerStop, Stopped, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Machine{state: tt.from}
			got, changed := m.Apply(tt.trigger)
			if got != tt.want {
				t.Errorf("Apply(%v) state = %v, want %v", tt.trigger, got, tt.want)
			}
			if changed != tt.changed {
				t.Errorf("Apply(%v) changed = %v, want %v", tt.trigger, changed, tt.changed)
			}
		})
	}
}

func TestMachine_DoublePauseNeverFaults(t *testing.T) {
	m := NewMachine()
	m.Apply(TriggerStart)
	m.Apply(TriggerPause)

	// Repeated pause triggers from both paths must stay a no-op.
	for i := 0; i < 3; i++ {
		if got, changed := m.Apply(TriggerPause); got != Paused || changed {
			t.Fatalf("repeat pause %d: state = %v changed = %v, want paused/false", i, got, changed)
		}
	}

	if got, _ := m.Apply(TriggerKeyToggle); got != Recording {
		t.Fatalf("key toggle after pause = %v, want recording", got)
	}
}

func TestMachine_SubscribeObservesLatestState(t *testing.T) {
	m := NewMachine()
	ch := m.Subscribe()

	m.Apply(TriggerStart)
	if got := <-ch; got != Recording {
		t.Fatalf("first notification = %v, want recording", got)
	}

	m.Apply(TriggerPause)
	m.Apply(TriggerResume)
	m.Apply(TriggerStop)

	var last State
	for {
		select {
		case s := <-ch:
			last = s
			continue
		default:
		}
		break
	}
	if last != Stopped {
		t.Fatalf("latest observed state = %v, want stopped", last)
	}
}

func TestMachine_ConcurrentTriggers(t *testing.T) {
	m := NewMachine()
	m.Apply(TriggerStart)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				switch (n + j) % 3 {
				case 0:
					m.Apply(TriggerKeyToggle)
				case 1:
					m.Apply(TriggerPause)
				case 2:
					m.Apply(TriggerResume)
				}
			}
		}(i)
	}
	wg.Wait()

	// Whatever interleaving happened, the machine must be in a live state.
	if s := m.State(); s != Recording && s != Paused {
		t.Fatalf("state after concurrent toggling = %v, want recording or paused", s)
	}

	m.Apply(TriggerStop)
	if s := m.State(); s != Stopped {
		t.Fatalf("state = %v, want stopped", s)
	}
}
