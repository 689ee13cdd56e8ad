package session

import (
	"math"

	"github.com/mattjoyce/livebridge/internal/protocol"
)

func transportActions() []action {
	return []action{
		{"start_playback", true, func(s *Song, _ protocol.Params) (protocol.Result, error) {
			s.Playing = true
			return protocol.OK("message", "Playback started"), nil
		}},
		{"stop_playback", true, func(s *Song, _ protocol.Params) (protocol.Result, error) {
			s.Playing = false
			return protocol.OK("message", "Playback stopped"), nil
		}},
		{"continue_playing", true, func(s *Song, _ protocol.Params) (protocol.Result, error) {
			s.Playing = true
			return protocol.OK("message", "Playback continued"), nil
		}},
		{"start_recording", true, func(s *Song, _ protocol.Params) (protocol.Result, error) {
			s.RecordMode = true
			s.Playing = true
			return protocol.OK("message", "Recording started"), nil
		}},
		{"stop_recording", true, func(s *Song, _ protocol.Params) (protocol.Result, error) {
			s.RecordMode = false
			return protocol.OK("message", "Recording stopped"), nil
		}},
		{"get_session_info", false, getSessionInfo},
		{"set_tempo", true, setTempo},
		{"set_time_signature", true, setTimeSignature},
		{"tap_tempo", false, func(s *Song, _ protocol.Params) (protocol.Result, error) {
			s.TapCount++
			return protocol.OK("message", "Tempo tapped"), nil
		}},
		{"set_metronome", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			on, err := flag(p, "enabled")
			if err != nil {
				return protocol.Result{}, err
			}
			s.Metronome = on
			return protocol.OK("metronome", s.Metronome), nil
		}},
		{"set_loop_start", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			pos, err := p.Float("position", 0)
			if err != nil {
				return protocol.Result{}, err
			}
			s.LoopStart = pos
			return protocol.OK("loop_start", s.LoopStart), nil
		}},
		{"set_loop_length", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			length, err := p.Float("length", 4)
			if err != nil {
				return protocol.Result{}, err
			}
			if length <= 0 {
				return protocol.Fail("Loop length must be positive"), nil
			}
			s.LoopLength = length
			return protocol.OK("loop_length", s.LoopLength), nil
		}},
		{"set_loop_enabled", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			on, err := flag(p, "enabled")
			if err != nil {
				return protocol.Result{}, err
			}
			s.Loop = on
			return protocol.OK("loop_enabled", s.Loop), nil
		}},
		{"get_loop_enabled", false, func(s *Song, _ protocol.Params) (protocol.Result, error) {
			return protocol.OK("loop_enabled", s.Loop, "loop_start", s.LoopStart, "loop_length", s.LoopLength), nil
		}},
		{"jump_to_time", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			t, err := p.Float("time_in_beats", 0)
			if err != nil {
				return protocol.Result{}, err
			}
			s.SongTime = max(0, t)
			return protocol.OK("time", s.SongTime), nil
		}},
		{"jump_by_amount", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			amount, err := p.Float("amount_in_beats", 0)
			if err != nil {
				return protocol.Result{}, err
			}
			old := s.SongTime
			next := old + amount
			if math.IsInf(next, 0) {
				return protocol.Result{}, reject("Song time out of range")
			}
			s.SongTime = max(0, next)
			return protocol.OK("old_time", old, "new_time", s.SongTime, "jumped_by", amount), nil
		}},
		{"get_current_time", false, func(s *Song, _ protocol.Params) (protocol.Result, error) {
			return protocol.OK("current_song_time", s.SongTime, "is_playing", s.Playing), nil
		}},
		{"set_arrangement_overdub", true, boolSetter("arrangement_overdub", func(s *Song) *bool { return &s.Overdub })},
		{"set_punch_in", true, boolSetter("punch_in", func(s *Song) *bool { return &s.PunchIn })},
		{"set_punch_out", true, boolSetter("punch_out", func(s *Song) *bool { return &s.PunchOut })},
		{"set_session_record", true, boolSetter("session_record", func(s *Song) *bool { return &s.SessionRec })},
		{"get_session_record", false, func(s *Song, _ protocol.Params) (protocol.Result, error) {
			return protocol.OK("session_record", s.SessionRec), nil
		}},
		{"create_locator", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			t, err := p.Float("time_in_beats", 0)
			if err != nil {
				return protocol.Result{}, err
			}
			name, err := p.String("name", "Locator")
			if err != nil {
				return protocol.Result{}, err
			}
			s.Locators = append(s.Locators, Locator{Name: name, Time: t})
			return protocol.OK("message", "Cue point created", "time", t, "name", name), nil
		}},
		{"delete_locator", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			idx, err := p.Int("locator_index", 0)
			if err != nil {
				return protocol.Result{}, err
			}
			if idx < 0 || idx >= len(s.Locators) {
				return protocol.Fail("Invalid locator index"), nil
			}
			s.Locators = append(s.Locators[:idx], s.Locators[idx+1:]...)
			return protocol.OK("message", "Locator deleted", "locator_index", idx), nil
		}},
		{"get_locators", false, func(s *Song, _ protocol.Params) (protocol.Result, error) {
			out := make([]map[string]any, len(s.Locators))
			for i, l := range s.Locators {
				out[i] = map[string]any{"index": i, "time": l.Time, "name": l.Name}
			}
			return protocol.OK("locators", out, "count", len(out)), nil
		}},
	}
}

func getSessionInfo(s *Song, _ protocol.Params) (protocol.Result, error) {
	return protocol.OK(
		"is_playing", s.Playing,
		"tempo", s.Tempo,
		"time_signature_numerator", s.SignatureNumerator,
		"time_signature_denominator", s.SignatureDenominator,
		"current_song_time", s.SongTime,
		"loop_start", s.LoopStart,
		"loop_end", s.LoopStart+s.LoopLength,
		"loop_length", s.LoopLength,
		"num_tracks", len(s.Tracks),
		"num_scenes", len(s.Scenes),
		"record_mode", s.RecordMode,
		"metronome", s.Metronome,
	), nil
}

func setTempo(s *Song, p protocol.Params) (protocol.Result, error) {
	bpm, err := p.Float("bpm", 120)
	if err != nil {
		return protocol.Result{}, err
	}
	if bpm < 20 || bpm > 999 {
		return protocol.Fail("BPM must be between 20 and 999"), nil
	}
	s.Tempo = bpm
	return protocol.OK("message", "Tempo set", "bpm", s.Tempo), nil
}

func setTimeSignature(s *Song, p protocol.Params) (protocol.Result, error) {
	num, err := p.Int("numerator", 4)
	if err != nil {
		return protocol.Result{}, err
	}
	den, err := p.Int("denominator", 4)
	if err != nil {
		return protocol.Result{}, err
	}
	if num < 1 || num > 99 {
		return protocol.Fail("Numerator must be between 1 and 99"), nil
	}
	switch den {
	case 1, 2, 4, 8, 16:
	default:
		return protocol.Fail("Denominator must be 1, 2, 4, 8, or 16"), nil
	}
	s.SignatureNumerator = num
	s.SignatureDenominator = den
	return protocol.OK("message", "Time signature set", "numerator", num, "denominator", den), nil
}

func boolSetter(field string, target func(*Song) *bool) handler {
	return func(s *Song, p protocol.Params) (protocol.Result, error) {
		on, err := flag(p, "enabled")
		if err != nil {
			return protocol.Result{}, err
		}
		*target(s) = on
		return protocol.OK(field, on), nil
	}
}
