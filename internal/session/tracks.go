package session

import (
	"fmt"

	"github.com/mattjoyce/livebridge/internal/protocol"
)

func trackActions() []action {
	return []action{
		{"create_midi_track", true, createTrack(MIDITrack, "MIDI track created")},
		{"create_audio_track", true, createTrack(AudioTrack, "Audio track created")},
		{"create_return_track", true, func(s *Song, _ protocol.Params) (protocol.Result, error) {
			idx := len(s.ReturnTracks)
			s.ReturnTracks = append(s.ReturnTracks, &ReturnTrack{Name: fmt.Sprintf("%c-Return", 'A'+idx)})
			for _, t := range s.Tracks {
				t.Sends = append(t.Sends, 0)
			}
			return protocol.OK("message", "Return track created", "return_index", idx), nil
		}},
		{"delete_track", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			idx, _, err := s.track(p)
			if err != nil {
				return protocol.Result{}, err
			}
			s.Tracks = append(s.Tracks[:idx], s.Tracks[idx+1:]...)
			return protocol.OK("message", "Track deleted"), nil
		}},
		{"duplicate_track", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			idx, t, err := s.track(p)
			if err != nil {
				return protocol.Result{}, err
			}
			dup := t.clone()
			s.Tracks = append(s.Tracks[:idx+1], append([]*Track{dup}, s.Tracks[idx+1:]...)...)
			return protocol.OK("message", "Track duplicated", "new_index", idx+1), nil
		}},
		{"rename_track", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			_, t, err := s.track(p)
			if err != nil {
				return protocol.Result{}, err
			}
			name, err := p.String("name", "")
			if err != nil {
				return protocol.Result{}, err
			}
			t.Name = name
			return protocol.OK("message", "Track renamed", "name", name), nil
		}},
		{"set_track_volume", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			idx, t, err := s.track(p)
			if err != nil {
				return protocol.Result{}, err
			}
			v, err := p.Float("volume", 0.85)
			if err != nil {
				return protocol.Result{}, err
			}
			if v < 0 || v > 1 {
				return protocol.Fail("Volume must be between 0.0 and 1.0"), nil
			}
			t.Volume = v
			return protocol.OK("message", "Track volume set", "track_index", idx, "volume", v), nil
		}},
		{"set_track_pan", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			idx, t, err := s.track(p)
			if err != nil {
				return protocol.Result{}, err
			}
			v, err := p.Float("pan", 0)
			if err != nil {
				return protocol.Result{}, err
			}
			if v < -1 || v > 1 {
				return protocol.Fail("Pan must be between -1.0 and 1.0"), nil
			}
			t.Pan = v
			return protocol.OK("message", "Track pan set", "track_index", idx, "pan", v), nil
		}},
		{"arm_track", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			_, t, err := s.track(p)
			if err != nil {
				return protocol.Result{}, err
			}
			on, err := flag(p, "armed")
			if err != nil {
				return protocol.Result{}, err
			}
			t.Arm = on
			msg := "Track armed"
			if !on {
				msg = "Track disarmed"
			}
			return protocol.OK("message", msg, "armed", on), nil
		}},
		{"solo_track", true, toggleTrack("solo", "Track soloed", "Track unsoloed", func(t *Track) *bool { return &t.Solo })},
		{"mute_track", true, toggleTrack("mute", "Track muted", "Track unmuted", func(t *Track) *bool { return &t.Mute })},
		{"set_track_color", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			_, t, err := s.track(p)
			if err != nil {
				return protocol.Result{}, err
			}
			color, err := p.Int("color_index", 0)
			if err != nil {
				return protocol.Result{}, err
			}
			t.Color = color
			return protocol.OK("message", "Track color set", "color", color), nil
		}},
		{"get_track_info", false, func(s *Song, p protocol.Params) (protocol.Result, error) {
			idx, t, err := s.track(p)
			if err != nil {
				return protocol.Result{}, err
			}
			clips := 0
			for _, slot := range t.Slots {
				if slot.Clip != nil {
					clips++
				}
			}
			return protocol.OK(
				"track_index", idx,
				"name", t.Name,
				"color", t.Color,
				"mute", t.Mute,
				"solo", t.Solo,
				"arm", t.Arm,
				"has_midi_input", t.Kind == MIDITrack,
				"has_audio_input", t.Kind == AudioTrack,
				"volume", t.Volume,
				"pan", t.Pan,
				"num_clips", clips,
			), nil
		}},
		{"set_track_send", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			_, t, err := s.track(p)
			if err != nil {
				return protocol.Result{}, err
			}
			send, err := p.Int("send_index", 0)
			if err != nil {
				return protocol.Result{}, err
			}
			if send < 0 || send >= len(t.Sends) {
				return protocol.Fail("Invalid send index"), nil
			}
			v, err := p.Float("value", 0)
			if err != nil {
				return protocol.Result{}, err
			}
			t.Sends[send] = clamp(v, 0, 1)
			return protocol.OK("send_index", send, "value", t.Sends[send]), nil
		}},
		{"get_track_sends", false, func(s *Song, p protocol.Params) (protocol.Result, error) {
			idx, t, err := s.track(p)
			if err != nil {
				return protocol.Result{}, err
			}
			sends := make([]map[string]any, len(t.Sends))
			for i, v := range t.Sends {
				sends[i] = map[string]any{"index": i, "value": v, "name": s.ReturnTracks[i].Name}
			}
			return protocol.OK("track_index", idx, "sends", sends, "count", len(sends)), nil
		}},
	}
}

func createTrack(kind TrackKind, msg string) handler {
	return func(s *Song, p protocol.Params) (protocol.Result, error) {
		name, err := p.String("name", "")
		if err != nil {
			return protocol.Result{}, err
		}
		idx := s.addTrack(kind, name)
		return protocol.OK("message", msg, "track_index", idx, "name", s.Tracks[idx].Name), nil
	}
}

func toggleTrack(key, onMsg, offMsg string, field func(*Track) *bool) handler {
	return func(s *Song, p protocol.Params) (protocol.Result, error) {
		_, t, err := s.track(p)
		if err != nil {
			return protocol.Result{}, err
		}
		on, err := flag(p, key)
		if err != nil {
			return protocol.Result{}, err
		}
		*field(t) = on
		if on {
			return protocol.OK("message", onMsg), nil
		}
		return protocol.OK("message", offMsg), nil
	}
}
