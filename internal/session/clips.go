package session

import (
	"fmt"

	"github.com/mattjoyce/livebridge/internal/protocol"
)

func clipActions() []action {
	return []action{
		{"create_midi_clip", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			if _, _, err := s.scene(p); err != nil {
				return protocol.Result{}, err
			}
			t, slot, idx, err := s.slot(p, "scene_index")
			if err != nil {
				return protocol.Result{}, err
			}
			if t.Kind != MIDITrack {
				return protocol.Fail("Track is not a MIDI track"), nil
			}
			if slot.Clip != nil {
				return protocol.Fail("Clip slot already has a clip"), nil
			}
			length, err := p.Float("length", 4)
			if err != nil {
				return protocol.Result{}, err
			}
			if length <= 0 {
				return protocol.Fail("Clip length must be positive"), nil
			}
			slot.Clip = &Clip{Name: fmt.Sprintf("Clip %d", idx+1), Length: length, Looping: true, MIDI: true}
			trackIdx, _ := p.Int("track_index", 0)
			return protocol.OK("message", "MIDI clip created", "track_index", trackIdx, "scene_index", idx, "length", length), nil
		}},
		{"delete_clip", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			_, slot, _, err := s.slot(p, "scene_index")
			if err != nil {
				return protocol.Result{}, err
			}
			if slot.Clip == nil {
				return protocol.Fail("No clip in slot"), nil
			}
			slot.Clip = nil
			return protocol.OK("message", "Clip deleted"), nil
		}},
		{"duplicate_clip", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			t, slot, idx, err := s.slot(p, "scene_index")
			if err != nil {
				return protocol.Result{}, err
			}
			if slot.Clip == nil {
				return protocol.Fail("No clip in slot"), nil
			}
			for i := idx + 1; i < len(t.Slots); i++ {
				if t.Slots[i].Clip == nil {
					t.Slots[i].Clip = slot.Clip.clone()
					return protocol.OK("message", "Clip duplicated", "new_index", i), nil
				}
			}
			return protocol.Fail("No empty slot below clip"), nil
		}},
		{"launch_clip", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			t, c, err := s.clip(p, "scene_index")
			if err != nil {
				return protocol.Result{}, err
			}
			for _, slot := range t.Slots {
				if slot.Clip != nil {
					slot.Clip.Playing = false
				}
			}
			c.Playing = true
			return protocol.OK("message", "Clip launched"), nil
		}},
		{"stop_clip", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			_, t, err := s.track(p)
			if err != nil {
				return protocol.Result{}, err
			}
			stopTrack(t)
			return protocol.OK("message", "Clip stopped"), nil
		}},
		{"stop_all_clips", true, func(s *Song, _ protocol.Params) (protocol.Result, error) {
			for _, t := range s.Tracks {
				stopTrack(t)
			}
			return protocol.OK("message", "All clips stopped"), nil
		}},
		{"get_clip_info", false, func(s *Song, p protocol.Params) (protocol.Result, error) {
			_, c, err := s.clip(p, "scene_index")
			if err != nil {
				return protocol.Result{}, err
			}
			return protocol.OK(
				"name", c.Name,
				"length", c.Length,
				"loop_start", 0.0,
				"loop_end", c.Length,
				"is_midi_clip", c.MIDI,
				"is_audio_clip", !c.MIDI,
				"is_playing", c.Playing,
				"muted", c.Muted,
			), nil
		}},
		{"set_clip_name", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			_, c, err := s.clip(p, "scene_index")
			if err != nil {
				return protocol.Result{}, err
			}
			name, err := p.String("name", "")
			if err != nil {
				return protocol.Result{}, err
			}
			c.Name = name
			return protocol.OK("message", "Clip renamed", "name", name), nil
		}},
		{"set_clip_looping", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			_, c, err := s.clip(p, "clip_index")
			if err != nil {
				return protocol.Result{}, err
			}
			on, err := flag(p, "looping")
			if err != nil {
				return protocol.Result{}, err
			}
			c.Looping = on
			return protocol.OK("looping", on), nil
		}},
		{"set_clip_muted", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			_, c, err := s.clip(p, "clip_index")
			if err != nil {
				return protocol.Result{}, err
			}
			on, err := flag(p, "muted")
			if err != nil {
				return protocol.Result{}, err
			}
			c.Muted = on
			return protocol.OK("muted", on), nil
		}},
		{"add_notes", true, addNotes},
		{"get_clip_notes", false, func(s *Song, p protocol.Params) (protocol.Result, error) {
			c, err := s.midiClip(p, "clip_index")
			if err != nil {
				return protocol.Result{}, err
			}
			notes := append([]Note{}, c.Notes...)
			trackIdx, _ := p.Int("track_index", 0)
			clipIdx, _ := p.Int("clip_index", 0)
			return protocol.OK("track_index", trackIdx, "clip_index", clipIdx, "notes", notes, "count", len(notes)), nil
		}},
		{"remove_notes", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			c, err := s.midiClip(p, "clip_index")
			if err != nil {
				return protocol.Result{}, err
			}
			pitchFrom, err := p.Int("pitch_from", 0)
			if err != nil {
				return protocol.Result{}, err
			}
			pitchTo, err := p.Int("pitch_to", 127)
			if err != nil {
				return protocol.Result{}, err
			}
			timeFrom, err := p.Float("time_from", 0)
			if err != nil {
				return protocol.Result{}, err
			}
			timeTo, err := p.Float("time_to", 999)
			if err != nil {
				return protocol.Result{}, err
			}
			kept := c.Notes[:0]
			removed := 0
			for _, n := range c.Notes {
				if n.Pitch >= pitchFrom && n.Pitch < pitchTo && n.Start >= timeFrom && n.Start < timeTo {
					removed++
					continue
				}
				kept = append(kept, n)
			}
			c.Notes = kept
			return protocol.OK("message", "Notes removed", "removed", removed), nil
		}},
	}
}

// midiClip resolves a slot that must hold a MIDI clip on a MIDI track.
func (s *Song) midiClip(p protocol.Params, key string) (*Clip, error) {
	_, t, err := s.track(p)
	if err != nil {
		return nil, err
	}
	if t.Kind != MIDITrack {
		return nil, reject("Track is not a MIDI track")
	}
	_, c, err := s.clip(p, key)
	if err != nil {
		return nil, err
	}
	if !c.MIDI {
		return nil, reject("Clip is not a MIDI clip")
	}
	return c, nil
}

// addNotes skips notes with out-of-range pitch or velocity, or a non-positive
// duration, and reports how many were actually added.
func addNotes(s *Song, p protocol.Params) (protocol.Result, error) {
	c, err := s.midiClip(p, "scene_index")
	if err != nil {
		return protocol.Result{}, err
	}
	raw, err := p.Slice("notes")
	if err != nil {
		return protocol.Result{}, err
	}

	added := 0
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return protocol.Result{}, fmt.Errorf("notes[%d] must be an object", i)
		}
		np := protocol.Params(obj)
		pitch, err := np.Int("pitch", 60)
		if err != nil {
			return protocol.Result{}, fmt.Errorf("notes[%d]: %w", i, err)
		}
		start, err := np.Float("start", 0)
		if err != nil {
			return protocol.Result{}, fmt.Errorf("notes[%d]: %w", i, err)
		}
		duration, err := np.Float("duration", 1)
		if err != nil {
			return protocol.Result{}, fmt.Errorf("notes[%d]: %w", i, err)
		}
		velocity, err := np.Int("velocity", 100)
		if err != nil {
			return protocol.Result{}, fmt.Errorf("notes[%d]: %w", i, err)
		}
		if pitch < 0 || pitch > 127 || velocity < 0 || velocity > 127 || duration <= 0 {
			continue
		}
		c.Notes = append(c.Notes, Note{Pitch: pitch, Start: start, Duration: duration, Velocity: velocity})
		added++
	}

	trackIdx, _ := p.Int("track_index", 0)
	sceneIdx, _ := p.Int("scene_index", 0)
	return protocol.OK(
		"message", "Notes added",
		"track_index", trackIdx,
		"scene_index", sceneIdx,
		"note_count", added,
	), nil
}

func stopTrack(t *Track) {
	for _, slot := range t.Slots {
		if slot.Clip != nil {
			slot.Clip.Playing = false
		}
	}
}
