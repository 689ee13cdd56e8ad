package session

import "github.com/mattjoyce/livebridge/internal/protocol"

func (s *Song) track(p protocol.Params) (int, *Track, error) {
	idx, err := p.Int("track_index", 0)
	if err != nil {
		return 0, nil, err
	}
	if idx < 0 || idx >= len(s.Tracks) {
		return 0, nil, reject("Invalid track index")
	}
	return idx, s.Tracks[idx], nil
}

func (s *Song) scene(p protocol.Params) (int, *Scene, error) {
	idx, err := p.Int("scene_index", 0)
	if err != nil {
		return 0, nil, err
	}
	if idx < 0 || idx >= len(s.Scenes) {
		return 0, nil, reject("Invalid scene index")
	}
	return idx, s.Scenes[idx], nil
}

// slot resolves track_index plus a slot index read from key
// ("scene_index" or "clip_index"; both address the same slot row).
func (s *Song) slot(p protocol.Params, key string) (*Track, *ClipSlot, int, error) {
	_, t, err := s.track(p)
	if err != nil {
		return nil, nil, 0, err
	}
	idx, err := p.Int(key, 0)
	if err != nil {
		return nil, nil, 0, err
	}
	if idx < 0 || idx >= len(t.Slots) {
		if key == "clip_index" {
			return nil, nil, 0, reject("Invalid clip index")
		}
		return nil, nil, 0, reject("Invalid scene index")
	}
	return t, t.Slots[idx], idx, nil
}

func (s *Song) clip(p protocol.Params, key string) (*Track, *Clip, error) {
	t, slot, _, err := s.slot(p, key)
	if err != nil {
		return nil, nil, err
	}
	if slot.Clip == nil {
		return nil, nil, reject("No clip in slot")
	}
	return t, slot.Clip, nil
}

func flag(p protocol.Params, key string) (bool, error) {
	return p.Bool(key, true)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
