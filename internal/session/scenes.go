package session

import (
	"fmt"

	"github.com/mattjoyce/livebridge/internal/protocol"
)

func sceneActions() []action {
	return []action{
		{"create_scene", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			name, err := p.String("name", "")
			if err != nil {
				return protocol.Result{}, err
			}
			idx := len(s.Scenes)
			if name == "" {
				name = fmt.Sprint(idx + 1)
			}
			s.insertScene(idx, &Scene{Name: name})
			return protocol.OK("message", "Scene created", "scene_index", idx, "name", name), nil
		}},
		{"delete_scene", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			idx, _, err := s.scene(p)
			if err != nil {
				return protocol.Result{}, err
			}
			s.Scenes = append(s.Scenes[:idx], s.Scenes[idx+1:]...)
			for _, t := range s.Tracks {
				t.Slots = append(t.Slots[:idx], t.Slots[idx+1:]...)
			}
			return protocol.OK("message", "Scene deleted"), nil
		}},
		{"duplicate_scene", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			idx, sc, err := s.scene(p)
			if err != nil {
				return protocol.Result{}, err
			}
			dup := *sc
			s.insertScene(idx+1, &dup)
			for _, t := range s.Tracks {
				if c := t.Slots[idx].Clip; c != nil {
					t.Slots[idx+1].Clip = c.clone()
				}
			}
			return protocol.OK("message", "Scene duplicated", "new_index", idx+1), nil
		}},
		{"launch_scene", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			idx, _, err := s.scene(p)
			if err != nil {
				return protocol.Result{}, err
			}
			for _, t := range s.Tracks {
				stopTrack(t)
				if c := t.Slots[idx].Clip; c != nil {
					c.Playing = true
				}
			}
			s.Playing = true
			return protocol.OK("message", "Scene launched", "scene_index", idx), nil
		}},
		{"rename_scene", true, func(s *Song, p protocol.Params) (protocol.Result, error) {
			_, sc, err := s.scene(p)
			if err != nil {
				return protocol.Result{}, err
			}
			name, err := p.String("name", "")
			if err != nil {
				return protocol.Result{}, err
			}
			sc.Name = name
			return protocol.OK("message", "Scene renamed", "name", name), nil
		}},
		{"get_scene_info", false, func(s *Song, p protocol.Params) (protocol.Result, error) {
			idx, sc, err := s.scene(p)
			if err != nil {
				return protocol.Result{}, err
			}
			return protocol.OK("scene_index", idx, "name", sc.Name, "color", sc.Color), nil
		}},
	}
}

// insertScene adds a scene at idx and an empty slot at idx on every track.
func (s *Song) insertScene(idx int, sc *Scene) {
	s.Scenes = append(s.Scenes[:idx], append([]*Scene{sc}, s.Scenes[idx:]...)...)
	for _, t := range s.Tracks {
		t.Slots = append(t.Slots[:idx], append([]*ClipSlot{{}}, t.Slots[idx:]...)...)
	}
}
