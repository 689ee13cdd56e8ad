package session

import "fmt"

// TrackKind distinguishes MIDI tracks from audio tracks.
type TrackKind string

const (
	MIDITrack  TrackKind = "midi"
	AudioTrack TrackKind = "audio"
)

// Song is the in-memory object model the actions mutate.
type Song struct {
	Tempo                float64
	SignatureNumerator   int
	SignatureDenominator int

	Playing    bool
	RecordMode bool
	SongTime   float64
	Metronome  bool
	Loop       bool
	LoopStart  float64
	LoopLength float64
	Overdub    bool
	PunchIn    bool
	PunchOut   bool
	SessionRec bool
	TapCount   int

	Tracks       []*Track
	ReturnTracks []*ReturnTrack
	Scenes       []*Scene
	Locators     []Locator
}

// Track is one channel strip with a clip slot per scene.
type Track struct {
	Name   string
	Kind   TrackKind
	Color  int
	Volume float64
	Pan    float64
	Arm    bool
	Solo   bool
	Mute   bool
	// Sends holds one level per return track.
	Sends []float64
	Slots []*ClipSlot
}

// ReturnTrack is an effects return fed by track sends.
type ReturnTrack struct {
	Name string
}

// ClipSlot holds at most one clip.
type ClipSlot struct {
	Clip *Clip
}

// Clip is a MIDI or audio clip.
type Clip struct {
	Name    string
	Length  float64
	Looping bool
	Muted   bool
	Playing bool
	MIDI    bool
	Notes   []Note
}

// Note is one MIDI note.
type Note struct {
	Pitch    int     `json:"pitch"`
	Start    float64 `json:"start_time"`
	Duration float64 `json:"duration"`
	Velocity int     `json:"velocity"`
	Muted    bool    `json:"muted"`
}

// Scene is a row of clip slots launched together.
type Scene struct {
	Name  string
	Color int
}

// Locator is an arrangement cue point.
type Locator struct {
	Name string  `json:"name"`
	Time float64 `json:"time"`
}

// NewSong returns the default set: one MIDI and one audio track, two returns, four scenes.
func NewSong() *Song {
	s := &Song{
		Tempo:                120,
		SignatureNumerator:   4,
		SignatureDenominator: 4,
		LoopLength:           16,
	}
	s.ReturnTracks = []*ReturnTrack{{Name: "A-Reverb"}, {Name: "B-Delay"}}
	for i := 0; i < 4; i++ {
		s.Scenes = append(s.Scenes, &Scene{Name: fmt.Sprint(i + 1)})
	}
	s.addTrack(MIDITrack, "")
	s.addTrack(AudioTrack, "")
	return s
}

func (s *Song) addTrack(kind TrackKind, name string) int {
	idx := len(s.Tracks)
	if name == "" {
		label := "MIDI"
		if kind == AudioTrack {
			label = "Audio"
		}
		name = fmt.Sprintf("%d-%s", idx+1, label)
	}
	t := &Track{
		Name:   name,
		Kind:   kind,
		Volume: 0.85,
		Sends:  make([]float64, len(s.ReturnTracks)),
		Slots:  make([]*ClipSlot, len(s.Scenes)),
	}
	for i := range t.Slots {
		t.Slots[i] = &ClipSlot{}
	}
	s.Tracks = append(s.Tracks, t)
	return idx
}

func (s *Song) clone() *Song {
	c := *s
	c.Tracks = make([]*Track, len(s.Tracks))
	for i, t := range s.Tracks {
		c.Tracks[i] = t.clone()
	}
	c.ReturnTracks = make([]*ReturnTrack, len(s.ReturnTracks))
	for i, r := range s.ReturnTracks {
		rc := *r
		c.ReturnTracks[i] = &rc
	}
	c.Scenes = make([]*Scene, len(s.Scenes))
	for i, sc := range s.Scenes {
		scc := *sc
		c.Scenes[i] = &scc
	}
	c.Locators = append([]Locator(nil), s.Locators...)
	return &c
}

func (t *Track) clone() *Track {
	c := *t
	c.Sends = append([]float64(nil), t.Sends...)
	c.Slots = make([]*ClipSlot, len(t.Slots))
	for i, slot := range t.Slots {
		c.Slots[i] = &ClipSlot{}
		if slot.Clip != nil {
			c.Slots[i].Clip = slot.Clip.clone()
		}
	}
	return &c
}

func (c *Clip) clone() *Clip {
	cc := *c
	cc.Notes = append([]Note(nil), c.Notes...)
	return &cc
}
