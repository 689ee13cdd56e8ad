package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/livebridge/internal/executor"
	"github.com/mattjoyce/livebridge/internal/protocol"
)

func run(t *testing.T, c *executor.Catalog, action string, params protocol.Params) protocol.Result {
	t.Helper()
	if params == nil {
		params = protocol.Params{}
	}
	res, err := c.Execute(context.Background(), action, params)
	require.NoError(t, err)
	return res
}

func field(res protocol.Result, key string) any {
	v, _ := res.Get(key)
	return v
}

func TestDefaultSong(t *testing.T) {
	s := NewSong()
	assert.Equal(t, 120.0, s.Tempo)
	require.Len(t, s.Tracks, 2)
	assert.Equal(t, MIDITrack, s.Tracks[0].Kind)
	assert.Equal(t, AudioTrack, s.Tracks[1].Kind)
	assert.Len(t, s.Tracks[0].Slots, 4)
	assert.Len(t, s.Tracks[0].Sends, 2)
}

func TestSetTempo(t *testing.T) {
	sess := New()
	c := sess.Catalog()

	res := run(t, c, "set_tempo", protocol.Params{"bpm": 128.0})
	require.True(t, res.OK)
	assert.Equal(t, 128.0, sess.Song().Tempo)

	res = run(t, c, "set_tempo", protocol.Params{"bpm": 5.0})
	assert.False(t, res.OK)
	assert.Equal(t, "BPM must be between 20 and 999", res.Error)
	assert.Equal(t, 128.0, sess.Song().Tempo)
}

func TestParamTypeErrorSurfaces(t *testing.T) {
	c := New().Catalog()
	_, err := c.Execute(context.Background(), "set_track_volume", protocol.Params{"track_index": "zero"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "track_index")
}

func TestTrackLifecycle(t *testing.T) {
	sess := New()
	c := sess.Catalog()

	res := run(t, c, "create_midi_track", protocol.Params{"name": "Bass"})
	require.True(t, res.OK)
	assert.Equal(t, 2, field(res, "track_index"))

	res = run(t, c, "set_track_volume", protocol.Params{"track_index": 2, "volume": 0.5})
	require.True(t, res.OK)
	assert.Equal(t, 0.5, sess.Song().Tracks[2].Volume)

	res = run(t, c, "set_track_volume", protocol.Params{"track_index": 2, "volume": 1.5})
	assert.Equal(t, "Volume must be between 0.0 and 1.0", res.Error)

	res = run(t, c, "set_track_pan", protocol.Params{"track_index": 2, "pan": -2.0})
	assert.Equal(t, "Pan must be between -1.0 and 1.0", res.Error)

	res = run(t, c, "mute_track", protocol.Params{"track_index": 2})
	require.True(t, res.OK)
	assert.Equal(t, "Track muted", field(res, "message"))
	res = run(t, c, "mute_track", protocol.Params{"track_index": 2, "mute": false})
	assert.Equal(t, "Track unmuted", field(res, "message"))

	res = run(t, c, "get_track_info", protocol.Params{"track_index": 2})
	require.True(t, res.OK)
	assert.Equal(t, "Bass", field(res, "name"))
	assert.Equal(t, true, field(res, "has_midi_input"))

	res = run(t, c, "delete_track", protocol.Params{"track_index": 9})
	assert.Equal(t, "Invalid track index", res.Error)

	res = run(t, c, "delete_track", protocol.Params{"track_index": 0})
	require.True(t, res.OK)
	assert.Len(t, sess.Song().Tracks, 2)
	assert.Equal(t, "2-Audio", sess.Song().Tracks[0].Name)
}

func TestReturnTrackAddsSends(t *testing.T) {
	sess := New()
	c := sess.Catalog()

	res := run(t, c, "create_return_track", nil)
	require.True(t, res.OK)
	for _, tr := range sess.Song().Tracks {
		assert.Len(t, tr.Sends, 3)
	}

	res = run(t, c, "set_track_send", protocol.Params{"track_index": 0, "send_index": 2, "value": 0.4})
	require.True(t, res.OK)
	assert.Equal(t, 0.4, sess.Song().Tracks[0].Sends[2])

	res = run(t, c, "set_track_send", protocol.Params{"track_index": 0, "send_index": 7, "value": 0.4})
	assert.Equal(t, "Invalid send index", res.Error)
}

func TestClipsAndNotes(t *testing.T) {
	sess := New()
	c := sess.Catalog()

	res := run(t, c, "create_midi_clip", protocol.Params{"track_index": 1, "scene_index": 0})
	assert.Equal(t, "Track is not a MIDI track", res.Error)

	res = run(t, c, "create_midi_clip", protocol.Params{"track_index": 0, "scene_index": 0, "length": 8.0})
	require.True(t, res.OK)
	res = run(t, c, "create_midi_clip", protocol.Params{"track_index": 0, "scene_index": 0})
	assert.Equal(t, "Clip slot already has a clip", res.Error)

	res = run(t, c, "add_notes", protocol.Params{
		"track_index": 0,
		"scene_index": 0,
		"notes": []any{
			map[string]any{"pitch": 60, "start": 0.0, "duration": 1.0, "velocity": 100},
			map[string]any{"pitch": 64, "start": 1.0},
			map[string]any{"pitch": 200},
		},
	})
	require.True(t, res.OK)
	assert.Equal(t, 2, field(res, "note_count"))

	res = run(t, c, "get_clip_notes", protocol.Params{"track_index": 0, "clip_index": 0})
	require.True(t, res.OK)
	assert.Equal(t, 2, field(res, "count"))

	res = run(t, c, "remove_notes", protocol.Params{"track_index": 0, "clip_index": 0, "pitch_from": 62, "pitch_to": 70})
	require.True(t, res.OK)
	assert.Equal(t, 1, field(res, "removed"))
	require.Len(t, sess.Song().Tracks[0].Slots[0].Clip.Notes, 1)
	assert.Equal(t, 60, sess.Song().Tracks[0].Slots[0].Clip.Notes[0].Pitch)

	res = run(t, c, "launch_clip", protocol.Params{"track_index": 0, "scene_index": 0})
	require.True(t, res.OK)
	assert.True(t, sess.Song().Tracks[0].Slots[0].Clip.Playing)

	run(t, c, "stop_all_clips", nil)
	assert.False(t, sess.Song().Tracks[0].Slots[0].Clip.Playing)

	res = run(t, c, "get_clip_info", protocol.Params{"track_index": 0, "scene_index": 3})
	assert.Equal(t, "No clip in slot", res.Error)
}

func TestScenesKeepSlotsAligned(t *testing.T) {
	sess := New()
	c := sess.Catalog()

	run(t, c, "create_midi_clip", protocol.Params{"track_index": 0, "scene_index": 1})

	res := run(t, c, "create_scene", protocol.Params{"name": "Outro"})
	require.True(t, res.OK)
	assert.Equal(t, 4, field(res, "scene_index"))
	for _, tr := range sess.Song().Tracks {
		assert.Len(t, tr.Slots, 5)
	}

	res = run(t, c, "duplicate_scene", protocol.Params{"scene_index": 1})
	require.True(t, res.OK)
	song := sess.Song()
	require.Len(t, song.Scenes, 6)
	require.NotNil(t, song.Tracks[0].Slots[2].Clip)
	assert.NotSame(t, song.Tracks[0].Slots[1].Clip, song.Tracks[0].Slots[2].Clip)

	res = run(t, c, "delete_scene", protocol.Params{"scene_index": 0})
	require.True(t, res.OK)
	for _, tr := range sess.Song().Tracks {
		assert.Len(t, tr.Slots, 5)
	}
	assert.NotNil(t, sess.Song().Tracks[0].Slots[0].Clip)

	res = run(t, c, "get_scene_info", protocol.Params{"scene_index": 42})
	assert.Equal(t, "Invalid scene index", res.Error)
}

func TestUndoRedo(t *testing.T) {
	sess := New()
	c := sess.Catalog()

	res := run(t, c, "undo", nil)
	assert.Equal(t, "Nothing to undo", res.Error)

	run(t, c, "set_tempo", protocol.Params{"bpm": 90.0})
	run(t, c, "set_tempo", protocol.Params{"bpm": 100.0})

	require.True(t, run(t, c, "undo", nil).OK)
	assert.Equal(t, 90.0, sess.Song().Tempo)
	require.True(t, run(t, c, "redo", nil).OK)
	assert.Equal(t, 100.0, sess.Song().Tempo)

	res = run(t, c, "redo", nil)
	assert.Equal(t, "Nothing to redo", res.Error)
}

func TestFailedMutationLeavesSongUntouched(t *testing.T) {
	sess := New()
	c := sess.Catalog()
	before := sess.Song()

	res := run(t, c, "set_track_volume", protocol.Params{"track_index": 0, "volume": 3.0})
	require.False(t, res.OK)
	assert.Same(t, before, sess.Song())
	assert.Equal(t, "Nothing to undo", run(t, c, "undo", nil).Error)
}

func TestReadOnlyActionsSkipHistory(t *testing.T) {
	sess := New()
	c := sess.Catalog()

	res := run(t, c, "get_session_info", nil)
	require.True(t, res.OK)
	assert.Equal(t, "Nothing to undo", run(t, c, "undo", nil).Error)
}

func TestJumpByAmountStaysFinite(t *testing.T) {
	c := New().Catalog()

	res := run(t, c, "jump_by_amount", protocol.Params{"amount_in_beats": 1e308})
	require.True(t, res.OK)

	res = run(t, c, "jump_by_amount", protocol.Params{"amount_in_beats": 1e308})
	assert.False(t, res.OK)
	assert.Equal(t, "Song time out of range", res.Error)

	res = run(t, c, "get_current_time", nil)
	require.True(t, res.OK)
	assert.Equal(t, 1e308, field(res, "current_song_time"))
	_, err := protocol.Encodable(res)
	assert.NoError(t, err)
}
