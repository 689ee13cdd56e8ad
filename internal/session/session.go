// Package session is a reference host: an in-memory song that the bridge's
// executor mutates. It is only touched from the dispatch tick, so it holds
// no locks.
package session

import (
	"context"
	"errors"

	"github.com/mattjoyce/livebridge/internal/executor"
	"github.com/mattjoyce/livebridge/internal/protocol"
)

const maxHistory = 50

// reject is a validation failure that goes back to the client as ok:false.
type reject string

func (r reject) Error() string { return string(r) }

type handler func(s *Song, p protocol.Params) (protocol.Result, error)

type action struct {
	name    string
	mutates bool
	fn      handler
}

// Session owns a Song plus its undo and redo history.
type Session struct {
	song *Song
	undo []*Song
	redo []*Song
}

// New returns a Session over the default song.
func New() *Session {
	return &Session{song: NewSong()}
}

// Song exposes the current model, for inspection.
func (s *Session) Song() *Song {
	return s.song
}

// Catalog returns an executor with every session action registered.
func (s *Session) Catalog() *executor.Catalog {
	c := executor.NewCatalog()
	s.Register(c)
	return c
}

// Register adds every session action to c.
func (s *Session) Register(c *executor.Catalog) {
	for _, group := range [][]action{transportActions(), trackActions(), clipActions(), sceneActions()} {
		for _, a := range group {
			c.MustRegister(a.name, s.wrap(a))
		}
	}
	c.MustRegister("undo", func(context.Context, protocol.Params) (protocol.Result, error) {
		if len(s.undo) == 0 {
			return protocol.Fail("Nothing to undo"), nil
		}
		s.redo = append(s.redo, s.song)
		s.song = s.undo[len(s.undo)-1]
		s.undo = s.undo[:len(s.undo)-1]
		return protocol.OK("message", "Undo executed"), nil
	})
	c.MustRegister("redo", func(context.Context, protocol.Params) (protocol.Result, error) {
		if len(s.redo) == 0 {
			return protocol.Fail("Nothing to redo"), nil
		}
		s.undo = append(s.undo, s.song)
		s.song = s.redo[len(s.redo)-1]
		s.redo = s.redo[:len(s.redo)-1]
		return protocol.OK("message", "Redo executed"), nil
	})
}

// wrap turns a handler into an executor.Func. Mutating actions are applied to
// a copy that replaces the song only on success, which also feeds undo.
func (s *Session) wrap(a action) executor.Func {
	return func(_ context.Context, p protocol.Params) (protocol.Result, error) {
		target := s.song
		if a.mutates {
			target = s.song.clone()
		}

		res, err := a.fn(target, p)
		var rj reject
		if errors.As(err, &rj) {
			return protocol.Fail(string(rj)), nil
		}
		if err != nil || !res.OK {
			return res, err
		}

		if a.mutates {
			s.undo = append(s.undo, s.song)
			if len(s.undo) > maxHistory {
				s.undo = s.undo[1:]
			}
			s.redo = nil
			s.song = target
		}
		return res, nil
	}
}
