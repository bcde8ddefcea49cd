// Package signaling implements the rendezvous room two peers use to trade
// session descriptions and ICE candidates through the document store.
//
// A room lives at webrtc_rooms/<name> and owns two candidate collections,
// callerCandidates and calleeCandidates. The peer that creates the room is
// the caller; the other one joins as callee.
package signaling

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/ttychat/internal/client/store"
	"github.com/dmitrijs2005/ttychat/internal/docpath"
	"github.com/dmitrijs2005/ttychat/internal/logging"
)

const (
	RoomsCollection            = "webrtc_rooms"
	CallerCandidatesCollection = "callerCandidates"
	CalleeCandidatesCollection = "calleeCandidates"

	roomPrefix = "webrtc-room-"

	// openAttempts bounds the create/join loop when the room keeps
	// appearing and disappearing under us.
	openAttempts = 3
)

type Role string

const (
	RoleCaller Role = "caller"
	RoleCallee Role = "callee"
)

// Remote is the opposite role.
func (r Role) Remote() Role {
	if r == RoleCaller {
		return RoleCallee
	}
	return RoleCaller
}

// SessionDescription is the JSON shape of an SDP offer or answer.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// Room is the signaling record. CallerSessionID tags the owner so a peer
// can recognise a room left over from its own previous run.
type Room struct {
	CallerSessionID string              `json:"callerSessionId"`
	Offer           *SessionDescription `json:"offer,omitempty"`
	Answer          *SessionDescription `json:"answer,omitempty"`
}

// Candidate is the standard ICE candidate init JSON.
type Candidate struct {
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`
}

// RoomUpdate is delivered by WatchRoom. Room is nil when Deleted is set.
type RoomUpdate struct {
	Room    *Room
	Deleted bool
}

// RoomName derives the room id from the pairing token.
func RoomName(pairingToken string) string {
	sum := sha256.Sum256([]byte(pairingToken))
	return roomPrefix + hex.EncodeToString(sum[:])
}

// Channel is the signaling room for one pairing.
type Channel struct {
	store  store.DocumentStore
	name   string
	logger logging.Logger
}

func NewChannel(s store.DocumentStore, roomName string, l logging.Logger) *Channel {
	return &Channel{store: s, name: roomName, logger: l.With("module", "signaling", "room", roomName)}
}

func (c *Channel) Name() string { return c.name }

func (c *Channel) roomPath() string {
	return docpath.Join(RoomsCollection, c.name)
}

func (c *Channel) candidatesPath(r Role) string {
	coll := CallerCandidatesCollection
	if r == RoleCallee {
		coll = CalleeCandidatesCollection
	}
	return docpath.Join(RoomsCollection, c.name, coll)
}

// Get reads the room once.
func (c *Channel) Get(ctx context.Context) (*Room, error) {
	doc, err := c.store.Get(ctx, c.roomPath())
	if err != nil {
		return nil, err
	}
	room := &Room{}
	if err := doc.Decode(room); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	return room, nil
}

// OpenOrJoin decides the local role. An absent room is created with the
// local session as owner; a room owned by the local session is stale and
// gets wiped and recreated. Any other room is joined as callee. Creation
// is create-if-absent, so of two peers racing on an empty room exactly one
// becomes caller.
func (c *Channel) OpenOrJoin(ctx context.Context, sessionID string) (Role, *Room, error) {
	for attempt := 0; attempt < openAttempts; attempt++ {
		room, err := c.Get(ctx)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return "", nil, err
		case room.CallerSessionID == sessionID:
			c.logger.Info(ctx, "wiping stale room")
			if err := c.Wipe(ctx); err != nil {
				return "", nil, err
			}
		default:
			c.logger.Info(ctx, "joining room", "role", RoleCallee)
			return RoleCallee, room, nil
		}

		room = &Room{CallerSessionID: sessionID}
		_, err = c.store.Create(ctx, c.roomPath(), room)
		if err == nil {
			c.logger.Info(ctx, "room created", "role", RoleCaller)
			return RoleCaller, room, nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return "", nil, err
		}
		c.logger.Debug(ctx, "lost room creation race, re-reading")
	}
	return "", nil, fmt.Errorf("room %s kept changing during open", c.name)
}

// ignoreGone swallows writes against a room the peer already deleted.
func (c *Channel) ignoreGone(ctx context.Context, op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		c.logger.Warn(ctx, "room gone during "+op)
		return nil
	}
	return err
}

func (c *Channel) PublishOffer(ctx context.Context, sd SessionDescription) error {
	_, err := c.store.Update(ctx, c.roomPath(), map[string]any{"offer": sd})
	return c.ignoreGone(ctx, "offer", err)
}

func (c *Channel) PublishAnswer(ctx context.Context, sd SessionDescription) error {
	_, err := c.store.Update(ctx, c.roomPath(), map[string]any{"answer": sd})
	return c.ignoreGone(ctx, "answer", err)
}

// AddCandidate appends a locally gathered candidate to the collection of
// the given role.
func (c *Channel) AddCandidate(ctx context.Context, r Role, cand Candidate) error {
	_, err := c.store.Add(ctx, c.candidatesPath(r), cand)
	return c.ignoreGone(ctx, "candidate", err)
}

// WatchRoom follows the room document until ctx is done.
func (c *Channel) WatchRoom(ctx context.Context) (<-chan RoomUpdate, error) {
	changes, err := c.store.WatchDocument(ctx, c.roomPath())
	if err != nil {
		return nil, err
	}

	out := make(chan RoomUpdate)
	go func() {
		defer close(out)
		for ch := range changes {
			var u RoomUpdate
			switch ch.Type {
			case store.ChangeAdded, store.ChangeModified:
				room := &Room{}
				if err := ch.Document.Decode(room); err != nil {
					c.logger.Warn(ctx, "undecodable room", "error", err)
					continue
				}
				u.Room = room
			case store.ChangeRemoved:
				u.Deleted = true
			default:
				continue
			}
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// WatchCandidates delivers each candidate of role r once, in the order the
// store recorded them.
func (c *Channel) WatchCandidates(ctx context.Context, r Role) (<-chan Candidate, error) {
	changes, err := c.store.WatchCollection(ctx, c.candidatesPath(r))
	if err != nil {
		return nil, err
	}

	out := make(chan Candidate)
	go func() {
		defer close(out)
		seen := make(map[string]struct{})
		for ch := range changes {
			if ch.Type != store.ChangeAdded {
				continue
			}
			if _, dup := seen[ch.Document.ID]; dup {
				continue
			}
			seen[ch.Document.ID] = struct{}{}

			var cand Candidate
			if err := ch.Document.Decode(&cand); err != nil {
				c.logger.Warn(ctx, "undecodable candidate", "error", err)
				continue
			}
			select {
			case out <- cand:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Wipe deletes both candidate collections and then the room. Documents
// already removed by the peer are not an error.
func (c *Channel) Wipe(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, r := range []Role{RoleCaller, RoleCallee} {
		wg.Add(1)
		go func(i int, r Role) {
			defer wg.Done()
			errs[i] = c.wipeCandidates(ctx, r)
		}(i, r)
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if err := c.store.Delete(ctx, c.roomPath()); err != nil {
		return c.ignoreGone(ctx, "wipe", err)
	}
	return nil
}

func (c *Channel) wipeCandidates(ctx context.Context, r Role) error {
	docs, err := c.store.List(ctx, c.candidatesPath(r))
	if err != nil {
		return c.ignoreGone(ctx, "wipe", err)
	}
	for _, d := range docs {
		if err := c.store.Delete(ctx, d.Path); err != nil {
			if err := c.ignoreGone(ctx, "wipe", err); err != nil {
				return err
			}
		}
	}
	return nil
}
