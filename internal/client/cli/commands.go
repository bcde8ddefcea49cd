package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mdp/qrterminal/v3"

	"github.com/dmitrijs2005/ttychat/internal/chat"
	"github.com/dmitrijs2005/ttychat/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/ttychat/internal/common"
	"github.com/dmitrijs2005/ttychat/internal/peer"
	"github.com/dmitrijs2005/ttychat/internal/signaling"
)

var errNoSession = errors.New("no active session")

const chatHelp = "Commands: /logout, /clear, /urgent, /panic, /img <path>, /files, /pair [token], /connect, /status. Anything else is sent to the peer."

func (a *App) activeSession() (*session, error) {
	s := a.current()
	if s == nil {
		return nil, errNoSession
	}
	return s, nil
}

func (a *App) SendText(ctx context.Context, text string) error {
	s, err := a.activeSession()
	if err != nil {
		return err
	}
	if err := s.chat.Send(ctx, text, s.user, s.id); err != nil {
		if !errors.Is(err, chat.ErrEmptyMessage) {
			a.logger.Error(ctx, "send message", "error", err)
			printlnFn("[System] Message not sent.")
		}
		return err
	}
	return nil
}

func (a *App) Urgent(ctx context.Context) error {
	s, err := a.activeSession()
	if err != nil {
		return err
	}
	if err := s.chat.SendUrgent(ctx, s.user, s.id); err != nil {
		a.logger.Error(ctx, "send urgent", "error", err)
		return err
	}
	printlnFn("[System] Urgent notification sent to peer.")
	return nil
}

func (a *App) ClearHistory(ctx context.Context) error {
	s, err := a.activeSession()
	if err != nil {
		return err
	}
	if err := s.chat.ClearAll(ctx); err != nil {
		a.logger.Error(ctx, "clear chat", "error", err)
		return err
	}
	printlnFn("Chat history permanently deleted.")
	return nil
}

// SendImage sends a file from disk. Files move only over the direct peer
// link.
func (a *App) SendImage(ctx context.Context, path string) error {
	s, err := a.activeSession()
	if err != nil {
		return err
	}
	if path == "" {
		printlnFn("usage: /img <path>")
		return nil
	}
	if s.negotiator.State() != peer.StateConnected {
		printlnFn("[System] P2P Not Connected: direct connection not established. Cannot send files.")
		return peer.ErrChannelNotOpen
	}
	if err := s.chat.SendFile(ctx, path, s.user, s.id, s.sender); err != nil {
		a.logger.Error(ctx, "send file", "error", err)
		printlnFn(fmt.Sprintf("[System] Could not send %s.", path))
		return err
	}
	return nil
}

func (a *App) ListFiles(ctx context.Context) error {
	files, err := a.db.Files.List(ctx)
	if err != nil {
		a.logger.Error(ctx, "list received files", "error", err)
		return err
	}
	if len(files) == 0 {
		printlnFn("No files received.")
		return nil
	}
	for _, f := range files {
		printlnFn(fmt.Sprintf("%s  %8d  %s  %s", f.ReceivedAt.Local().Format("2006-01-02 15:04"), f.Size, f.Filename, f.LocalPath))
	}
	return nil
}

// Pair saves token as the room identity for the next session and shows it
// as a QR code for the other terminal. Without a token the current one is
// shown, or a fresh one is made when the room is keyed by the password.
func (a *App) Pair(ctx context.Context, token string) error {
	s, err := a.activeSession()
	if err != nil {
		return err
	}

	if token == "" && s.pairing != s.secret {
		token = s.pairing
	}
	if token == "" {
		if token, err = common.MakeRandHexString(16); err != nil {
			return err
		}
	}

	if token != s.pairing {
		if err := metadata.SetString(ctx, a.db.Metadata, metadata.KeyPairingToken, token); err != nil {
			a.logger.Error(ctx, "save pairing token", "error", err)
			return err
		}
		printlnFn("Pairing token saved. Reconnect with /logout and sudo connect on both terminals.")
	}

	qrterminal.GenerateWithConfig(token, qrterminal.Config{
		Level:     qrterminal.M,
		Writer:    a.out,
		BlackChar: qrterminal.BLACK,
		WhiteChar: qrterminal.WHITE,
		QuietZone: 1,
	})
	printlnFn("Pairing token: " + token)
	return nil
}

func (a *App) ConnectPeer(ctx context.Context) error {
	s, err := a.activeSession()
	if err != nil {
		return err
	}
	switch s.negotiator.State() {
	case peer.StateConnected:
		printlnFn("[System] P2P: Direct connection established.")
		return nil
	case peer.StateNegotiating:
		printlnFn("[System] P2P: Already connecting.")
		return nil
	}
	printlnFn("P2P: Connecting...")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		a.connectPeer(s.ctx, s)
	}()
	return nil
}

func (a *App) Status(ctx context.Context) error {
	s, err := a.activeSession()
	if err != nil {
		return err
	}
	room := signaling.RoomName(s.pairing)
	printlnFn(strings.Join([]string{
		"server: " + string(a.Mode()),
		"peer:   " + s.negotiator.State().String(),
		"room:   " + room[:len(room)-48],
	}, "\n"))
	return nil
}
