package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/common"
	pb "github.com/dmitrijs2005/ttychat/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestPing_OK(t *testing.T) {
	s := newTestServer("k")
	resp, err := s.Ping(context.Background(), &pb.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)
}

func TestAuthenticate(t *testing.T) {
	s := newTestServer("k")
	s.auth = &fakeAuth{token: "T", sid: "S"}

	resp, err := s.Authenticate(context.Background(), &pb.AuthenticateRequest{AccessKey: "x"})
	require.NoError(t, err)
	assert.Equal(t, "T", resp.AccessToken)
	assert.Equal(t, "S", resp.SessionId)

	s.auth = &fakeAuth{err: common.ErrorUnauthorized}
	_, err = s.Authenticate(context.Background(), &pb.AuthenticateRequest{AccessKey: "x"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer("k")
	ctx := context.Background()

	cases := []struct {
		err  error
		want codes.Code
	}{
		{common.ErrorNotFound, codes.NotFound},
		{common.ErrAlreadyExists, codes.AlreadyExists},
		{common.ErrorInvalidPath, codes.InvalidArgument},
		{common.ErrorInvalidInput, codes.InvalidArgument},
		{common.ErrorUnauthorized, codes.Unauthenticated},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("db exploded"), codes.Internal},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, status.Code(s.toStatus(ctx, c.err)), "error %v", c.err)
	}
	assert.Equal(t, "internal error", status.Convert(s.toStatus(ctx, errors.New("secret detail"))).Message())
}

func TestDocumentHandlers(t *testing.T) {
	s := newTestServer("k")
	ctx := context.Background()

	created, err := s.Create(ctx, &pb.WriteRequest{Path: "webrtc_rooms/r1", Data: json.RawMessage(`{"callerSessionId":"s1"}`)})
	require.NoError(t, err)
	assert.Equal(t, "r1", created.Document.Id)

	_, err = s.Create(ctx, &pb.WriteRequest{Path: "webrtc_rooms/r1", Data: json.RawMessage(`{}`)})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	got, err := s.Get(ctx, &pb.GetRequest{Path: "webrtc_rooms/r1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"callerSessionId":"s1"}`, string(got.Document.Data))

	_, err = s.Update(ctx, &pb.WriteRequest{Path: "webrtc_rooms/none", Data: json.RawMessage(`{}`)})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = s.Set(ctx, &pb.WriteRequest{Path: "webrtc_rooms/r2", Data: json.RawMessage(`{}`)})
	require.NoError(t, err)

	list, err := s.List(ctx, &pb.ListRequest{Collection: "webrtc_rooms"})
	require.NoError(t, err)
	assert.Len(t, list.Documents, 2)

	_, err = s.Delete(ctx, &pb.DeleteRequest{Path: "webrtc_rooms/r1"})
	require.NoError(t, err)
	_, err = s.Get(ctx, &pb.GetRequest{Path: "webrtc_rooms/r1"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	added, err := s.Add(ctx, &pb.AddRequest{Collection: "tty_chat_stream", Data: json.RawMessage(`{"content":"x"}`)})
	require.NoError(t, err)
	assert.Equal(t, "tty_chat_stream/generated", added.Document.Path)
}

func TestNotify_UsesSessionFromContext(t *testing.T) {
	s := newTestServer("k")
	n := &fakeNotifications{delivered: 2}
	s.notifications = n

	ctx := context.WithValue(context.Background(), SessionIDKey, "me")
	resp, err := s.Notify(ctx, &pb.NotifyRequest{Author: "root", Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), resp.Delivered)
	assert.Equal(t, "me", n.lastSender)
	assert.Equal(t, "root", n.lastAuthor)
}

func TestRegisterPushEndpoint(t *testing.T) {
	s := newTestServer("k")
	n := &fakeNotifications{}
	s.notifications = n
	ctx := context.WithValue(context.Background(), SessionIDKey, "me")

	_, err := s.RegisterPushEndpoint(ctx, &pb.RegisterPushEndpointRequest{Url: "ftp://nope"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	resp, err := s.RegisterPushEndpoint(ctx, &pb.RegisterPushEndpointRequest{Url: "https://push.example/abc"})
	require.NoError(t, err)
	assert.Equal(t, "push-1", resp.Id)
	assert.Equal(t, "me", n.registered["https://push.example/abc"])

	_, err = s.UnregisterPushEndpoint(ctx, &pb.UnregisterPushEndpointRequest{Id: "push-1"})
	require.NoError(t, err)
}

func TestToPB_Times(t *testing.T) {
	assert.Nil(t, toPB(nil))

	docs := newFakeDocs()
	d := docs.put("c/d", `{}`)
	d.CreatedAt = time.Unix(1, 5)
	d.UpdatedAt = time.Unix(2, 0)
	got := toPB(d)
	assert.Equal(t, int64(1_000_000_005), got.CreateTime)
	assert.Equal(t, int64(2_000_000_000), got.UpdateTime)
}
