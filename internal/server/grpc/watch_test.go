package grpc

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/common"
	pb "github.com/dmitrijs2005/ttychat/internal/proto"
	"github.com/dmitrijs2005/ttychat/internal/server/auth"
	"github.com/dmitrijs2005/ttychat/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// startBufServer serves s over an in-memory listener with the same
// interceptors as Run and returns a client using the JSON codec.
func startBufServer(t *testing.T, s *GRPCServer) pb.DocumentStoreClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)
	pb.RegisterDocumentStoreServer(srv, s)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(pb.CodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return pb.NewDocumentStoreClient(conn)
}

func authCtx(t *testing.T, secret, sessionID string) context.Context {
	t.Helper()
	token, err := auth.GenerateToken(sessionID, []byte(secret), time.Hour)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, token)
}

func TestWatch_SnapshotSyncedThenLive(t *testing.T) {
	s := newTestServer("secret")
	docs := s.documents.(*fakeDocs)
	docs.put("tty_chat_stream/a", `{"content":"1"}`)

	client := startBufServer(t, s)

	ctx, cancel := context.WithCancel(authCtx(t, "secret", "s1"))
	defer cancel()

	stream, err := client.Watch(ctx, &pb.WatchRequest{Path: "tty_chat_stream"})
	require.NoError(t, err)

	ev, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, pb.EventAdded, ev.Type)
	assert.Equal(t, "a", ev.Document.Id)

	ev, err = stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, pb.EventSynced, ev.Type)

	docs.changes <- models.Change{Type: models.ChangeRemoved, Document: &models.Document{Path: "tty_chat_stream/a", Parent: "tty_chat_stream", ID: "a"}}

	ev, err = stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, pb.EventRemoved, ev.Type)
	assert.Equal(t, "tty_chat_stream/a", ev.Document.Path)
}

func TestWatch_OverflowIsUnavailable(t *testing.T) {
	s := newTestServer("secret")
	docs := s.documents.(*fakeDocs)
	client := startBufServer(t, s)

	stream, err := client.Watch(authCtx(t, "secret", "s1"), &pb.WatchRequest{Path: "webrtc_rooms/r1"})
	require.NoError(t, err)

	ev, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, pb.EventSynced, ev.Type)

	close(docs.changes)

	_, err = stream.Recv()
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestWatch_RequiresToken(t *testing.T) {
	client := startBufServer(t, newTestServer("secret"))

	stream, err := client.Watch(context.Background(), &pb.WatchRequest{Path: "tty_chat_stream"})
	require.NoError(t, err)
	_, err = stream.Recv()
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestUnary_RoundTripOverJSONCodec(t *testing.T) {
	s := newTestServer("secret")
	s.auth = &fakeAuth{token: "tok", sid: "sid"}
	client := startBufServer(t, s)

	resp, err := client.Authenticate(context.Background(), &pb.AuthenticateRequest{AccessKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)

	ctx := authCtx(t, "secret", "s1")
	_, err = client.Set(ctx, &pb.WriteRequest{Path: "webrtc_rooms/r1", Data: json.RawMessage(`{"callerSessionId":"s1"}`)})
	require.NoError(t, err)

	got, err := client.Get(ctx, &pb.GetRequest{Path: "webrtc_rooms/r1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"callerSessionId":"s1"}`, string(got.Document.Data))

	_, err = client.Get(ctx, &pb.GetRequest{Path: "webrtc_rooms/missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.Get(context.Background(), &pb.GetRequest{Path: "webrtc_rooms/r1"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
