package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/common"
	"github.com/dmitrijs2005/ttychat/internal/docpath"
	"github.com/dmitrijs2005/ttychat/internal/logging"
	pb "github.com/dmitrijs2005/ttychat/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	watchRetryMin = 250 * time.Millisecond
	watchRetryMax = 10 * time.Second
)

type GRPCClient struct {
	endpointURL string
	accessKey   string
	conn        *grpc.ClientConn
	client      pb.DocumentStoreClient
	logger      logging.Logger

	mu          sync.RWMutex
	accessToken string
	sessionID   string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if method == pb.DocumentStore_Authenticate_FullMethodName || method == pb.DocumentStore_Ping_FullMethodName {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	err := invoker(withAccessToken(ctx, s.token()), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	if s.accessKey == "" {
		return err
	}

	if err := s.reauthenticate(ctx); err != nil {
		return err
	}

	// token renewed, retrying with the new one
	return invoker(withAccessToken(ctx, s.token()), method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(withAccessToken(ctx, s.token()), desc, cc, method, opts...)
}

func NewGRPCClient(endpointURL, accessKey string, l logging.Logger) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessKey: accessKey, logger: l.With("module", "store")}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithStreamInterceptor(s.streamAccessTokenInterceptor),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(pb.CodecName)),
	)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewDocumentStoreClient(conn)
	return nil
}

// Authenticate exchanges the access key for a token bound to sessionID.
func (s *GRPCClient) Authenticate(ctx context.Context, sessionID string) error {
	resp, err := s.client.Authenticate(ctx, &pb.AuthenticateRequest{AccessKey: s.accessKey, SessionId: sessionID})
	if err != nil {
		return s.mapError(err)
	}

	s.mu.Lock()
	s.accessToken = resp.AccessToken
	s.sessionID = resp.SessionId
	s.mu.Unlock()
	return nil
}

func (s *GRPCClient) reauthenticate(ctx context.Context) error {
	s.mu.RLock()
	sid := s.sessionID
	s.mu.RUnlock()
	return s.Authenticate(ctx, sid)
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	req := &pb.PingRequest{}

	resp, err := s.client.Ping(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil

}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidPath, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func fromPB(d *pb.Document) *Document {
	if d == nil {
		return nil
	}
	return &Document{
		Path:       d.Path,
		ID:         d.Id,
		Data:       d.Data,
		Seq:        d.Seq,
		CreateTime: time.Unix(0, d.CreateTime),
		UpdateTime: time.Unix(0, d.UpdateTime),
	}
}

func (s *GRPCClient) Get(ctx context.Context, path string) (*Document, error) {
	resp, err := s.client.Get(ctx, &pb.GetRequest{Path: path})
	if err != nil {
		return nil, s.mapError(err)
	}
	return fromPB(resp.Document), nil
}

type writeCall func(context.Context, *pb.WriteRequest, ...grpc.CallOption) (*pb.WriteResponse, error)

func (s *GRPCClient) write(ctx context.Context, call writeCall, path string, data any, serverTimestamps []string) (*Document, error) {
	raw, err := marshalData(data)
	if err != nil {
		return nil, err
	}
	resp, err := call(ctx, &pb.WriteRequest{Path: path, Data: raw, ServerTimestamps: serverTimestamps})
	if err != nil {
		return nil, s.mapError(err)
	}
	return fromPB(resp.Document), nil
}

func (s *GRPCClient) Set(ctx context.Context, path string, data any, serverTimestamps ...string) (*Document, error) {
	return s.write(ctx, s.client.Set, path, data, serverTimestamps)
}

func (s *GRPCClient) Update(ctx context.Context, path string, data any, serverTimestamps ...string) (*Document, error) {
	return s.write(ctx, s.client.Update, path, data, serverTimestamps)
}

func (s *GRPCClient) Create(ctx context.Context, path string, data any, serverTimestamps ...string) (*Document, error) {
	return s.write(ctx, s.client.Create, path, data, serverTimestamps)
}

func (s *GRPCClient) Add(ctx context.Context, collection string, data any, serverTimestamps ...string) (*Document, error) {
	raw, err := marshalData(data)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Add(ctx, &pb.AddRequest{Collection: collection, Data: raw, ServerTimestamps: serverTimestamps})
	if err != nil {
		return nil, s.mapError(err)
	}
	return fromPB(resp.Document), nil
}

func (s *GRPCClient) Delete(ctx context.Context, path string) error {
	if _, err := s.client.Delete(ctx, &pb.DeleteRequest{Path: path}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) List(ctx context.Context, collection string) ([]*Document, error) {
	resp, err := s.client.List(ctx, &pb.ListRequest{Collection: collection})
	if err != nil {
		return nil, s.mapError(err)
	}
	docs := make([]*Document, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		docs = append(docs, fromPB(d))
	}
	return docs, nil
}

func (s *GRPCClient) WatchDocument(ctx context.Context, path string) (<-chan Change, error) {
	if !docpath.IsDocument(path) {
		return nil, ErrInvalidPath
	}
	return s.watch(ctx, path)
}

func (s *GRPCClient) WatchCollection(ctx context.Context, collection string) (<-chan Change, error) {
	if !docpath.IsCollection(collection) {
		return nil, ErrInvalidPath
	}
	return s.watch(ctx, collection)
}

// watch keeps the stream alive in the background. Dropped streams are
// re-opened with backoff and announced with ChangeReset; a stream refused
// for good (bad path, rejected token) closes the channel.
func (s *GRPCClient) watch(ctx context.Context, path string) (<-chan Change, error) {
	stream, err := s.openWatch(ctx, path)
	if err != nil {
		return nil, err
	}

	out := make(chan Change, 64)
	go func() {
		defer close(out)

		delay := watchRetryMin
		for {
			err := s.pump(ctx, stream, out)
			if ctx.Err() != nil {
				return
			}
			if !s.retryableWatchError(ctx, err) {
				s.logger.Warn(ctx, "watch stopped", "path", path, "error", err)
				return
			}

			s.logger.Debug(ctx, "re-opening watch", "path", path, "error", err)
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
				stream, err = s.openWatch(ctx, path)
				if err == nil {
					delay = watchRetryMin
					break
				}
				if !s.retryableWatchError(ctx, err) {
					return
				}
				delay = min(delay*2, watchRetryMax)
			}

			select {
			case out <- Change{Type: ChangeReset}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *GRPCClient) openWatch(ctx context.Context, path string) (pb.DocumentStore_WatchClient, error) {
	stream, err := s.client.Watch(ctx, &pb.WatchRequest{Path: path})
	if err != nil {
		return nil, s.mapError(err)
	}
	return stream, nil
}

func (s *GRPCClient) pump(ctx context.Context, stream pb.DocumentStore_WatchClient, out chan<- Change) error {
	for {
		ev, err := stream.Recv()
		if err != nil {
			return err
		}
		c := Change{Type: ChangeType(ev.Type), Document: fromPB(ev.Document)}
		select {
		case out <- c:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// retryableWatchError renews the token when the stream failed on expiry.
func (s *GRPCClient) retryableWatchError(ctx context.Context, err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	if isTokenExpired(err) {
		return s.reauthenticate(ctx) == nil
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.ResourceExhausted:
		return true
	}
	return false
}

// Notify asks the server to push a new-message notice to the other sessions.
func (s *GRPCClient) Notify(ctx context.Context, author, body string) (int, error) {
	resp, err := s.client.Notify(ctx, &pb.NotifyRequest{Author: author, Body: body})
	if err != nil {
		return 0, s.mapError(err)
	}
	return int(resp.Delivered), nil
}

func (s *GRPCClient) RegisterPushEndpoint(ctx context.Context, url string) (string, error) {
	resp, err := s.client.RegisterPushEndpoint(ctx, &pb.RegisterPushEndpointRequest{Url: url})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.Id, nil
}

func (s *GRPCClient) UnregisterPushEndpoint(ctx context.Context, id string) error {
	if _, err := s.client.UnregisterPushEndpoint(ctx, &pb.UnregisterPushEndpointRequest{Id: id}); err != nil {
		return s.mapError(err)
	}
	return nil
}
