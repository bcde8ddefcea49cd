package grpc

import (
	"context"
	"encoding/json"
	"net"

	"github.com/dmitrijs2005/ttychat/internal/logging"
	pb "github.com/dmitrijs2005/ttychat/internal/proto"
	"github.com/dmitrijs2005/ttychat/internal/server/models"
	"github.com/dmitrijs2005/ttychat/internal/server/services"
	"google.golang.org/grpc"
)

type documentSvc interface {
	Get(ctx context.Context, path string) (*models.Document, error)
	Set(ctx context.Context, path string, data json.RawMessage, serverTimestamps []string) (*models.Document, error)
	Update(ctx context.Context, path string, data json.RawMessage, serverTimestamps []string) (*models.Document, error)
	Create(ctx context.Context, path string, data json.RawMessage, serverTimestamps []string) (*models.Document, error)
	Add(ctx context.Context, collection string, data json.RawMessage, serverTimestamps []string) (*models.Document, error)
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, collection string) ([]*models.Document, error)
	Watch(ctx context.Context, path string) (*services.Watch, error)
}

type notificationSvc interface {
	Register(ctx context.Context, sessionID, url string) (string, error)
	Unregister(ctx context.Context, id string) error
	Notify(ctx context.Context, senderSessionID, author, body string) (int, error)
}

type authSvc interface {
	Authenticate(ctx context.Context, accessKey, sessionID string) (string, string, error)
}

type GRPCServer struct {
	pb.UnimplementedDocumentStoreServer
	address       string
	auth          authSvc
	documents     documentSvc
	notifications notificationSvc
	logger        logging.Logger
	jwtSecret     []byte
}

func NewGRPCServer(a string, l logging.Logger, as authSvc, ds documentSvc, ns notificationSvc, secretKey string) (*GRPCServer, error) {
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		auth:          as,
		documents:     ds,
		notifications: ns,
		jwtSecret:     []byte(secretKey),
	}, nil
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	// creates gRPC-server
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)

	// registers service
	pb.RegisterDocumentStoreServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
