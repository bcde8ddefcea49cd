package grpc

import (
	"context"
	"errors"
	"net/url"

	"github.com/dmitrijs2005/ttychat/internal/common"
	pb "github.com/dmitrijs2005/ttychat/internal/proto"
	"github.com/dmitrijs2005/ttychat/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toPB(d *models.Document) *pb.Document {
	if d == nil {
		return nil
	}
	return &pb.Document{
		Path:       d.Path,
		Id:         d.ID,
		Data:       d.Data,
		Seq:        d.Seq,
		CreateTime: d.CreatedAt.UnixNano(),
		UpdateTime: d.UpdatedAt.UnixNano(),
	}
}

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorInvalidPath), errors.Is(err, common.ErrorInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	s.logger.Error(ctx, err.Error())
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) Authenticate(ctx context.Context, req *pb.AuthenticateRequest) (*pb.AuthenticateResponse, error) {

	token, sessionID, err := s.auth.Authenticate(ctx, req.AccessKey, req.SessionId)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Authenticated", "session", sessionID)
	return &pb.AuthenticateResponse{AccessToken: token, SessionId: sessionID}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {

	return &pb.PingResponse{Status: "OK"}, nil

}

func (s *GRPCServer) Get(ctx context.Context, req *pb.GetRequest) (*pb.GetResponse, error) {
	doc, err := s.documents.Get(ctx, req.Path)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.GetResponse{Document: toPB(doc)}, nil
}

func (s *GRPCServer) Set(ctx context.Context, req *pb.WriteRequest) (*pb.WriteResponse, error) {
	doc, err := s.documents.Set(ctx, req.Path, req.Data, req.ServerTimestamps)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.WriteResponse{Document: toPB(doc)}, nil
}

func (s *GRPCServer) Update(ctx context.Context, req *pb.WriteRequest) (*pb.WriteResponse, error) {
	doc, err := s.documents.Update(ctx, req.Path, req.Data, req.ServerTimestamps)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.WriteResponse{Document: toPB(doc)}, nil
}

func (s *GRPCServer) Create(ctx context.Context, req *pb.WriteRequest) (*pb.WriteResponse, error) {
	doc, err := s.documents.Create(ctx, req.Path, req.Data, req.ServerTimestamps)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.WriteResponse{Document: toPB(doc)}, nil
}

func (s *GRPCServer) Add(ctx context.Context, req *pb.AddRequest) (*pb.WriteResponse, error) {
	doc, err := s.documents.Add(ctx, req.Collection, req.Data, req.ServerTimestamps)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.WriteResponse{Document: toPB(doc)}, nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *pb.DeleteRequest) (*pb.DeleteResponse, error) {
	if err := s.documents.Delete(ctx, req.Path); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.DeleteResponse{}, nil
}

func (s *GRPCServer) List(ctx context.Context, req *pb.ListRequest) (*pb.ListResponse, error) {
	docs, err := s.documents.List(ctx, req.Collection)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	resp := &pb.ListResponse{Documents: make([]*pb.Document, 0, len(docs))}
	for _, d := range docs {
		resp.Documents = append(resp.Documents, toPB(d))
	}
	return resp, nil
}

func (s *GRPCServer) Notify(ctx context.Context, req *pb.NotifyRequest) (*pb.NotifyResponse, error) {
	n, err := s.notifications.Notify(ctx, sessionIDFromContext(ctx), req.Author, req.Body)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.NotifyResponse{Delivered: int32(n)}, nil
}

func validPushURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *GRPCServer) RegisterPushEndpoint(ctx context.Context, req *pb.RegisterPushEndpointRequest) (*pb.RegisterPushEndpointResponse, error) {
	if !validPushURL(req.Url) {
		return nil, status.Error(codes.InvalidArgument, "push endpoint must be an http(s) url")
	}
	id, err := s.notifications.Register(ctx, sessionIDFromContext(ctx), req.Url)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.RegisterPushEndpointResponse{Id: id}, nil
}

func (s *GRPCServer) UnregisterPushEndpoint(ctx context.Context, req *pb.UnregisterPushEndpointRequest) (*pb.UnregisterPushEndpointResponse, error) {
	if err := s.notifications.Unregister(ctx, req.Id); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.UnregisterPushEndpointResponse{}, nil
}
