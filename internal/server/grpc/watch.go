package grpc

import (
	pb "github.com/dmitrijs2005/ttychat/internal/proto"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Watch streams the current state of a document or collection as added
// events, a synced marker, and then live changes until the client leaves.
// A watcher that falls behind gets codes.Unavailable and must re-watch.
func (s *GRPCServer) Watch(req *pb.WatchRequest, stream pb.DocumentStore_WatchServer) error {
	ctx := stream.Context()

	w, err := s.documents.Watch(ctx, req.Path)
	if err != nil {
		return s.toStatus(ctx, err)
	}
	defer w.Close()

	for _, d := range w.Snapshot {
		if err := stream.Send(&pb.WatchEvent{Type: pb.EventAdded, Document: toPB(d)}); err != nil {
			return err
		}
	}
	if err := stream.Send(&pb.WatchEvent{Type: pb.EventSynced}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-w.Changes:
			if !ok {
				s.logger.Warn(ctx, "watcher fell behind", "path", req.Path)
				return status.Error(codes.Unavailable, "watch overflow")
			}
			if err := stream.Send(&pb.WatchEvent{Type: string(c.Type), Document: toPB(c.Document)}); err != nil {
				return err
			}
		}
	}
}
