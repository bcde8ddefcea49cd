package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DocumentStore_ServiceName = "ttychat.store.DocumentStore"

const (
	DocumentStore_Authenticate_FullMethodName           = "/ttychat.store.DocumentStore/Authenticate"
	DocumentStore_Ping_FullMethodName                   = "/ttychat.store.DocumentStore/Ping"
	DocumentStore_Get_FullMethodName                    = "/ttychat.store.DocumentStore/Get"
	DocumentStore_Set_FullMethodName                    = "/ttychat.store.DocumentStore/Set"
	DocumentStore_Update_FullMethodName                 = "/ttychat.store.DocumentStore/Update"
	DocumentStore_Create_FullMethodName                 = "/ttychat.store.DocumentStore/Create"
	DocumentStore_Delete_FullMethodName                 = "/ttychat.store.DocumentStore/Delete"
	DocumentStore_Add_FullMethodName                    = "/ttychat.store.DocumentStore/Add"
	DocumentStore_List_FullMethodName                   = "/ttychat.store.DocumentStore/List"
	DocumentStore_Watch_FullMethodName                  = "/ttychat.store.DocumentStore/Watch"
	DocumentStore_Notify_FullMethodName                 = "/ttychat.store.DocumentStore/Notify"
	DocumentStore_RegisterPushEndpoint_FullMethodName   = "/ttychat.store.DocumentStore/RegisterPushEndpoint"
	DocumentStore_UnregisterPushEndpoint_FullMethodName = "/ttychat.store.DocumentStore/UnregisterPushEndpoint"
)

// DocumentStoreClient is the client API for the DocumentStore service.
type DocumentStoreClient interface {
	Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*AuthenticateResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*GetResponse, error)
	Set(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*WriteResponse, error)
	Update(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*WriteResponse, error)
	Create(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*WriteResponse, error)
	Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error)
	Add(ctx context.Context, in *AddRequest, opts ...grpc.CallOption) (*WriteResponse, error)
	List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error)
	Watch(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (DocumentStore_WatchClient, error)
	Notify(ctx context.Context, in *NotifyRequest, opts ...grpc.CallOption) (*NotifyResponse, error)
	RegisterPushEndpoint(ctx context.Context, in *RegisterPushEndpointRequest, opts ...grpc.CallOption) (*RegisterPushEndpointResponse, error)
	UnregisterPushEndpoint(ctx context.Context, in *UnregisterPushEndpointRequest, opts ...grpc.CallOption) (*UnregisterPushEndpointResponse, error)
}

type documentStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewDocumentStoreClient(cc grpc.ClientConnInterface) DocumentStoreClient {
	return &documentStoreClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *documentStoreClient) Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*AuthenticateResponse, error) {
	return invoke[AuthenticateResponse](ctx, c.cc, DocumentStore_Authenticate_FullMethodName, in, opts)
}

func (c *documentStoreClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, DocumentStore_Ping_FullMethodName, in, opts)
}

func (c *documentStoreClient) Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*GetResponse, error) {
	return invoke[GetResponse](ctx, c.cc, DocumentStore_Get_FullMethodName, in, opts)
}

func (c *documentStoreClient) Set(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*WriteResponse, error) {
	return invoke[WriteResponse](ctx, c.cc, DocumentStore_Set_FullMethodName, in, opts)
}

func (c *documentStoreClient) Update(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*WriteResponse, error) {
	return invoke[WriteResponse](ctx, c.cc, DocumentStore_Update_FullMethodName, in, opts)
}

func (c *documentStoreClient) Create(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*WriteResponse, error) {
	return invoke[WriteResponse](ctx, c.cc, DocumentStore_Create_FullMethodName, in, opts)
}

func (c *documentStoreClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c.cc, DocumentStore_Delete_FullMethodName, in, opts)
}

func (c *documentStoreClient) Add(ctx context.Context, in *AddRequest, opts ...grpc.CallOption) (*WriteResponse, error) {
	return invoke[WriteResponse](ctx, c.cc, DocumentStore_Add_FullMethodName, in, opts)
}

func (c *documentStoreClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c.cc, DocumentStore_List_FullMethodName, in, opts)
}

func (c *documentStoreClient) Notify(ctx context.Context, in *NotifyRequest, opts ...grpc.CallOption) (*NotifyResponse, error) {
	return invoke[NotifyResponse](ctx, c.cc, DocumentStore_Notify_FullMethodName, in, opts)
}

func (c *documentStoreClient) RegisterPushEndpoint(ctx context.Context, in *RegisterPushEndpointRequest, opts ...grpc.CallOption) (*RegisterPushEndpointResponse, error) {
	return invoke[RegisterPushEndpointResponse](ctx, c.cc, DocumentStore_RegisterPushEndpoint_FullMethodName, in, opts)
}

func (c *documentStoreClient) UnregisterPushEndpoint(ctx context.Context, in *UnregisterPushEndpointRequest, opts ...grpc.CallOption) (*UnregisterPushEndpointResponse, error) {
	return invoke[UnregisterPushEndpointResponse](ctx, c.cc, DocumentStore_UnregisterPushEndpoint_FullMethodName, in, opts)
}

func (c *documentStoreClient) Watch(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (DocumentStore_WatchClient, error) {
	stream, err := c.cc.NewStream(ctx, &DocumentStore_ServiceDesc.Streams[0], DocumentStore_Watch_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &documentStoreWatchClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type DocumentStore_WatchClient interface {
	Recv() (*WatchEvent, error)
	grpc.ClientStream
}

type documentStoreWatchClient struct {
	grpc.ClientStream
}

func (x *documentStoreWatchClient) Recv() (*WatchEvent, error) {
	m := new(WatchEvent)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// DocumentStoreServer is the server API for the DocumentStore service.
type DocumentStoreServer interface {
	Authenticate(context.Context, *AuthenticateRequest) (*AuthenticateResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Get(context.Context, *GetRequest) (*GetResponse, error)
	Set(context.Context, *WriteRequest) (*WriteResponse, error)
	Update(context.Context, *WriteRequest) (*WriteResponse, error)
	Create(context.Context, *WriteRequest) (*WriteResponse, error)
	Delete(context.Context, *DeleteRequest) (*DeleteResponse, error)
	Add(context.Context, *AddRequest) (*WriteResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Watch(*WatchRequest, DocumentStore_WatchServer) error
	Notify(context.Context, *NotifyRequest) (*NotifyResponse, error)
	RegisterPushEndpoint(context.Context, *RegisterPushEndpointRequest) (*RegisterPushEndpointResponse, error)
	UnregisterPushEndpoint(context.Context, *UnregisterPushEndpointRequest) (*UnregisterPushEndpointResponse, error)
}

// UnimplementedDocumentStoreServer answers every call with codes.Unimplemented.
// Embed it to stay forward compatible.
type UnimplementedDocumentStoreServer struct{}

func (UnimplementedDocumentStoreServer) Authenticate(context.Context, *AuthenticateRequest) (*AuthenticateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Authenticate not implemented")
}
func (UnimplementedDocumentStoreServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedDocumentStoreServer) Get(context.Context, *GetRequest) (*GetResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedDocumentStoreServer) Set(context.Context, *WriteRequest) (*WriteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Set not implemented")
}
func (UnimplementedDocumentStoreServer) Update(context.Context, *WriteRequest) (*WriteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Update not implemented")
}
func (UnimplementedDocumentStoreServer) Create(context.Context, *WriteRequest) (*WriteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Create not implemented")
}
func (UnimplementedDocumentStoreServer) Delete(context.Context, *DeleteRequest) (*DeleteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Delete not implemented")
}
func (UnimplementedDocumentStoreServer) Add(context.Context, *AddRequest) (*WriteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Add not implemented")
}
func (UnimplementedDocumentStoreServer) List(context.Context, *ListRequest) (*ListResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method List not implemented")
}
func (UnimplementedDocumentStoreServer) Watch(*WatchRequest, DocumentStore_WatchServer) error {
	return status.Error(codes.Unimplemented, "method Watch not implemented")
}
func (UnimplementedDocumentStoreServer) Notify(context.Context, *NotifyRequest) (*NotifyResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Notify not implemented")
}
func (UnimplementedDocumentStoreServer) RegisterPushEndpoint(context.Context, *RegisterPushEndpointRequest) (*RegisterPushEndpointResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RegisterPushEndpoint not implemented")
}
func (UnimplementedDocumentStoreServer) UnregisterPushEndpoint(context.Context, *UnregisterPushEndpointRequest) (*UnregisterPushEndpointResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UnregisterPushEndpoint not implemented")
}

func RegisterDocumentStoreServer(s grpc.ServiceRegistrar, srv DocumentStoreServer) {
	s.RegisterService(&DocumentStore_ServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](fullMethod string, call func(DocumentStoreServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DocumentStoreServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DocumentStoreServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func _DocumentStore_Watch_Handler(srv any, stream grpc.ServerStream) error {
	m := new(WatchRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(DocumentStoreServer).Watch(m, &documentStoreWatchServer{stream})
}

type DocumentStore_WatchServer interface {
	Send(*WatchEvent) error
	grpc.ServerStream
}

type documentStoreWatchServer struct {
	grpc.ServerStream
}

func (x *documentStoreWatchServer) Send(m *WatchEvent) error {
	return x.ServerStream.SendMsg(m)
}

var DocumentStore_ServiceDesc = grpc.ServiceDesc{
	ServiceName: DocumentStore_ServiceName,
	HandlerType: (*DocumentStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authenticate", Handler: unaryHandler(DocumentStore_Authenticate_FullMethodName, DocumentStoreServer.Authenticate)},
		{MethodName: "Ping", Handler: unaryHandler(DocumentStore_Ping_FullMethodName, DocumentStoreServer.Ping)},
		{MethodName: "Get", Handler: unaryHandler(DocumentStore_Get_FullMethodName, DocumentStoreServer.Get)},
		{MethodName: "Set", Handler: unaryHandler(DocumentStore_Set_FullMethodName, DocumentStoreServer.Set)},
		{MethodName: "Update", Handler: unaryHandler(DocumentStore_Update_FullMethodName, DocumentStoreServer.Update)},
		{MethodName: "Create", Handler: unaryHandler(DocumentStore_Create_FullMethodName, DocumentStoreServer.Create)},
		{MethodName: "Delete", Handler: unaryHandler(DocumentStore_Delete_FullMethodName, DocumentStoreServer.Delete)},
		{MethodName: "Add", Handler: unaryHandler(DocumentStore_Add_FullMethodName, DocumentStoreServer.Add)},
		{MethodName: "List", Handler: unaryHandler(DocumentStore_List_FullMethodName, DocumentStoreServer.List)},
		{MethodName: "Notify", Handler: unaryHandler(DocumentStore_Notify_FullMethodName, DocumentStoreServer.Notify)},
		{MethodName: "RegisterPushEndpoint", Handler: unaryHandler(DocumentStore_RegisterPushEndpoint_FullMethodName, DocumentStoreServer.RegisterPushEndpoint)},
		{MethodName: "UnregisterPushEndpoint", Handler: unaryHandler(DocumentStore_UnregisterPushEndpoint_FullMethodName, DocumentStoreServer.UnregisterPushEndpoint)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       _DocumentStore_Watch_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "ttychat/store.proto",
}
