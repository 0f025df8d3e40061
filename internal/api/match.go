package api

import (
	"context"

	"google.golang.org/grpc"
)

const (
	MatchService_RecordInterest_FullMethodName = "/swapskills.MatchService/RecordInterest"
	MatchService_CancelRequest_FullMethodName  = "/swapskills.MatchService/CancelRequest"
	MatchService_RevokeMatch_FullMethodName    = "/swapskills.MatchService/RevokeMatch"
	MatchService_EvaluateStatus_FullMethodName = "/swapskills.MatchService/EvaluateStatus"
	MatchService_Discover_FullMethodName       = "/swapskills.MatchService/Discover"
	MatchService_CanChat_FullMethodName        = "/swapskills.MatchService/CanChat"
	MatchService_CountMatches_FullMethodName   = "/swapskills.MatchService/CountMatches"
	MatchService_WatchRequests_FullMethodName  = "/swapskills.MatchService/WatchRequests"
)

// MatchServiceServer is the server API for MatchService.
type MatchServiceServer interface {
	RecordInterest(context.Context, *TargetRequest) (*RecordInterestResponse, error)
	CancelRequest(context.Context, *TargetRequest) (*Empty, error)
	RevokeMatch(context.Context, *TargetRequest) (*Empty, error)
	EvaluateStatus(context.Context, *TargetRequest) (*EvaluateStatusResponse, error)
	Discover(context.Context, *DiscoverRequest) (*DiscoverResponse, error)
	CanChat(context.Context, *CanChatRequest) (*CanChatResponse, error)
	CountMatches(context.Context, *Empty) (*CountMatchesResponse, error)
	WatchRequests(*Empty, grpc.ServerStreamingServer[RequestsView]) error
}

var MatchService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "swapskills.MatchService",
	HandlerType: (*MatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RecordInterest", Handler: unary(MatchService_RecordInterest_FullMethodName, MatchServiceServer.RecordInterest)},
		{MethodName: "CancelRequest", Handler: unary(MatchService_CancelRequest_FullMethodName, MatchServiceServer.CancelRequest)},
		{MethodName: "RevokeMatch", Handler: unary(MatchService_RevokeMatch_FullMethodName, MatchServiceServer.RevokeMatch)},
		{MethodName: "EvaluateStatus", Handler: unary(MatchService_EvaluateStatus_FullMethodName, MatchServiceServer.EvaluateStatus)},
		{MethodName: "Discover", Handler: unary(MatchService_Discover_FullMethodName, MatchServiceServer.Discover)},
		{MethodName: "CanChat", Handler: unary(MatchService_CanChat_FullMethodName, MatchServiceServer.CanChat)},
		{MethodName: "CountMatches", Handler: unary(MatchService_CountMatches_FullMethodName, MatchServiceServer.CountMatches)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchRequests",
			Handler:       serverStream(MatchServiceServer.WatchRequests),
			ServerStreams: true,
		},
	},
}

func RegisterMatchServiceServer(s grpc.ServiceRegistrar, srv MatchServiceServer) {
	s.RegisterService(&MatchService_ServiceDesc, srv)
}

// MatchServiceClient is the client API for MatchService.
type MatchServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMatchServiceClient(cc grpc.ClientConnInterface) *MatchServiceClient {
	return &MatchServiceClient{cc: cc}
}

func (c *MatchServiceClient) RecordInterest(ctx context.Context, in *TargetRequest, opts ...grpc.CallOption) (*RecordInterestResponse, error) {
	return invoke[RecordInterestResponse](ctx, c.cc, MatchService_RecordInterest_FullMethodName, in, opts)
}

func (c *MatchServiceClient) CancelRequest(ctx context.Context, in *TargetRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MatchService_CancelRequest_FullMethodName, in, opts)
}

func (c *MatchServiceClient) RevokeMatch(ctx context.Context, in *TargetRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MatchService_RevokeMatch_FullMethodName, in, opts)
}

func (c *MatchServiceClient) EvaluateStatus(ctx context.Context, in *TargetRequest, opts ...grpc.CallOption) (*EvaluateStatusResponse, error) {
	return invoke[EvaluateStatusResponse](ctx, c.cc, MatchService_EvaluateStatus_FullMethodName, in, opts)
}

func (c *MatchServiceClient) Discover(ctx context.Context, in *DiscoverRequest, opts ...grpc.CallOption) (*DiscoverResponse, error) {
	return invoke[DiscoverResponse](ctx, c.cc, MatchService_Discover_FullMethodName, in, opts)
}

func (c *MatchServiceClient) CanChat(ctx context.Context, in *CanChatRequest, opts ...grpc.CallOption) (*CanChatResponse, error) {
	return invoke[CanChatResponse](ctx, c.cc, MatchService_CanChat_FullMethodName, in, opts)
}

func (c *MatchServiceClient) CountMatches(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CountMatchesResponse, error) {
	return invoke[CountMatchesResponse](ctx, c.cc, MatchService_CountMatches_FullMethodName, in, opts)
}

func (c *MatchServiceClient) WatchRequests(ctx context.Context, in *Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[RequestsView], error) {
	return openServerStream[Empty, RequestsView](ctx, c.cc, &MatchService_ServiceDesc.Streams[0], MatchService_WatchRequests_FullMethodName, in, opts)
}
