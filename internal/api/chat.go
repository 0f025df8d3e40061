package api

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ChatService_SendMessage_FullMethodName   = "/swapskills.ChatService/SendMessage"
	ChatService_ListMessages_FullMethodName  = "/swapskills.ChatService/ListMessages"
	ChatService_WatchMessages_FullMethodName = "/swapskills.ChatService/WatchMessages"
)

// ChatServiceServer is the server API for ChatService.
type ChatServiceServer interface {
	SendMessage(context.Context, *SendMessageRequest) (*Message, error)
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	WatchMessages(*WatchMessagesRequest, grpc.ServerStreamingServer[MessageBatch]) error
}

var ChatService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "swapskills.ChatService",
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendMessage", Handler: unary(ChatService_SendMessage_FullMethodName, ChatServiceServer.SendMessage)},
		{MethodName: "ListMessages", Handler: unary(ChatService_ListMessages_FullMethodName, ChatServiceServer.ListMessages)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchMessages",
			Handler:       serverStream(ChatServiceServer.WatchMessages),
			ServerStreams: true,
		},
	},
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatService_ServiceDesc, srv)
}

// ChatServiceClient is the client API for ChatService.
type ChatServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewChatServiceClient(cc grpc.ClientConnInterface) *ChatServiceClient {
	return &ChatServiceClient{cc: cc}
}

func (c *ChatServiceClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*Message, error) {
	return invoke[Message](ctx, c.cc, ChatService_SendMessage_FullMethodName, in, opts)
}

func (c *ChatServiceClient) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c.cc, ChatService_ListMessages_FullMethodName, in, opts)
}

func (c *ChatServiceClient) WatchMessages(ctx context.Context, in *WatchMessagesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[MessageBatch], error) {
	return openServerStream[WatchMessagesRequest, MessageBatch](ctx, c.cc, &ChatService_ServiceDesc.Streams[0], ChatService_WatchMessages_FullMethodName, in, opts)
}
