package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "wppdesk.v1.ConsoleService"

// Full method names.
const (
	MethodGetSnapshot        = "/" + ServiceName + "/GetSnapshot"
	MethodSelectConversation = "/" + ServiceName + "/SelectConversation"
	MethodSendText           = "/" + ServiceName + "/SendText"
	MethodSendTemplate       = "/" + ServiceName + "/SendTemplate"
	MethodSearchMessages     = "/" + ServiceName + "/SearchMessages"
	MethodListTemplates      = "/" + ServiceName + "/ListTemplates"
	MethodImportTemplates    = "/" + ServiceName + "/ImportTemplates"
	MethodWatchEvents        = "/" + ServiceName + "/WatchEvents"
)

// ConsoleServer is the server API of the console service. Every message is
// a google.protobuf.Struct whose shape is given by the types in this package.
type ConsoleServer interface {
	GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SelectConversation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendTemplate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchMessages(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTemplates(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ImportTemplates(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchEvents(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterConsoleServer registers srv on s.
func RegisterConsoleServer(s grpc.ServiceRegistrar, srv ConsoleServer) {
	s.RegisterService(&ConsoleServiceDesc, srv)
}

type unaryMethod func(ConsoleServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ConsoleServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ConsoleServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ConsoleServer).WatchEvents(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// ConsoleServiceDesc describes the console service for grpc.Server.
var ConsoleServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConsoleServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSnapshot", Handler: unaryHandler(MethodGetSnapshot, ConsoleServer.GetSnapshot)},
		{MethodName: "SelectConversation", Handler: unaryHandler(MethodSelectConversation, ConsoleServer.SelectConversation)},
		{MethodName: "SendText", Handler: unaryHandler(MethodSendText, ConsoleServer.SendText)},
		{MethodName: "SendTemplate", Handler: unaryHandler(MethodSendTemplate, ConsoleServer.SendTemplate)},
		{MethodName: "SearchMessages", Handler: unaryHandler(MethodSearchMessages, ConsoleServer.SearchMessages)},
		{MethodName: "ListTemplates", Handler: unaryHandler(MethodListTemplates, ConsoleServer.ListTemplates)},
		{MethodName: "ImportTemplates", Handler: unaryHandler(MethodImportTemplates, ConsoleServer.ImportTemplates)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchEvents",
			Handler:       watchEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "wppdesk/v1/console.proto",
}
