package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "userapi.UserService"

// Method names of the user service.
const (
	MethodGetUser    = "GetUser"
	MethodCreateUser = "CreateUser"
	MethodUpdateUser = "UpdateUser"
	MethodDeleteUser = "DeleteUser"
	MethodIssueToken = "IssueToken"
	MethodPing       = "Ping"
)

// UserServiceServer is the server side of userapi.UserService. Every method
// exchanges google.protobuf.Struct messages shaped like the HTTP API bodies.
type UserServiceServer interface {
	GetUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CreateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	UpdateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	IssueToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Ping(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(srv UserServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) func(
	srv interface{},
	ctx context.Context,
	dec func(interface{}) error,
	interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	return func(
		srv interface{},
		ctx context.Context,
		dec func(interface{}) error,
		interceptor grpc.UnaryServerInterceptor,
	) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(UserServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(name),
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(UserServiceServer), ctx, req.(*structpb.Struct))
		}

		return interceptor(ctx, in, info, handler)
	}
}

// UserServiceDesc describes userapi.UserService for grpc.Server.RegisterService.
var UserServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodGetUser, Handler: unaryHandler(MethodGetUser, UserServiceServer.GetUser)},
		{MethodName: MethodCreateUser, Handler: unaryHandler(MethodCreateUser, UserServiceServer.CreateUser)},
		{MethodName: MethodUpdateUser, Handler: unaryHandler(MethodUpdateUser, UserServiceServer.UpdateUser)},
		{MethodName: MethodDeleteUser, Handler: unaryHandler(MethodDeleteUser, UserServiceServer.DeleteUser)},
		{MethodName: MethodIssueToken, Handler: unaryHandler(MethodIssueToken, UserServiceServer.IssueToken)},
		{MethodName: MethodPing, Handler: unaryHandler(MethodPing, UserServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "userapi/user_service",
}

// FullMethod returns the "/service/method" form used by interceptors and Invoke.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// FullMethods lists every method of the service in FullMethod form.
func FullMethods() []string {
	methods := make([]string, 0, len(UserServiceDesc.Methods))
	for _, method := range UserServiceDesc.Methods {
		methods = append(methods, FullMethod(method.MethodName))
	}

	return methods
}

// Client calls userapi.UserService over an established connection.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, name string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, FullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Client) GetUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetUser, in, opts...)
}

func (c *Client) CreateUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCreateUser, in, opts...)
}

func (c *Client) UpdateUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodUpdateUser, in, opts...)
}

func (c *Client) DeleteUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodDeleteUser, in, opts...)
}

func (c *Client) IssueToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodIssueToken, in, opts...)
}

func (c *Client) Ping(ctx context.Context, opts ...grpc.CallOption) error {
	_, err := c.invoke(ctx, MethodPing, nil, opts...)
	return err
}
