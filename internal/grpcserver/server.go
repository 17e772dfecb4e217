// Package grpcserver exposes the user operations over gRPC as
// userapi.UserService.
package grpcserver

import (
	"net"

	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/userapi/internal/grpcserver/interceptor"
)

// NewGRPCServer listens on addr and registers handler. The caller serves
// the returned listener.
func NewGRPCServer(addr string, handler UserServiceServer) (*grpc.Server, net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.UnaryLoggingInterceptor(FullMethods()),
		),
	)
	server.RegisterService(&UserServiceDesc, handler)

	return server, lis, nil
}
