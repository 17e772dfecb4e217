package grpcserver

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/patric-chuzhbe/userapi/internal/logger"
	"github.com/patric-chuzhbe/userapi/internal/models"
	"github.com/patric-chuzhbe/userapi/internal/service"
	"github.com/patric-chuzhbe/userapi/internal/user"
)

type userService interface {
	GetUser(ctx context.Context, rawID string) (*user.User, error)
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*user.User, error)
	UpdateUserName(ctx context.Context, req models.UpdateUserRequest) error
	DeleteUser(ctx context.Context, req models.DeleteUserRequest) error
	Ping(ctx context.Context) error
}

type tokenIssuer interface {
	Issue() (string, error)
}

// UserHandler serves userapi.UserService on top of the same service layer
// as the HTTP API.
type UserHandler struct {
	svc         userService
	tokens      tokenIssuer
	tokenHeader string
}

func NewUserHandler(svc userService, tokens tokenIssuer, tokenHeader string) *UserHandler {
	if tokenHeader == "" {
		tokenHeader = "token"
	}

	return &UserHandler{
		svc:         svc,
		tokens:      tokens,
		tokenHeader: tokenHeader,
	}
}

func (h *UserHandler) GetUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	usr, err := h.svc.GetUser(ctx, rawField(in, "id"))
	if err != nil {
		return nil, toStatus(err)
	}

	return newStruct(map[string]interface{}{
		"user": map[string]interface{}{
			"id":    usr.ID,
			"name":  usr.Name,
			"email": usr.Email,
		},
	})
}

func (h *UserHandler) CreateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	usr, err := h.svc.CreateUser(ctx, models.CreateUserRequest{
		Name:     rawField(in, "name"),
		Email:    rawField(in, "email"),
		Nickname: rawField(in, "nickname"),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return newStruct(map[string]interface{}{
		"users": map[string]interface{}{
			"name":     usr.Name,
			"email":    usr.Email,
			"nickname": usr.Nickname,
		},
	})
}

func (h *UserHandler) UpdateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	request := models.UpdateUserRequest{
		Email: rawField(in, "email"),
		Name:  rawField(in, "name"),
	}
	if err := h.svc.UpdateUserName(ctx, request); err != nil {
		return nil, toStatus(err)
	}

	return newStruct(map[string]interface{}{
		"user": map[string]interface{}{
			"email": request.Email,
			"name":  request.Name,
		},
	})
}

func (h *UserHandler) DeleteUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	request := models.DeleteUserRequest{Email: rawField(in, "email")}
	if err := h.svc.DeleteUser(ctx, request); err != nil {
		return nil, toStatus(err)
	}

	return newStruct(map[string]interface{}{
		"user": map[string]interface{}{
			"email": request.Email,
		},
	})
}

// IssueToken mirrors POST /auth/token: the token goes into the response
// header metadata and the body, next to the caller's user agent.
func (h *UserHandler) IssueToken(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.tokens.Issue()
	if err != nil {
		logger.Log.Errorw("Error calling the `h.tokens.Issue()`", zap.Error(err))
		return nil, status.Error(codes.Internal, "could not issue token")
	}

	var userAgent interface{}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("user-agent"); len(values) > 0 {
			userAgent = values[0]
		}
	}

	if err := grpc.SetHeader(ctx, metadata.Pairs(h.tokenHeader, token)); err != nil {
		logger.Log.Warnw("failed to set token header", zap.Error(err))
	}

	return newStruct(map[string]interface{}{
		"token":       token,
		"user_agent":  userAgent,
		"status_code": 200,
	})
}

func (h *UserHandler) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := h.svc.Ping(ctx); err != nil {
		return nil, status.Error(codes.Unavailable, "storage is unavailable")
	}

	return &structpb.Struct{}, nil
}

// rawField returns a request field as the string the HTTP API would have
// received. Numbers are rendered without a fractional part when they have none.
func rawField(in *structpb.Struct, name string) string {
	value, ok := in.GetFields()[name]
	if !ok {
		return ""
	}

	switch kind := value.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64)
	default:
		return ""
	}
}

func newStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		logger.Log.Errorw("Error calling the `structpb.NewStruct()`", zap.Error(err))
		return nil, status.Error(codes.Internal, "could not encode response")
	}

	return out, nil
}

func toStatus(err error) error {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		logger.Log.Errorw("unhandled error", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}

	switch {
	case errors.Is(svcErr, service.ErrNotFound):
		return status.Error(codes.NotFound, svcErr.Message)
	case errors.Is(svcErr, service.ErrConflict):
		return status.Error(codes.AlreadyExists, svcErr.Message)
	default:
		return status.Error(codes.InvalidArgument, svcErr.Message)
	}
}
