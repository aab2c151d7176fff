package grpc

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
	"github.com/dmitrijs2005/nestdevhive/internal/shared"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userKey ctxKey = "user"

func userFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// accessTokenInterceptor resolves the caller of every non-public method from
// the authorization metadata.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if shared.PublicMethods[path.Base(info.FullMethod)] {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			header = values[0]
		}
	}

	user, err := s.sessions.Resolve(ctx, header)
	if err != nil {
		return nil, err
	}

	return handler(context.WithValue(ctx, userKey, user), req)
}

// errorInterceptor translates service errors into gRPC status codes.
func (s *GRPCServer) errorInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err == nil {
		return resp, nil
	}

	st := toStatus(err)
	if st.Code() == codes.Internal {
		s.logger.Error(ctx, "rpc failed", "method", info.FullMethod, "error", err)
	}
	return nil, st.Err()
}

func toStatus(err error) *status.Status {
	if st, ok := status.FromError(err); ok {
		return st
	}

	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.New(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorConflict):
		msg := err.Error()
		if i := strings.Index(msg, common.ErrorConflict.Error()+": "); i >= 0 {
			msg = msg[i+len(common.ErrorConflict.Error())+2:]
		}
		return status.New(codes.AlreadyExists, msg)
	case errors.Is(err, common.ErrTokenExpired):
		return status.New(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.New(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrorNotFound):
		return status.New(codes.NotFound, "not found")
	}
	return status.New(codes.Internal, "internal error")
}
