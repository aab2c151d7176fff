package grpc

import (
	"context"

	"github.com/dmitrijs2005/nestdevhive/internal/shared"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// AccountsServer is the server side of the nestdevhive.v1.Accounts service.
// Every method takes and returns a JSON object carried as a protobuf Struct.
type AccountsServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangePassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Me(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AvatarUploadURL(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateProject(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProjects(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProject(context.Context, *structpb.Struct) (*structpb.Struct, error)
	JoinProject(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(AccountsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func method(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AccountsServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: shared.FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AccountsServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// AccountsServiceDesc describes nestdevhive.v1.Accounts for grpc.Server.RegisterService.
var AccountsServiceDesc = grpc.ServiceDesc{
	ServiceName: shared.ServiceName,
	HandlerType: (*AccountsServer)(nil),
	Methods: []grpc.MethodDesc{
		method(shared.MethodRegister, AccountsServer.Register),
		method(shared.MethodLogin, AccountsServer.Login),
		method(shared.MethodRefresh, AccountsServer.Refresh),
		method(shared.MethodChangePassword, AccountsServer.ChangePassword),
		method(shared.MethodLogout, AccountsServer.Logout),
		method(shared.MethodMe, AccountsServer.Me),
		method(shared.MethodAvatarUploadURL, AccountsServer.AvatarUploadURL),
		method(shared.MethodCreateProject, AccountsServer.CreateProject),
		method(shared.MethodListProjects, AccountsServer.ListProjects),
		method(shared.MethodGetProject, AccountsServer.GetProject),
		method(shared.MethodJoinProject, AccountsServer.JoinProject),
		method(shared.MethodPing, AccountsServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nestdevhive/v1/accounts.proto",
}
