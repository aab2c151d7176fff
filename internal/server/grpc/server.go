// Package grpc serves the account and project operations over gRPC.
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/nestdevhive/internal/logging"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
	"github.com/dmitrijs2005/nestdevhive/internal/server/services"
	"google.golang.org/grpc"
)

type AuthAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, creds services.Credentials) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	ChangePassword(ctx context.Context, user *models.User, in services.PasswordChange) (*models.User, error)
	Logout(ctx context.Context, user *models.User) error
}

type Sessions interface {
	Resolve(ctx context.Context, header string) (*models.User, error)
}

type ProjectsAPI interface {
	Create(ctx context.Context, owner *models.User, in services.ProjectInput) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	Get(ctx context.Context, id int64) (*models.Project, error)
	Join(ctx context.Context, user *models.User, projectID int64) (*models.ProjectMember, error)
}

type AvatarsAPI interface {
	PresignUpload(ctx context.Context, user *models.User) (string, string, error)
}

type GRPCServer struct {
	address  string
	logger   logging.Logger
	auth     AuthAPI
	sessions Sessions
	projects ProjectsAPI
	avatars  AvatarsAPI
}

func NewGRPCServer(a string, l logging.Logger, auth AuthAPI, sessions Sessions, projects ProjectsAPI, avatars AvatarsAPI) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		auth:     auth,
		sessions: sessions,
		projects: projects,
		avatars:  avatars,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.errorInterceptor, s.accessTokenInterceptor))
	srv.RegisterService(&AccountsServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}

	return nil
}
