package client

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/dmitrijs2005/nestdevhive/internal/client/models"
	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/shared"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onRefresh    func(models.TokenPair)
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)

	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the access token to protected calls and,
// when the server reports an expired token, refreshes once and retries.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if shared.PublicMethods[path.Base(method)] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	tokens := s.Tokens()
	err := invoker(withAccessToken(ctx, tokens.AccessToken), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if tokens.RefreshToken == "" {
		return err
	}

	if _, rerr := s.Refresh(ctx); rerr != nil {
		return err
	}

	return invoker(withAccessToken(ctx, s.Tokens().AccessToken), method, req, reply, cc, opts...)
}

// NewGRPCClient connects lazily to endpointURL; extra options are appended to
// the defaults (insecure transport and the token interceptor).
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (s *GRPCClient) SetTokens(p models.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = p.AccessToken
	s.refreshToken = p.RefreshToken
}

func (s *GRPCClient) Tokens() models.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.TokenPair{AccessToken: s.accessToken, RefreshToken: s.refreshToken, TokenType: common.TokenTypeBearer}
}

func (s *GRPCClient) OnRefresh(fn func(models.TokenPair)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefresh = fn
}

func (s *GRPCClient) call(ctx context.Context, method string, in, out any) error {
	if in == nil {
		in = struct{}{}
	}
	req, err := shared.ToStruct(in)
	if err != nil {
		return err
	}

	resp := new(structpb.Struct)
	if err := s.conn.Invoke(ctx, shared.FullMethod(method), req, resp); err != nil {
		return mapError(err)
	}

	if out == nil {
		return nil
	}
	return shared.FromStruct(resp, out)
}

func (s *GRPCClient) Register(ctx context.Context, email, username string, password []byte) (*models.User, error) {
	req := map[string]string{"email": email, "username": username, "password": string(password)}

	var u models.User
	if err := s.call(ctx, shared.MethodRegister, req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login authenticates with an email when login contains '@', otherwise with a
// username. The returned tokens are installed on the client.
func (s *GRPCClient) Login(ctx context.Context, login string, password []byte) (*models.TokenPair, error) {
	req := map[string]string{"password": string(password)}
	if strings.Contains(login, "@") {
		req["email"] = login
	} else {
		req["username"] = login
	}

	var p models.TokenPair
	if err := s.call(ctx, shared.MethodLogin, req, &p); err != nil {
		return nil, err
	}
	s.SetTokens(p)
	return &p, nil
}

// Refresh exchanges the current refresh token for a new access token.
func (s *GRPCClient) Refresh(ctx context.Context) (*models.TokenPair, error) {
	req := map[string]string{"refresh_token": s.Tokens().RefreshToken}

	var p models.TokenPair
	if err := s.call(ctx, shared.MethodRefresh, req, &p); err != nil {
		return nil, err
	}
	s.SetTokens(p)

	s.mu.Lock()
	fn := s.onRefresh
	s.mu.Unlock()
	if fn != nil {
		fn(p)
	}
	return &p, nil
}

func (s *GRPCClient) ChangePassword(ctx context.Context, oldPassword, newPassword []byte) (*models.User, error) {
	req := map[string]string{"old_password": string(oldPassword), "new_password": string(newPassword)}

	var u models.User
	if err := s.call(ctx, shared.MethodChangePassword, req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GRPCClient) Logout(ctx context.Context) error {
	if err := s.call(ctx, shared.MethodLogout, nil, nil); err != nil {
		return err
	}
	s.SetTokens(models.TokenPair{})
	return nil
}

func (s *GRPCClient) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := s.call(ctx, shared.MethodMe, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GRPCClient) AvatarUploadURL(ctx context.Context) (*models.AvatarUpload, error) {
	var a models.AvatarUpload
	if err := s.call(ctx, shared.MethodAvatarUploadURL, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *GRPCClient) CreateProject(ctx context.Context, in models.ProjectInput) (*models.Project, error) {
	var p models.Project
	if err := s.call(ctx, shared.MethodCreateProject, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GRPCClient) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out struct {
		Items []models.Project `json:"items"`
	}
	if err := s.call(ctx, shared.MethodListProjects, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (s *GRPCClient) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var p models.Project
	if err := s.call(ctx, shared.MethodGetProject, map[string]int64{"id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GRPCClient) JoinProject(ctx context.Context, id int64) (*models.Member, error) {
	var m models.Member
	if err := s.call(ctx, shared.MethodJoinProject, map[string]int64{"id": id}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	return s.call(ctx, shared.MethodPing, nil, nil)
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
