package client

import (
	"context"
	"net"
	"path"
	"sync"
	"testing"

	"github.com/dmitrijs2005/nestdevhive/internal/client/models"
	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type handlerFunc func(method string, auth string, req map[string]any) (any, error)

// fakeServer answers every method of the service through a single handler.
type fakeServer struct {
	mu     sync.Mutex
	calls  []string
	handle handlerFunc
}

func (f *fakeServer) stream(_ any, stream grpc.ServerStream) error {
	full, _ := grpc.MethodFromServerStream(stream)
	method := path.Base(full)

	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	var auth string
	if md, ok := metadata.FromIncomingContext(stream.Context()); ok {
		if v := md.Get(common.AuthorizationHeaderName); len(v) > 0 {
			auth = v[0]
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()

	resp, err := f.handle(method, auth, in.AsMap())
	if err != nil {
		return err
	}
	out, err := shared.ToStruct(resp)
	if err != nil {
		return err
	}
	return stream.SendMsg(out)
}

func newTestClient(t *testing.T, h handlerFunc) (*GRPCClient, *fakeServer) {
	t.Helper()

	f := &fakeServer{handle: h}
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnknownServiceHandler(f.stream))
	go func() { _ = srv.Serve(lis) }()

	c, err := NewGRPCClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		srv.Stop()
	})
	return c, f
}

func TestLogin_UsesEmailOrUsername(t *testing.T) {
	var got map[string]any
	c, _ := newTestClient(t, func(method, _ string, req map[string]any) (any, error) {
		got = req
		return models.TokenPair{AccessToken: "at", RefreshToken: "rt", TokenType: "bearer"}, nil
	})
	ctx := context.Background()

	p, err := c.Login(ctx, "alice@example.com", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "at", p.AccessToken)
	assert.Equal(t, "alice@example.com", got["email"])
	assert.NotContains(t, got, "username")
	assert.Equal(t, "rt", c.Tokens().RefreshToken)

	_, err = c.Login(ctx, "alice", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "alice", got["username"])
}

func TestProtectedCallCarriesBearer(t *testing.T) {
	var auth string
	c, _ := newTestClient(t, func(method, a string, _ map[string]any) (any, error) {
		auth = a
		return models.User{ID: 1, Username: "alice"}, nil
	})
	c.SetTokens(models.TokenPair{AccessToken: "at", RefreshToken: "rt"})

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "Bearer at", auth)
}

func TestExpiredTokenIsRefreshedOnce(t *testing.T) {
	c, f := newTestClient(t, func(method, auth string, req map[string]any) (any, error) {
		switch method {
		case shared.MethodRefresh:
			if req["refresh_token"] != "rt" {
				return nil, status.Error(codes.Unauthenticated, "unauthorized")
			}
			return models.TokenPair{AccessToken: "fresh", RefreshToken: "rt", TokenType: "bearer"}, nil
		case shared.MethodMe:
			if auth != "Bearer fresh" {
				return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
			}
			return models.User{ID: 1, Username: "alice"}, nil
		}
		return nil, status.Error(codes.Unimplemented, method)
	})
	c.SetTokens(models.TokenPair{AccessToken: "stale", RefreshToken: "rt"})

	var refreshed models.TokenPair
	c.OnRefresh(func(p models.TokenPair) { refreshed = p })

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "fresh", c.Tokens().AccessToken)
	assert.Equal(t, "fresh", refreshed.AccessToken)
	assert.Equal(t, []string{shared.MethodMe, shared.MethodRefresh, shared.MethodMe}, f.calls)
}

func TestExpiredTokenWithoutRefreshToken(t *testing.T) {
	c, f := newTestClient(t, func(method, _ string, _ map[string]any) (any, error) {
		return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	})
	c.SetTokens(models.TokenPair{AccessToken: "stale"})

	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, []string{shared.MethodMe}, f.calls)
}

func TestOtherUnauthenticatedIsNotRetried(t *testing.T) {
	c, f := newTestClient(t, func(method, _ string, _ map[string]any) (any, error) {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	})
	c.SetTokens(models.TokenPair{AccessToken: "bad", RefreshToken: "rt"})

	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, []string{shared.MethodMe}, f.calls)
}

func TestListProjectsAndJoin(t *testing.T) {
	c, _ := newTestClient(t, func(method, _ string, req map[string]any) (any, error) {
		switch method {
		case shared.MethodListProjects:
			return []models.Project{{ID: 1, Title: "Hive"}, {ID: 2, Title: "Comb"}}, nil
		case shared.MethodJoinProject:
			return models.Member{ID: 7, ProjectID: int64(req["id"].(float64)), Role: "member"}, nil
		case shared.MethodGetProject:
			return nil, status.Error(codes.NotFound, "not found")
		}
		return nil, status.Error(codes.Unimplemented, method)
	})
	ctx := context.Background()

	list, err := c.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Comb", list[1].Title)

	m, err := c.JoinProject(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.ProjectID)

	_, err = c.GetProject(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		in   error
		want error
	}{
		{status.Error(codes.Unauthenticated, "x"), ErrUnauthorized},
		{status.Error(codes.Unavailable, "x"), ErrUnavailable},
		{status.Error(codes.DeadlineExceeded, "x"), ErrUnavailable},
		{status.Error(codes.NotFound, "x"), ErrNotFound},
		{status.Error(codes.AlreadyExists, "email already registered"), ErrAlreadyExists},
		{status.Error(codes.InvalidArgument, "x"), ErrInvalidInput},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, mapError(tc.in), tc.want)
	}
	assert.Nil(t, mapError(nil))
	assert.ErrorContains(t, mapError(status.Error(codes.AlreadyExists, "email already registered")), "email already registered")
	assert.ErrorContains(t, mapError(status.Error(codes.Internal, "internal error")), "rpc error")
}
