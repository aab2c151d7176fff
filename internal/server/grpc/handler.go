package grpc

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/server/dto"
	"github.com/dmitrijs2005/nestdevhive/internal/server/services"
	"github.com/dmitrijs2005/nestdevhive/internal/shared"
	"google.golang.org/protobuf/types/known/structpb"
)

type idRequest struct {
	ID int64 `json:"id"`
}

func decode(req *structpb.Struct, dst any) error {
	if err := shared.FromStruct(req, dst); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	return nil
}

func decodeID(req *structpb.Struct) (int64, error) {
	var in idRequest
	if err := decode(req, &in); err != nil {
		return 0, err
	}
	if in.ID <= 0 {
		return 0, common.ErrorNotFound
	}
	return in.ID, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	var in services.RegisterInput
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	u, err := s.auth.Register(ctx, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Registered", "user_id", u.ID)
	return shared.ToStruct(dto.NewUser(u))
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	var creds services.Credentials
	if err := decode(req, &creds); err != nil {
		return nil, err
	}

	pair, err := s.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	return shared.ToStruct(dto.NewTokenPair(pair))
}

func (s *GRPCServer) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	var in dto.RefreshRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	pair, err := s.auth.Refresh(ctx, in.RefreshToken)
	if err != nil {
		return nil, err
	}

	return shared.ToStruct(dto.NewTokenPair(pair))
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	var in services.PasswordChange
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	u, err := s.auth.ChangePassword(ctx, userFrom(ctx), in)
	if err != nil {
		return nil, err
	}

	return shared.ToStruct(dto.NewUser(u))
}

func (s *GRPCServer) Logout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	if err := s.auth.Logout(ctx, userFrom(ctx)); err != nil {
		return nil, err
	}

	return shared.ToStruct(map[string]string{"detail": "Logged out successfully"})
}

func (s *GRPCServer) Me(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return shared.ToStruct(dto.NewUser(userFrom(ctx)))
}

func (s *GRPCServer) AvatarUploadURL(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	key, url, err := s.avatars.PresignUpload(ctx, userFrom(ctx))
	if err != nil {
		return nil, err
	}

	return shared.ToStruct(dto.AvatarUpload{Key: key, UploadURL: url})
}

func (s *GRPCServer) CreateProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	var in services.ProjectInput
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	p, err := s.projects.Create(ctx, userFrom(ctx), in)
	if err != nil {
		return nil, err
	}

	return shared.ToStruct(dto.NewProject(p))
}

func (s *GRPCServer) ListProjects(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	list, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}

	return shared.ToStruct(dto.Map(list, dto.NewProject))
}

func (s *GRPCServer) GetProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	id, err := decodeID(req)
	if err != nil {
		return nil, err
	}

	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return shared.ToStruct(dto.NewProject(p))
}

func (s *GRPCServer) JoinProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	id, err := decodeID(req)
	if err != nil {
		return nil, err
	}

	m, err := s.projects.Join(ctx, userFrom(ctx), id)
	if err != nil {
		return nil, err
	}

	return shared.ToStruct(dto.NewMember(m))
}

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return shared.ToStruct(map[string]string{"status": "OK"})
}
