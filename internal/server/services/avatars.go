package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	sc "github.com/dmitrijs2005/nestdevhive/internal/server/config"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// avatarURLValidity bounds both presigned upload and download URLs.
const avatarURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// AvatarService hands out presigned S3 URLs so clients move avatar bytes
// directly to and from object storage.
type AvatarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	now         func() time.Time
}

func NewAvatarService(db *sql.DB, m repomanager.RepositoryManager, config *sc.Config) *AvatarService {
	return &AvatarService{db: db, repomanager: m, config: config, now: time.Now}
}

// avatarKey returns a fresh object key of the form avatars/yyyy/mm/dd/<uuid>.
func avatarKey(t time.Time) string {
	return fmt.Sprintf("avatars/%04d/%02d/%02d/%s", t.Year(), t.Month(), t.Day(), uuid.New())
}

func (s *AvatarService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignUpload allocates a new avatar key for user, records it and returns
// the key with a presigned PUT URL.
func (s *AvatarService) PresignUpload(ctx context.Context, user *models.User) (string, string, error) {
	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", fmt.Errorf("error creating s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := avatarKey(s.now())

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(avatarURLValidity))
	if err != nil {
		return "", "", fmt.Errorf("error presigning upload: %w", err)
	}

	if err := s.repomanager.Users(s.db).SetAvatarKey(ctx, user.ID, key); err != nil {
		return "", "", fmt.Errorf("error storing avatar key: %w", err)
	}
	user.AvatarKey = &key

	return key, req.URL, nil
}

// PresignDownload returns a presigned GET URL for the user's avatar, or
// common.ErrorNotFound when the user or the avatar does not exist.
func (s *AvatarService) PresignDownload(ctx context.Context, userID int64) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.AvatarKey == nil {
		return "", fmt.Errorf("%w: no avatar", common.ErrorNotFound)
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("error creating s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    user.AvatarKey,
	}, s3.WithPresignExpires(avatarURLValidity))
	if err != nil {
		return "", fmt.Errorf("error presigning download: %w", err)
	}
	return req.URL, nil
}
