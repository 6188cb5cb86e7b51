package ecr

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/soyeahso/finch-mcp/internal/finch"
	"github.com/soyeahso/finch-mcp/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	describeOut *ecr.DescribeRepositoriesOutput
	describeErr error
	createErr   error
	created     *ecr.CreateRepositoryInput
}

func (f *fakeAPI) DescribeRepositories(_ context.Context, _ *ecr.DescribeRepositoriesInput, _ ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error) {
	return f.describeOut, f.describeErr
}

func (f *fakeAPI) CreateRepository(_ context.Context, in *ecr.CreateRepositoryInput, _ ...func(*ecr.Options)) (*ecr.CreateRepositoryOutput, error) {
	f.created = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &ecr.CreateRepositoryOutput{Repository: &types.Repository{
		RepositoryName: in.RepositoryName,
		RepositoryUri:  aws.String("123456789012.dkr.ecr.us-west-2.amazonaws.com/" + aws.ToString(in.RepositoryName)),
	}}, nil
}

func testService(api *fakeAPI, gotRegion *string) *Service {
	factory := func(_ context.Context, region string) (API, error) {
		if gotRegion != nil {
			*gotRegion = region
		}
		return api, nil
	}
	return NewService(factory, "us-west-2", logging.New(nil, "silent"))
}

func TestEnsureRepository_Exists(t *testing.T) {
	api := &fakeAPI{describeOut: &ecr.DescribeRepositoriesOutput{Repositories: []types.Repository{{
		RepositoryName: aws.String("app"),
		RepositoryUri:  aws.String("123456789012.dkr.ecr.us-west-2.amazonaws.com/app"),
		RepositoryArn:  aws.String("arn:aws:ecr:us-west-2:123456789012:repository/app"),
	}}}}

	res := testService(api, nil).EnsureRepository(context.Background(), "app", "")
	require.True(t, res.OK(), res.Message)
	assert.True(t, res.Exists)
	assert.Equal(t, "Repository 'app' already exists.", res.Message)
	assert.Equal(t, "123456789012.dkr.ecr.us-west-2.amazonaws.com/app", res.RepositoryURI)
	assert.Nil(t, api.created)
}

func TestEnsureRepository_CreatesWhenMissing(t *testing.T) {
	api := &fakeAPI{describeErr: &types.RepositoryNotFoundException{Message: aws.String("not found")}}

	var region string
	res := testService(api, &region).EnsureRepository(context.Background(), "app", "eu-west-1")
	require.True(t, res.OK(), res.Message)
	assert.False(t, res.Exists)
	assert.Equal(t, "Successfully created ECR repository 'app'.", res.Message)
	assert.Equal(t, "eu-west-1", region)

	require.NotNil(t, api.created)
	assert.Equal(t, "app", aws.ToString(api.created.RepositoryName))
	assert.True(t, api.created.ImageScanningConfiguration.ScanOnPush)
	assert.Equal(t, types.ImageTagMutabilityImmutable, api.created.ImageTagMutability)
}

func TestEnsureRepository_DefaultRegion(t *testing.T) {
	api := &fakeAPI{describeErr: &types.RepositoryNotFoundException{}}

	var region string
	testService(api, &region).EnsureRepository(context.Background(), "app", "")
	assert.Equal(t, "us-west-2", region)
}

func TestEnsureRepository_DescribeError(t *testing.T) {
	api := &fakeAPI{describeErr: errors.New("access denied")}

	res := testService(api, nil).EnsureRepository(context.Background(), "app", "")
	assert.Equal(t, finch.StatusError, res.Status)
	assert.Equal(t, "Error checking ECR repository: access denied", res.Message)
	assert.Nil(t, api.created)
}

func TestEnsureRepository_CreateError(t *testing.T) {
	api := &fakeAPI{
		describeErr: &types.RepositoryNotFoundException{},
		createErr:   errors.New("limit exceeded"),
	}

	res := testService(api, nil).EnsureRepository(context.Background(), "app", "")
	assert.Equal(t, finch.StatusError, res.Status)
	assert.Equal(t, "Failed to create ECR repository: limit exceeded", res.Message)
}

func TestEnsureRepository_FactoryError(t *testing.T) {
	svc := NewService(func(context.Context, string) (API, error) {
		return nil, errors.New("no credentials")
	}, "", logging.New(nil, "silent"))

	res := svc.EnsureRepository(context.Background(), "app", "")
	assert.Equal(t, finch.StatusError, res.Status)
	assert.Contains(t, res.Message, "no credentials")
}

func TestEnsureRepository_EmptyName(t *testing.T) {
	res := testService(&fakeAPI{}, nil).EnsureRepository(context.Background(), "", "")
	assert.Equal(t, finch.StatusError, res.Status)
}
