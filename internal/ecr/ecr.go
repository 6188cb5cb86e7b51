// Package ecr checks for and creates Amazon ECR repositories.
package ecr

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"

	"github.com/soyeahso/finch-mcp/internal/finch"
	"github.com/soyeahso/finch-mcp/internal/logging"
)

// API is the subset of the ECR client used here.
type API interface {
	DescribeRepositories(ctx context.Context, in *ecr.DescribeRepositoriesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error)
	CreateRepository(ctx context.Context, in *ecr.CreateRepositoryInput, optFns ...func(*ecr.Options)) (*ecr.CreateRepositoryOutput, error)
}

// ClientFactory builds an API client for a region. An empty region means
// the SDK's default resolution (environment, shared config).
type ClientFactory func(ctx context.Context, region string) (API, error)

// SDKFactory returns a factory backed by the default AWS credential chain,
// optionally pinned to a shared-config profile.
func SDKFactory(profile string) ClientFactory {
	return func(ctx context.Context, region string) (API, error) {
		var opts []func(*awsconfig.LoadOptions) error
		if region != "" {
			opts = append(opts, awsconfig.WithRegion(region))
		}
		if profile != "" {
			opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		return ecr.NewFromConfig(cfg), nil
	}
}

// RepositoryResult reports the outcome of EnsureRepository.
type RepositoryResult struct {
	finch.Result
	RepositoryURI string `json:"repository_uri,omitempty"`
	RepositoryARN string `json:"repository_arn,omitempty"`
	Exists        bool   `json:"exists"`
}

// Service creates repositories on demand.
type Service struct {
	factory       ClientFactory
	defaultRegion string
	log           *logging.Logger
}

// NewService creates a Service. defaultRegion is used when a call names none.
func NewService(factory ClientFactory, defaultRegion string, log *logging.Logger) *Service {
	return &Service{factory: factory, defaultRegion: defaultRegion, log: log.Sub("ecr")}
}

// EnsureRepository returns the repository if it exists and creates it
// otherwise, with scan-on-push and immutable tags.
func (s *Service) EnsureRepository(ctx context.Context, name, region string) RepositoryResult {
	if name == "" {
		return RepositoryResult{Result: errorResult("repository name is required")}
	}
	if region == "" {
		region = s.defaultRegion
	}

	client, err := s.factory(ctx, region)
	if err != nil {
		return RepositoryResult{Result: errorResult("Error checking/creating ECR repository: %v", err)}
	}

	desc, err := client.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{
		RepositoryNames: []string{name},
	})
	if err == nil && desc != nil && len(desc.Repositories) > 0 {
		repo := desc.Repositories[0]
		s.log.Info().Str("repository", name).Msg("ECR repository already exists")
		return RepositoryResult{
			Result:        finch.Result{Status: finch.StatusSuccess, Message: fmt.Sprintf("Repository '%s' already exists.", name)},
			RepositoryURI: aws.ToString(repo.RepositoryUri),
			RepositoryARN: aws.ToString(repo.RepositoryArn),
			Exists:        true,
		}
	}

	var notFound *types.RepositoryNotFoundException
	if err != nil && !errors.As(err, &notFound) {
		return RepositoryResult{Result: errorResult("Error checking ECR repository: %v", err)}
	}

	s.log.Info().Str("repository", name).Str("region", region).Msg("creating ECR repository")
	created, err := client.CreateRepository(ctx, &ecr.CreateRepositoryInput{
		RepositoryName: aws.String(name),
		ImageScanningConfiguration: &types.ImageScanningConfiguration{
			ScanOnPush: true,
		},
		ImageTagMutability: types.ImageTagMutabilityImmutable,
	})
	if err != nil {
		return RepositoryResult{Result: errorResult("Failed to create ECR repository: %v", err)}
	}

	res := RepositoryResult{
		Result: finch.Result{Status: finch.StatusSuccess, Message: fmt.Sprintf("Successfully created ECR repository '%s'.", name)},
	}
	if created.Repository != nil {
		res.RepositoryURI = aws.ToString(created.Repository.RepositoryUri)
		res.RepositoryARN = aws.ToString(created.Repository.RepositoryArn)
	}
	return res
}

func errorResult(format string, args ...any) finch.Result {
	return finch.Result{Status: finch.StatusError, Message: fmt.Sprintf(format, args...)}
}
