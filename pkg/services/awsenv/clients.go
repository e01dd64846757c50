// Package awsenv builds the AWS service clients for one reporting run.
package awsenv

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// LoadConfig resolves the shared AWS SDK configuration for the given region
// and verifies that credentials are available.
func LoadConfig(ctx context.Context, region string) (*awssdk.Config, error) {
	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithDefaultRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	_, err = awsCfg.Credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid AWS credentials: %w", err)
	}

	return &awsCfg, nil
}

// Clients bundles the service clients a run needs. All of them share one
// region-scoped SDK configuration; nothing here is process-global.
type Clients struct {
	EC2          *ec2.Client
	CostExplorer *costexplorer.Client
	S3           *s3.Client
	SES          *ses.Client
}

func NewClients(cfg awssdk.Config) *Clients {
	return &Clients{
		EC2:          ec2.NewFromConfig(cfg),
		CostExplorer: costexplorer.NewFromConfig(cfg),
		S3:           s3.NewFromConfig(cfg),
		SES:          ses.NewFromConfig(cfg),
	}
}
