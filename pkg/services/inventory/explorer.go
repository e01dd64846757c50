// Package inventory resolves the owners of a tag-grouped instance cluster.
package inventory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/de-tools/cluster-report/pkg/models/domain"
)

// Explorer discovers the owner-tag values present in a cluster.
type Explorer interface {
	// ResolveOwners returns the owner-tag values of every instance carrying
	// the cluster tag, in discovery order. An owner running several
	// instances appears once per instance; callers that need a unique set
	// must deduplicate themselves.
	ResolveOwners(ctx context.Context, cluster domain.ClusterTag, ownerTagKey string) ([]domain.OwnerID, error)
}

// DescribeInstancesAPI is the slice of the EC2 client the explorer uses.
type DescribeInstancesAPI interface {
	DescribeInstances(
		ctx context.Context,
		params *ec2.DescribeInstancesInput,
		optFns ...func(*ec2.Options),
	) (*ec2.DescribeInstancesOutput, error)
}

type explorer struct {
	client DescribeInstancesAPI
}

func NewExplorer(client DescribeInstancesAPI) Explorer {
	return &explorer{client: client}
}

func (e *explorer) ResolveOwners(
	ctx context.Context,
	cluster domain.ClusterTag,
	ownerTagKey string,
) ([]domain.OwnerID, error) {
	if cluster.Key == "" || cluster.Value == "" {
		return nil, fmt.Errorf("cluster tag key and value must be non-empty")
	}
	if ownerTagKey == "" {
		return nil, fmt.Errorf("owner tag key must be non-empty")
	}

	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("tag:" + cluster.Key),
				Values: []string{cluster.Value},
			},
		},
	}

	var owners []domain.OwnerID
	for {
		resp, err := e.client.DescribeInstances(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to describe cluster instances: %w", err)
		}

		for _, reservation := range resp.Reservations {
			for _, instance := range reservation.Instances {
				for _, tag := range instance.Tags {
					if aws.ToString(tag.Key) == ownerTagKey {
						owners = append(owners, aws.ToString(tag.Value))
						break
					}
				}
			}
		}

		if aws.ToString(resp.NextToken) == "" {
			return owners, nil
		}
		input.NextToken = resp.NextToken
	}
}
