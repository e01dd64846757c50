package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/de-tools/cluster-report/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEC2 struct {
	pages  []*ec2.DescribeInstancesOutput
	inputs []*ec2.DescribeInstancesInput
	err    error
}

func (f *fakeEC2) DescribeInstances(
	_ context.Context,
	params *ec2.DescribeInstancesInput,
	_ ...func(*ec2.Options),
) (*ec2.DescribeInstancesOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[len(f.inputs)-1]
	return page, nil
}

func instance(tags map[string]string) types.Instance {
	var instanceTags []types.Tag
	for k, v := range tags {
		instanceTags = append(instanceTags, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return types.Instance{Tags: instanceTags}
}

func TestResolveOwners(t *testing.T) {
	cluster := domain.ClusterTag{Key: "Name", Value: "hub-worker"}

	client := &fakeEC2{
		pages: []*ec2.DescribeInstancesOutput{
			{
				Reservations: []types.Reservation{
					{
						Instances: []types.Instance{
							instance(map[string]string{"owner": "111"}),
							instance(map[string]string{"owner": "222"}),
						},
					},
					{
						// No owner tag, skipped silently.
						Instances: []types.Instance{
							instance(map[string]string{"env": "prod"}),
						},
					},
				},
			},
		},
	}

	owners, err := NewExplorer(client).ResolveOwners(context.Background(), cluster, "owner")
	require.NoError(t, err)
	assert.Equal(t, []domain.OwnerID{"111", "222"}, owners)

	require.Len(t, client.inputs, 1)
	require.Len(t, client.inputs[0].Filters, 1)
	assert.Equal(t, "tag:Name", aws.ToString(client.inputs[0].Filters[0].Name))
	assert.Equal(t, []string{"hub-worker"}, client.inputs[0].Filters[0].Values)
}

func TestResolveOwners_KeepsDuplicates(t *testing.T) {
	// One owner running two instances contributes two entries; uniqueness
	// is the caller's concern.
	client := &fakeEC2{
		pages: []*ec2.DescribeInstancesOutput{
			{
				Reservations: []types.Reservation{
					{
						Instances: []types.Instance{
							instance(map[string]string{"owner": "111"}),
							instance(map[string]string{"owner": "111"}),
						},
					},
				},
			},
		},
	}

	owners, err := NewExplorer(client).ResolveOwners(
		context.Background(),
		domain.ClusterTag{Key: "Name", Value: "hub-worker"},
		"owner",
	)
	require.NoError(t, err)
	assert.Equal(t, []domain.OwnerID{"111", "111"}, owners)
}

func TestResolveOwners_Paginates(t *testing.T) {
	client := &fakeEC2{
		pages: []*ec2.DescribeInstancesOutput{
			{
				Reservations: []types.Reservation{
					{Instances: []types.Instance{instance(map[string]string{"owner": "111"})}},
				},
				NextToken: aws.String("page-2"),
			},
			{
				Reservations: []types.Reservation{
					{Instances: []types.Instance{instance(map[string]string{"owner": "222"})}},
				},
			},
		},
	}

	owners, err := NewExplorer(client).ResolveOwners(
		context.Background(),
		domain.ClusterTag{Key: "Name", Value: "hub-worker"},
		"owner",
	)
	require.NoError(t, err)
	assert.Equal(t, []domain.OwnerID{"111", "222"}, owners)

	require.Len(t, client.inputs, 2)
	assert.Equal(t, "page-2", aws.ToString(client.inputs[1].NextToken))
}

func TestResolveOwners_EmptyCluster(t *testing.T) {
	client := &fakeEC2{pages: []*ec2.DescribeInstancesOutput{{}}}

	owners, err := NewExplorer(client).ResolveOwners(
		context.Background(),
		domain.ClusterTag{Key: "Name", Value: "hub-worker"},
		"owner",
	)
	require.NoError(t, err)
	assert.Empty(t, owners)
}

func TestResolveOwners_Validation(t *testing.T) {
	client := &fakeEC2{}
	explorer := NewExplorer(client)

	_, err := explorer.ResolveOwners(context.Background(), domain.ClusterTag{}, "owner")
	assert.Error(t, err)

	_, err = explorer.ResolveOwners(
		context.Background(),
		domain.ClusterTag{Key: "Name", Value: "hub-worker"},
		"",
	)
	assert.Error(t, err)

	assert.Empty(t, client.inputs)
}

func TestResolveOwners_APIError(t *testing.T) {
	client := &fakeEC2{err: errors.New("throttled")}

	_, err := NewExplorer(client).ResolveOwners(
		context.Background(),
		domain.ClusterTag{Key: "Name", Value: "hub-worker"},
		"owner",
	)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to describe cluster instances")
}
