// Package billing aggregates per-owner usage and cost from Cost Explorer.
package billing

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/de-tools/cluster-report/pkg/models/domain"
)

const (
	metricUsageQuantity = "UsageQuantity"
	metricUnblendedCost = "UnblendedCost"
)

// Aggregator answers per-owner billing questions over a report window.
type Aggregator interface {
	// DailyUsage returns the owner's compute hours per day, one point per
	// billing bucket, in API return order.
	DailyUsage(
		ctx context.Context,
		window domain.ReportWindow,
		ownerTagKey string,
		owner domain.OwnerID,
	) (domain.DailyUsage, error)

	// TotalCost returns the owner's unblended cost summed over the window.
	TotalCost(
		ctx context.Context,
		window domain.ReportWindow,
		ownerTagKey string,
		owner domain.OwnerID,
	) (float64, error)
}

// CostExplorerAPI is the slice of the Cost Explorer client the aggregator uses.
type CostExplorerAPI interface {
	GetCostAndUsage(
		ctx context.Context,
		params *costexplorer.GetCostAndUsageInput,
		optFns ...func(*costexplorer.Options),
	) (*costexplorer.GetCostAndUsageOutput, error)
}

type aggregator struct {
	client CostExplorerAPI

	// usageType restricts the usage metric to one instance-size class,
	// e.g. "BoxUsage:t2.small". Cost queries are not restricted.
	usageType string
}

func NewAggregator(client CostExplorerAPI, usageType string) Aggregator {
	return &aggregator{client: client, usageType: usageType}
}

func (a *aggregator) DailyUsage(
	ctx context.Context,
	window domain.ReportWindow,
	ownerTagKey string,
	owner domain.OwnerID,
) (domain.DailyUsage, error) {
	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: aws.String(window.StartDate()),
			End:   aws.String(window.EndDate()),
		},
		Granularity: types.GranularityDaily,
		Metrics:     []string{metricUsageQuantity},
		Filter: &types.Expression{
			And: []types.Expression{
				{
					Dimensions: &types.DimensionValues{
						Key:    types.DimensionUsageType,
						Values: []string{a.usageType},
					},
				},
				{
					Tags: &types.TagValues{
						Key:    aws.String(ownerTagKey),
						Values: []string{owner},
					},
				},
			},
		},
	}

	result, err := a.client.GetCostAndUsage(ctx, input)
	if err != nil {
		return domain.DailyUsage{}, fmt.Errorf("failed to get usage for owner %s: %w", owner, err)
	}

	var series domain.DailyUsage
	for _, bucket := range result.ResultsByTime {
		amount, err := bucketAmount(bucket, metricUsageQuantity)
		if err != nil {
			return domain.DailyUsage{}, err
		}
		series.Append(aws.ToString(bucket.TimePeriod.Start), amount)
	}
	return series, nil
}

func (a *aggregator) TotalCost(
	ctx context.Context,
	window domain.ReportWindow,
	ownerTagKey string,
	owner domain.OwnerID,
) (float64, error) {
	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: aws.String(window.StartDate()),
			End:   aws.String(window.EndDate()),
		},
		Granularity: types.GranularityDaily,
		Metrics:     []string{metricUnblendedCost},
		Filter: &types.Expression{
			Tags: &types.TagValues{
				Key:    aws.String(ownerTagKey),
				Values: []string{owner},
			},
		},
	}

	result, err := a.client.GetCostAndUsage(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("failed to get cost for owner %s: %w", owner, err)
	}

	var total float64
	for _, bucket := range result.ResultsByTime {
		amount, err := bucketAmount(bucket, metricUnblendedCost)
		if err != nil {
			return 0, err
		}
		total += amount
	}
	return total, nil
}

func bucketAmount(bucket types.ResultByTime, metric string) (float64, error) {
	value, ok := bucket.Total[metric]
	if !ok {
		return 0, fmt.Errorf("billing bucket missing %s metric", metric)
	}
	amount, err := strconv.ParseFloat(aws.ToString(value.Amount), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s amount: %w", metric, err)
	}
	return amount, nil
}
