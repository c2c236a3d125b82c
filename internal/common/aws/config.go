// internal/common/aws/config.go

// Package aws holds the SES and SNS wrappers behind the hot-lead
// notification worker.
package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// loadRegionConfig resolves credentials from the default chain (env vars,
// shared profile, instance role) pinned to the given region.
func loadRegionConfig(ctx context.Context, region string) (awssdk.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}
