// Package secrets resolves credential values that reference AWS
// Secrets Manager. BMC passwords should not live in environment
// variables on shared hosts; an ARN in their place is fetched at use.
package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const arnPrefix = "arn:aws:secretsmanager:"

// Resolver fetches secret values on demand.
type Resolver struct {
	client *secretsmanager.Client
}

// NewResolver builds a Resolver over an AWS SDK config.
func NewResolver(awsCfg aws.Config) *Resolver {
	return &Resolver{client: secretsmanager.NewFromConfig(awsCfg)}
}

// IsRef reports whether a value is a Secrets Manager reference.
func IsRef(value string) bool {
	return strings.HasPrefix(value, arnPrefix)
}

// Resolve returns the secret string for an ARN reference, or the value
// unchanged when it is a plain credential.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	if !IsRef(value) {
		return value, nil
	}
	if r == nil || r.client == nil {
		return "", fmt.Errorf("secret reference %s given but no resolver configured", value)
	}
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(value),
	})
	if err != nil {
		return "", fmt.Errorf("fetching secret %s: %w", value, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", value)
	}
	return *out.SecretString, nil
}
