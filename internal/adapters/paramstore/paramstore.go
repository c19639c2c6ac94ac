package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the part of *ssm.Client used by Client
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter reads a single parameter value
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client reads parameters from AWS Systems Manager Parameter Store
type Client struct {
	api ssmAPI
}

// New creates a Client over the given SSM API
func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

// GetParameter returns the decrypted value of a parameter
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("paramstore: parameter %q missing value", name)
	}
	return *out.Parameter.Value, nil
}

// Resolve returns value when set, otherwise the named parameter. Both
// empty resolves to the empty string.
func Resolve(ctx context.Context, getter Getter, value, parameter string) (string, error) {
	if value != "" || strings.TrimSpace(parameter) == "" {
		return value, nil
	}
	if getter == nil {
		return "", fmt.Errorf("paramstore: no client to resolve %q", parameter)
	}
	return getter.GetParameter(ctx, parameter)
}
