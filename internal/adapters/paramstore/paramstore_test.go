package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	getOut  *ssm.GetParameterOutput
	getErr  error
	lastReq *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastReq = in
	return f.getOut, f.getErr
}

func secret(value string) *fakeAPI {
	return &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name: aws.String("/reply-assistant/openai"), Value: aws.String(value), Type: types.ParameterTypeSecureString,
	}}}
}

func TestGetParameter(t *testing.T) {
	api := secret("sk-123")
	client, err := New(api)
	require.NoError(t, err)

	v, err := client.GetParameter(context.Background(), " /reply-assistant/openai ")
	require.NoError(t, err)
	require.Equal(t, "sk-123", v)
	require.Equal(t, "/reply-assistant/openai", aws.ToString(api.lastReq.Name))
	require.True(t, aws.ToBool(api.lastReq.WithDecryption))
}

func TestGetParameterErrors(t *testing.T) {
	client, err := New(&fakeAPI{getErr: errors.New("boom")})
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "boom")

	client, err = New(&fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: aws.String("p")}}})
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "missing value")

	_, err = client.GetParameter(context.Background(), "  ")
	require.ErrorContains(t, err, "required")

	_, err = (&Client{}).GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "not initialized")

	_, err = New(nil)
	require.ErrorContains(t, err, "must not be nil")
}

func TestResolve(t *testing.T) {
	client, err := New(secret("from-ssm"))
	require.NoError(t, err)
	ctx := context.Background()

	v, err := Resolve(ctx, client, "literal", "/param")
	require.NoError(t, err)
	require.Equal(t, "literal", v)

	v, err = Resolve(ctx, client, "", "/param")
	require.NoError(t, err)
	require.Equal(t, "from-ssm", v)

	v, err = Resolve(ctx, nil, "", "")
	require.NoError(t, err)
	require.Equal(t, "", v)

	_, err = Resolve(ctx, nil, "", "/param")
	require.Error(t, err)
}
