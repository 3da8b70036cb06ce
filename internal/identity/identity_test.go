package identity

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCognito struct {
	deleteErr error
	getOut    *cognitoidentityprovider.GetUserOutput
	getErr    error
	deleted   []string
}

func (f *fakeCognito) DeleteUser(_ context.Context, in *cognitoidentityprovider.DeleteUserInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.DeleteUserOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.AccessToken))
	return &cognitoidentityprovider.DeleteUserOutput{}, f.deleteErr
}

func (f *fakeCognito) GetUser(_ context.Context, _ *cognitoidentityprovider.GetUserInput, _ ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error) {
	return f.getOut, f.getErr
}

func TestCognito_DeleteCurrentUser(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		apiErr  error
		wantErr error
	}{
		{name: "deleted", token: "tok"},
		{name: "empty token", token: "", wantErr: ErrNoUserSignedIn},
		{name: "not authorized", token: "tok", apiErr: &cognitotypes.NotAuthorizedException{Message: aws.String("expired")}, wantErr: ErrNoUserSignedIn},
		{name: "user not found", token: "tok", apiErr: &cognitotypes.UserNotFoundException{}, wantErr: ErrNoUserSignedIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeCognito{deleteErr: tt.apiErr}
			c := &Cognito{api: api}

			err := c.DeleteCurrentUser(context.Background(), Session{UserID: "u1", AccessToken: tt.token})
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, []string{"tok"}, api.deleted)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "err = %v", err)
		})
	}
}

func TestCognito_DeleteCurrentUser_OtherErrorsPassThrough(t *testing.T) {
	c := &Cognito{api: &fakeCognito{deleteErr: errors.New("throttled")}}
	err := c.DeleteCurrentUser(context.Background(), Session{AccessToken: "tok"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoUserSignedIn))
}

func TestCognito_VerifyToken_PrefersSub(t *testing.T) {
	c := &Cognito{api: &fakeCognito{getOut: &cognitoidentityprovider.GetUserOutput{
		Username: aws.String("diver42"),
		UserAttributes: []cognitotypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String("d@x.io")},
			{Name: aws.String("sub"), Value: aws.String("8f1c")},
		},
	}}}

	id, err := c.VerifyToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "8f1c", id)
}

type fakeLambda struct {
	in  *lambda.InvokeInput
	out *lambda.InvokeOutput
}

func (f *fakeLambda) Invoke(_ context.Context, in *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.in = in
	if f.out == nil {
		return &lambda.InvokeOutput{StatusCode: 200}, nil
	}
	return f.out, nil
}

func TestUnconfirmedUserLambda_Payload(t *testing.T) {
	api := &fakeLambda{}
	l := &UnconfirmedUserLambda{api: api, functionName: "delete-unconfirmed-user"}

	require.NoError(t, l.DeleteUnconfirmedUser(context.Background(), "u1"))
	assert.Equal(t, "delete-unconfirmed-user", aws.ToString(api.in.FunctionName))

	var payload map[string]string
	require.NoError(t, json.Unmarshal(api.in.Payload, &payload))
	assert.Equal(t, "u1", payload["userId"])
}

func TestUnconfirmedUserLambda_FunctionError(t *testing.T) {
	api := &fakeLambda{out: &lambda.InvokeOutput{FunctionError: aws.String("Unhandled"), Payload: []byte(`{"errorMessage":"boom"}`)}}
	l := &UnconfirmedUserLambda{api: api, functionName: "fn"}

	err := l.DeleteUnconfirmedUser(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unhandled")
}
