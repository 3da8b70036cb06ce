package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

type lambdaAPI interface {
	Invoke(ctx context.Context, in *lambda.InvokeInput, opts ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// UnconfirmedUserLambda invokes the function that deletes users still in
// UNCONFIRMED status. The function ignores confirmed users.
type UnconfirmedUserLambda struct {
	api          lambdaAPI
	functionName string
}

func NewUnconfirmedUserLambda(cfg aws.Config, functionName string) *UnconfirmedUserLambda {
	return &UnconfirmedUserLambda{api: lambda.NewFromConfig(cfg), functionName: functionName}
}

type unconfirmedUserPayload struct {
	UserID string `json:"userId"`
}

func (l *UnconfirmedUserLambda) DeleteUnconfirmedUser(ctx context.Context, userID string) error {
	payload, err := json.Marshal(unconfirmedUserPayload{UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to encode lambda payload: %w", err)
	}

	out, err := l.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(l.functionName),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", l.functionName, err)
	}
	if out.FunctionError != nil {
		return fmt.Errorf("%s returned %s: %s", l.functionName, aws.ToString(out.FunctionError), string(out.Payload))
	}
	return nil
}
