package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type cognitoAPI interface {
	DeleteUser(ctx context.Context, in *cognitoidentityprovider.DeleteUserInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.DeleteUserOutput, error)
	GetUser(ctx context.Context, in *cognitoidentityprovider.GetUserInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error)
}

// Cognito deletes and verifies users against an Amazon Cognito user pool.
type Cognito struct {
	api cognitoAPI
}

func NewCognito(cfg aws.Config) *Cognito {
	return &Cognito{api: cognitoidentityprovider.NewFromConfig(cfg)}
}

func (c *Cognito) DeleteCurrentUser(ctx context.Context, s Session) error {
	if s.AccessToken == "" {
		return ErrNoUserSignedIn
	}
	_, err := c.api.DeleteUser(ctx, &cognitoidentityprovider.DeleteUserInput{AccessToken: aws.String(s.AccessToken)})
	if err != nil {
		if isSignedOut(err) {
			return fmt.Errorf("%w: %v", ErrNoUserSignedIn, err)
		}
		return fmt.Errorf("failed to delete cognito user: %w", err)
	}
	return nil
}

// VerifyToken returns the Cognito username, which is the user's sub.
func (c *Cognito) VerifyToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	out, err := c.api.GetUser(ctx, &cognitoidentityprovider.GetUserInput{AccessToken: aws.String(token)})
	if err != nil {
		if isSignedOut(err) {
			return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return "", fmt.Errorf("failed to get cognito user: %w", err)
	}
	for _, attr := range out.UserAttributes {
		if aws.ToString(attr.Name) == "sub" {
			return aws.ToString(attr.Value), nil
		}
	}
	return aws.ToString(out.Username), nil
}

func isSignedOut(err error) bool {
	var notAuthorized *types.NotAuthorizedException
	var notFound *types.UserNotFoundException
	return errors.As(err, &notAuthorized) || errors.As(err, &notFound)
}
