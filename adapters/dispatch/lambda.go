// Package dispatch forwards finished analysis results to the dispatcher
// function.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/domain/entities"
)

// LambdaAPI is the slice of the Lambda client the forwarder uses.
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaForwarder invokes the dispatcher function synchronously with the
// result message as its payload.
type LambdaForwarder struct {
	client       LambdaAPI
	functionName string
	logger       *zap.Logger
}

// NewLambdaForwarder creates a forwarder bound to one dispatcher function.
func NewLambdaForwarder(client LambdaAPI, functionName string, logger *zap.Logger) *LambdaForwarder {
	return &LambdaForwarder{client: client, functionName: functionName, logger: logger}
}

// Forward delivers one result. A non-2xx status or a function error is a
// forwarding failure the caller may retry.
func (f *LambdaForwarder) Forward(ctx context.Context, msg *entities.ResultMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal result message: %w", err)
	}

	out, err := f.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(f.functionName),
		Payload:      payload,
	})
	if err != nil {
		return fmt.Errorf("invoke %s: %w", f.functionName, err)
	}
	if out.FunctionError != nil {
		return fmt.Errorf("invoke %s: function error: %s", f.functionName, *out.FunctionError)
	}
	if out.StatusCode < 200 || out.StatusCode > 299 {
		return fmt.Errorf("invoke %s: status %d", f.functionName, out.StatusCode)
	}

	f.logger.Info("result forwarded to dispatcher",
		zap.String("function", f.functionName),
		zap.String("companyId", msg.Requester.CompanyID),
		zap.String("deviceId", msg.Requester.DeviceID))
	return nil
}
