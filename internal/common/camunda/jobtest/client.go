// Package jobtest provides an in-memory worker.JobClient that records the
// commands a job handler sends instead of talking to a Zeebe gateway.
package jobtest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

// Completion is a CompleteJob request.
type Completion struct {
	JobKey    int64
	Variables map[string]interface{}
}

// Failure is a FailJob request.
type Failure struct {
	JobKey       int64
	Retries      int32
	ErrorMessage string
	Variables    map[string]interface{}
}

// ThrownError is a ThrowError request.
type ThrownError struct {
	JobKey       int64
	ErrorCode    string
	ErrorMessage string
	Variables    map[string]interface{}
}

// Client records every command sent through it. Err, when set, is returned
// by the gateway for every request.
type Client struct {
	pb.GatewayClient

	mu        sync.Mutex
	Completed []Completion
	Failed    []Failure
	Thrown    []ThrownError
	Err       error
}

func NewClient() *Client {
	return &Client{}
}

func noRetry(context.Context, error) bool { return false }

func (c *Client) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c, noRetry)
}

func (c *Client) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c, noRetry)
}

func (c *Client) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c, noRetry)
}

func (c *Client) CompleteJob(_ context.Context, req *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	c.Completed = append(c.Completed, Completion{JobKey: req.GetJobKey(), Variables: decode(req.GetVariables())})
	return &pb.CompleteJobResponse{}, nil
}

func (c *Client) FailJob(_ context.Context, req *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	c.Failed = append(c.Failed, Failure{
		JobKey:       req.GetJobKey(),
		Retries:      req.GetRetries(),
		ErrorMessage: req.GetErrorMessage(),
		Variables:    decode(req.GetVariables()),
	})
	return &pb.FailJobResponse{}, nil
}

func (c *Client) ThrowError(_ context.Context, req *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	c.Thrown = append(c.Thrown, ThrownError{
		JobKey:       req.GetJobKey(),
		ErrorCode:    req.GetErrorCode(),
		ErrorMessage: req.GetErrorMessage(),
		Variables:    decode(req.GetVariables()),
	})
	return &pb.ThrowErrorResponse{}, nil
}

// Job builds an activated job of taskType carrying variables.
func Job(key int64, taskType string, variables interface{}) entities.Job {
	data, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               taskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "savings-suggestion",
		ElementId:          "Activity_" + taskType,
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(data),
	}}
}

func decode(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return nil
	}
	return vars
}
