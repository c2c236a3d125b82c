// internal/common/errors/handler_test.go
package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"dealflow-workers/internal/common/metrics"
)

type captureLogger struct {
	msgs []string
}

func (l *captureLogger) Error(msg string, fields map[string]interface{}) {
	l.msgs = append(l.msgs, msg)
}

type fakeFailJobCommand struct {
	jobKey    int64
	retries   int32
	message   string
	variables string
	sent      bool
}

func (c *fakeFailJobCommand) JobKey(k int64) commands.FailJobCommandStep2 {
	c.jobKey = k
	return c
}

func (c *fakeFailJobCommand) Retries(r int32) commands.FailJobCommandStep3 {
	c.retries = r
	return c
}

func (c *fakeFailJobCommand) RetryBackoff(time.Duration) commands.FailJobCommandStep3 {
	return c
}

func (c *fakeFailJobCommand) ErrorMessage(m string) commands.FailJobCommandStep3 {
	c.message = m
	return c
}

func (c *fakeFailJobCommand) VariablesFromString(s string) (commands.DispatchFailJobCommand, error) {
	c.variables = s
	return c, nil
}

func (c *fakeFailJobCommand) VariablesFromStringer(s fmt.Stringer) (commands.DispatchFailJobCommand, error) {
	return c.VariablesFromString(s.String())
}

func (c *fakeFailJobCommand) VariablesFromMap(m map[string]interface{}) (commands.DispatchFailJobCommand, error) {
	b, _ := json.Marshal(m)
	return c.VariablesFromString(string(b))
}

func (c *fakeFailJobCommand) VariablesFromObject(o interface{}) (commands.DispatchFailJobCommand, error) {
	b, _ := json.Marshal(o)
	return c.VariablesFromString(string(b))
}

func (c *fakeFailJobCommand) VariablesFromObjectIgnoreOmitempty(o interface{}) (commands.DispatchFailJobCommand, error) {
	return c.VariablesFromObject(o)
}

func (c *fakeFailJobCommand) Send(context.Context) (*pb.FailJobResponse, error) {
	c.sent = true
	return &pb.FailJobResponse{}, nil
}

type fakeThrowErrorCommand struct {
	jobKey    int64
	errorCode string
	message   string
	variables string
	sent      bool
}

func (c *fakeThrowErrorCommand) JobKey(k int64) commands.ThrowErrorCommandStep2 {
	c.jobKey = k
	return c
}

func (c *fakeThrowErrorCommand) ErrorCode(code string) commands.DispatchThrowErrorCommand {
	c.errorCode = code
	return c
}

func (c *fakeThrowErrorCommand) ErrorMessage(m string) commands.DispatchThrowErrorCommand {
	c.message = m
	return c
}

func (c *fakeThrowErrorCommand) VariablesFromString(s string) (commands.DispatchThrowErrorCommand, error) {
	c.variables = s
	return c, nil
}

func (c *fakeThrowErrorCommand) VariablesFromStringer(s fmt.Stringer) (commands.DispatchThrowErrorCommand, error) {
	return c.VariablesFromString(s.String())
}

func (c *fakeThrowErrorCommand) VariablesFromMap(m map[string]interface{}) (commands.DispatchThrowErrorCommand, error) {
	b, _ := json.Marshal(m)
	return c.VariablesFromString(string(b))
}

func (c *fakeThrowErrorCommand) VariablesFromObject(o interface{}) (commands.DispatchThrowErrorCommand, error) {
	b, _ := json.Marshal(o)
	return c.VariablesFromString(string(b))
}

func (c *fakeThrowErrorCommand) VariablesFromObjectIgnoreOmitempty(o interface{}) (commands.DispatchThrowErrorCommand, error) {
	return c.VariablesFromObject(o)
}

func (c *fakeThrowErrorCommand) Send(context.Context) (*pb.ThrowErrorResponse, error) {
	c.sent = true
	return &pb.ThrowErrorResponse{}, nil
}

type fakeJobClient struct {
	failCmd  *fakeFailJobCommand
	throwCmd *fakeThrowErrorCommand
}

func newFakeJobClient() *fakeJobClient {
	return &fakeJobClient{
		failCmd:  &fakeFailJobCommand{},
		throwCmd: &fakeThrowErrorCommand{},
	}
}

func (c *fakeJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	panic("HandleJobError must never complete a job")
}

func (c *fakeJobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return c.failCmd
}

func (c *fakeJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return c.throwCmd
}

func testJob(taskType string, retries int32) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:     17,
		Type:    taskType,
		Retries: retries,
	}}
}

func TestHandleJobError_RetryableFailsJob(t *testing.T) {
	client := newFakeJobClient()
	handler := NewErrorHandler(&captureLogger{})

	handler.HandleJobError(context.Background(), client, testJob("save-lead", 3),
		NewDatabaseInsertFailedError(fmt.Errorf("connection lost")))

	assert.True(t, client.failCmd.sent)
	assert.False(t, client.throwCmd.sent)
	assert.Equal(t, int64(17), client.failCmd.jobKey)
	assert.Equal(t, int32(3), client.failCmd.retries)
	assert.Contains(t, client.failCmd.variables, "DATABASE_INSERT_FAILED")
}

func TestHandleJobError_RetryCapRespectsJobRetries(t *testing.T) {
	client := newFakeJobClient()
	handler := NewErrorHandler(&captureLogger{})

	// The code table allows 3 retries but the job only has 1 left.
	handler.HandleJobError(context.Background(), client, testJob("save-lead", 1),
		NewDatabaseInsertFailedError(fmt.Errorf("connection lost")))

	assert.True(t, client.failCmd.sent)
	assert.Equal(t, int32(1), client.failCmd.retries)
}

func TestHandleJobError_NonRetryableThrowsBPMNError(t *testing.T) {
	client := newFakeJobClient()
	handler := NewErrorHandler(&captureLogger{})

	handler.HandleJobError(context.Background(), client, testJob("save-lead", 3),
		NewDuplicateLeadError("123 Main St_conv-001"))

	assert.True(t, client.throwCmd.sent)
	assert.False(t, client.failCmd.sent)
	assert.Equal(t, "DUPLICATE_LEAD", client.throwCmd.errorCode)
	assert.Contains(t, client.throwCmd.variables, "originalErrorCode")
}

func TestHandleJobError_ExhaustedRetriesThrow(t *testing.T) {
	client := newFakeJobClient()
	handler := NewErrorHandler(&captureLogger{})

	// Retryable code, but the job has no retries left.
	handler.HandleJobError(context.Background(), client, testJob("query-leads", 0),
		NewQueryTimeoutError("lead_by_id"))

	assert.True(t, client.throwCmd.sent)
	assert.False(t, client.failCmd.sent)
	assert.Equal(t, "QUERY_TIMEOUT", client.throwCmd.errorCode)
}

func TestHandleJobError_UnknownErrorNormalized(t *testing.T) {
	client := newFakeJobClient()
	logger := &captureLogger{}
	handler := NewErrorHandler(logger)

	handler.HandleJobError(context.Background(), client, testJob("save-lead", 3),
		fmt.Errorf("parse input: unexpected end of JSON input"))

	assert.True(t, client.throwCmd.sent)
	assert.Equal(t, "INTERNAL_ERROR", client.throwCmd.errorCode)
	assert.Len(t, logger.msgs, 1)
}

func TestHandleJobError_CountsFailedJobs(t *testing.T) {
	counter := metrics.WorkerJobsFailed.WithLabelValues("query-leads", "QUERY_EXECUTION_FAILED")
	before := testutil.ToFloat64(counter)

	client := newFakeJobClient()
	handler := NewErrorHandler(&captureLogger{})
	handler.HandleJobError(context.Background(), client, testJob("query-leads", 3),
		NewQueryExecutionFailedError("lead_by_id", fmt.Errorf("connection reset")))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
