package notifyhotlead

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"dealflow-workers/internal/common/logger"
	"dealflow-workers/internal/models"
)

type mockSES struct {
	err    error
	calls  int
	inputs []*ses.SendEmailInput
}

func (m *mockSES) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	m.calls++
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	err    error
	calls  int
	inputs []*sns.PublishInput
}

func (m *mockSNS) Publish(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	m.calls++
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{}, nil
}

func createTestConfig() *Config {
	return &Config{
		EmailEnabled:        true,
		SMSEnabled:          true,
		FromEmail:           "alerts@dealflow.test",
		ToEmail:             "wholesaler@dealflow.test",
		PhoneNumber:         "+15551234567",
		MotivationThreshold: 80,
		HighPriorityScore:   90,
		Timeout:             10 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func hotLeadInput(score int) *Input {
	return &Input{
		LeadID:         "lead-1",
		ConversationID: "conv-1",
		Property: models.PropertyRecord{
			Address:          "123 Oak St",
			City:             "Dallas",
			State:            "TX",
			ZipCode:          "75201",
			ARV:              "350000",
			EquityPercentage: 45,
			MotivationScore:  score,
			OwnerName:        "John Smith",
			OwnerPhone:       "555-0100",
			LeadType:         "pre_foreclosure",
		},
	}
}

func TestHandler_Execute_EmailOnly(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	handler := NewHandlerWithClients(createTestConfig(), sesMock, snsMock, createTestLogger(t))

	// Score 85 is above the threshold but below the SMS cutoff.
	output, err := handler.Execute(context.Background(), hotLeadInput(85))

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.True(t, output.EmailSent)
	assert.False(t, output.SMSSent)
	assert.Equal(t, 1, sesMock.calls)
	assert.Equal(t, 0, snsMock.calls)

	email := sesMock.inputs[0]
	assert.Equal(t, "wholesaler@dealflow.test", email.Destination.ToAddresses[0])
	assert.Contains(t, *email.Message.Subject.Data, "123 Oak St")
	assert.Contains(t, *email.Message.Subject.Data, "85")
	assert.Contains(t, *email.Message.Body.Text.Data, "Motivation Score: 85/100")
	assert.Contains(t, *email.Message.Body.Text.Data, "Owner: John Smith (555-0100)")
}

func TestHandler_Execute_EmailAndSMSForHighPriority(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	handler := NewHandlerWithClients(createTestConfig(), sesMock, snsMock, createTestLogger(t))

	output, err := handler.Execute(context.Background(), hotLeadInput(95))

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.True(t, output.EmailSent)
	assert.True(t, output.SMSSent)
	assert.Equal(t, 1, snsMock.calls)
	assert.Equal(t, "+15551234567", *snsMock.inputs[0].PhoneNumber)
}

func TestHandler_Execute_BelowThresholdSkips(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	handler := NewHandlerWithClients(createTestConfig(), sesMock, snsMock, createTestLogger(t))

	output, err := handler.Execute(context.Background(), hotLeadInput(60))

	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, output.Status)
	assert.False(t, output.EmailSent)
	assert.False(t, output.SMSSent)
	assert.Equal(t, 0, sesMock.calls)
	assert.Equal(t, 0, snsMock.calls)
}

func TestHandler_Execute_ChannelsDisabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false

	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	handler := NewHandlerWithClients(cfg, sesMock, snsMock, createTestLogger(t))

	output, err := handler.Execute(context.Background(), hotLeadInput(95))

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
	assert.Equal(t, 0, sesMock.calls)
	assert.Equal(t, 0, snsMock.calls)
}

func TestHandler_Execute_InvalidDestinationsSkipSends(t *testing.T) {
	cfg := createTestConfig()
	cfg.ToEmail = "not-an-email"
	cfg.PhoneNumber = "123"

	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	handler := NewHandlerWithClients(cfg, sesMock, snsMock, createTestLogger(t))

	output, err := handler.Execute(context.Background(), hotLeadInput(95))

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
	assert.Equal(t, 0, sesMock.calls)
	assert.Equal(t, 0, snsMock.calls)
}

func TestHandler_Execute_EmailFailure(t *testing.T) {
	sesMock := &mockSES{err: errors.New("ses throttled")}
	snsMock := &mockSNS{}
	handler := NewHandlerWithClients(createTestConfig(), sesMock, snsMock, createTestLogger(t))

	output, err := handler.Execute(context.Background(), hotLeadInput(95))

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)
	assert.False(t, output.EmailSent)
	assert.Equal(t, 0, snsMock.calls, "no SMS attempt after email failure")
}

func TestHandler_Execute_SMSFailureAfterEmail(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{err: errors.New("sns unavailable")}
	handler := NewHandlerWithClients(createTestConfig(), sesMock, snsMock, createTestLogger(t))

	output, err := handler.Execute(context.Background(), hotLeadInput(95))

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)
	assert.True(t, output.EmailSent, "email went out before the SMS failure")
	assert.False(t, output.SMSSent)
}
