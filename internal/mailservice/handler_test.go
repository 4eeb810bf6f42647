package mailservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSendWelcomeEmail(t *testing.T) {
	mockMC := new(MockMessageConsumer)
	mockMailer := new(MockMailer)
	mockLogger := new(MockLogger)

	mockLogger.On("Info", "welcome email sent", mock.Anything).Return()
	mockLogger.On("Info", "stopping SendWelcomeEmail due to context cancellation", mock.Anything).Return().Maybe()

	ctx, cancel := context.WithCancel(context.Background())

	s := &MailService{
		mb:     mockMC,
		m:      mockMailer,
		logger: mockLogger,
		ctx:    ctx,
		cancel: cancel,
	}
	t.Cleanup(s.Close)

	s.SendWelcomeEmail()

	assert.Eventually(t, mockMailer.IsCalled, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "test@example.com", mockMailer.GetEmail())

	mockLogger.AssertExpectations(t)
}
