package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/feedwise/feedwise/pkg/config"
)

func TestAlertDisabledIsNoop(t *testing.T) {
	a := NewEmailAlerter(config.AlertConfig{Enabled: false})
	assert.NoError(t, a.Alert("Scoring Circuit Breaker Tripped", "too many failures"))
}

func TestNoOpAlerter(t *testing.T) {
	var a Alerter = &NoOpAlerter{}
	assert.NoError(t, a.Alert("anything", "anything"))
}

func TestBuildMessage(t *testing.T) {
	a := NewEmailAlerter(config.AlertConfig{
		Enabled: true,
		From:    "alerts@feedwise.example",
		To:      []string{"oncall@feedwise.example", "ops@feedwise.example"},
	})
	a.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	msg := string(a.buildMessage("Scoring Circuit Breaker Tripped", "workflow breaker opened after repeated failures"))

	assert.Contains(t, msg, "Subject: [feedwise] Scoring Circuit Breaker Tripped\r\n")
	assert.Contains(t, msg, "To: oncall@feedwise.example,ops@feedwise.example\r\n")
	assert.Contains(t, msg, "Time: 2025-06-01T12:00:00Z\r\n")
	assert.Contains(t, msg, "workflow breaker opened after repeated failures")
	assert.Contains(t, msg, "fallback scores")
}
