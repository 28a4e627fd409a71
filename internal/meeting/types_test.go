package meeting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRequest(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

	req := NewRequest(5, now)

	assert.Equal(t, "5", req.RequestID)
	assert.Equal(t, now, req.Start)
	assert.Equal(t, now.Add(time.Hour), req.End)
	assert.Equal(t, "hangoutsMeet", req.SolutionType)
}

func TestNewRequest_LargeIdentifier(t *testing.T) {
	req := NewRequest(18446744073709551615, time.Now())
	assert.Equal(t, "18446744073709551615", req.RequestID)
}
