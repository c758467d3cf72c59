package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAI(t *testing.T) {
	before := testutil.ToFloat64(AIRequests.WithLabelValues("test_op", "success"))
	beforeErr := testutil.ToFloat64(AIRequests.WithLabelValues("test_op", "error"))

	ObserveAI("test_op", time.Now(), nil)
	ObserveAI("test_op", time.Now(), errors.New("boom"))
	ObserveAI("test_op", time.Now(), errors.New("boom"))

	assert.Equal(t, before+1, testutil.ToFloat64(AIRequests.WithLabelValues("test_op", "success")))
	assert.Equal(t, beforeErr+2, testutil.ToFloat64(AIRequests.WithLabelValues("test_op", "error")))
}

func TestTransition(t *testing.T) {
	before := testutil.ToFloat64(ViewTransitions.WithLabelValues("cry", "recording"))
	Transition("cry", "recording")
	assert.Equal(t, before+1, testutil.ToFloat64(ViewTransitions.WithLabelValues("cry", "recording")))
}
