package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGroup is off the production group so a running server does not bleed
// into the tests.
const testGroup = "239.255.1.99:16790"

func TestPublishSubscribe_Loopback(t *testing.T) {
	sub, err := Subscribe(testGroup)
	if err != nil {
		t.Skipf("multicast unavailable in this environment: %v", err)
	}
	defer sub.Close()

	pub, err := NewPublisher(testGroup)
	require.NoError(t, err)
	defer pub.Close()

	// Delivery is best-effort; resend until the subscriber sees one or the
	// budget runs out.
	deadline := time.After(3 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	require.NoError(t, pub.Publish("mario guessed \"strawberry\" in 2 attempts"))
	for {
		select {
		case msg := <-sub.Messages():
			assert.Equal(t, "mario guessed \"strawberry\" in 2 attempts", msg)
			return
		case <-ticker.C:
			require.NoError(t, pub.Publish("mario guessed \"strawberry\" in 2 attempts"))
		case <-deadline:
			t.Skip("no multicast loopback in this environment")
		}
	}
}

func TestPublish_TruncatesOversizedMessage(t *testing.T) {
	pub, err := NewPublisher(testGroup)
	require.NoError(t, err)
	defer pub.Close()

	big := make([]byte, maxDatagramSize*2)
	for i := range big {
		big[i] = 'a'
	}
	assert.NoError(t, pub.Publish(string(big)))
}

func TestSubscriber_CloseEndsStream(t *testing.T) {
	sub, err := Subscribe(testGroup)
	if err != nil {
		t.Skipf("multicast unavailable in this environment: %v", err)
	}

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close(), "close is idempotent")

	select {
	case _, ok := <-sub.Messages():
		assert.False(t, ok, "stream must end after close")
	case <-time.After(2 * time.Second):
		t.Fatal("message stream did not close")
	}
}

func TestNewPublisher_BadGroup(t *testing.T) {
	_, err := NewPublisher("not-a-group")
	assert.Error(t, err)
}
