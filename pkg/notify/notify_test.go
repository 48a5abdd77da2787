package notify

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/offlinefirst/fnsolo/pkg/gesture"
)

func TestMultiFansOutInOrder(t *testing.T) {
	var calls []string
	m := Multi{
		Func(func(gesture.Trigger) { calls = append(calls, "first") }),
		nil, // tolerated
		Func(func(gesture.Trigger) { calls = append(calls, "second") }),
	}

	m.GestureDetected(gesture.Trigger{Held: 500 * time.Millisecond})
	require.Equal(t, []string{"first", "second"}, calls)
}

func TestLogNotifierWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	n := &LogNotifier{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	n.GestureDetected(gesture.Trigger{At: time.Now(), Held: 450 * time.Millisecond})
	require.Contains(t, buf.String(), "solo modifier gesture")
	require.Contains(t, buf.String(), "held")
}

func TestFuncNilReceiverIsSafe(t *testing.T) {
	var f Func
	require.NotPanics(t, func() { f.GestureDetected(gesture.Trigger{}) })
}
