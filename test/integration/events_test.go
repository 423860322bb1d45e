package integration

import (
	"bufio"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStreamSignalsVotes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	poll := createPoll(t, app, "Lunch?", []string{"Pizza", "Sushi"})

	resp, err := http.Get(app.Server.URL + "/polls/" + poll.ID.String() + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := make(chan string, 4)
	go func() {
		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				close(frames)
				return
			}
			if strings.HasPrefix(line, "data: ") {
				frames <- strings.TrimSpace(line)
			}
		}
	}()

	// Give the stream a moment to register before the vote lands.
	time.Sleep(200 * time.Millisecond)

	client := newVoterClient(t)
	_, status := votePoll(t, app, client, poll.ID, poll.Options[0].ID)
	require.Equal(t, http.StatusOK, status)

	select {
	case frame, ok := <-frames:
		require.True(t, ok, "stream closed before delivering an event")
		assert.True(t, strings.HasPrefix(frame, "data: "), "unexpected frame %q", frame)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received after an admitted vote")
	}

	// A rejected vote must not signal.
	_, status = votePoll(t, app, client, poll.ID, poll.Options[0].ID)
	require.Equal(t, http.StatusConflict, status)

	select {
	case frame := <-frames:
		t.Fatalf("unexpected event %q after a rejected vote", frame)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestEventStreamUnknownPoll(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	resp, err := http.Get(app.Server.URL + "/polls/" + uuid.NewString() + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
