package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"spreadpool/internal/normalize"
	"spreadpool/internal/season"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	regularBody    = `{"ss":[["Fri","7:00","Final",,"MIN","16","BUF","20",,,"56115",,"REG11","2013"]]}`
	postseasonBody = `{"ss":[["Sat","4:30","final overtime",0,"Baltimore Ravens","BAL","38","Denver Broncos","DEN","35",0,0,"55829",0,"CBS","POST22","2012"]]}`
)

func testCalendar() *season.Calendar {
	return &season.Calendar{
		Year:           2016,
		PreseasonStart: time.Date(2016, 8, 9, 0, 0, 0, 0, time.UTC),
		WeekOne:        time.Date(2016, 9, 6, 9, 0, 0, 0, time.UTC),
		RegularWeeks:   17,
	}
}

type feedServer struct {
	*httptest.Server
	regularHits    atomic.Int32
	postseasonHits atomic.Int32
	status         atomic.Int32
}

func newFeedServer(t *testing.T) *feedServer {
	fs := &feedServer{}
	fs.status.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("/scorestrip.json", func(w http.ResponseWriter, r *http.Request) {
		fs.regularHits.Add(1)
		w.WriteHeader(int(fs.status.Load()))
		w.Write([]byte(regularBody))
	})
	mux.HandleFunc("/postseason/scorestrip.json", func(w http.ResponseWriter, r *http.Request) {
		fs.postseasonHits.Add(1)
		w.WriteHeader(int(fs.status.Load()))
		w.Write([]byte(postseasonBody))
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func newTestClient(fs *feedServer, retries int) *ScoreboardClient {
	return NewScoreboardClient(Config{
		RegularURL:    fs.URL + "/scorestrip.json",
		PostseasonURL: fs.URL + "/postseason/scorestrip.json",
		Timeout:       5 * time.Second,
		MaxRetries:    retries,
		RetryDelay:    time.Millisecond,
	}, testCalendar(), normalize.DefaultPipeline())
}

func TestScoreboardClient_FetchRegular(t *testing.T) {
	fs := newFeedServer(t)
	c := newTestClient(fs, 0)

	scores, err := c.Fetch(context.Background(), 211)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	assert.Equal(t, 56115, scores[0].GameID)
	assert.Equal(t, 211, scores[0].Week)
	assert.Equal(t, int32(1), fs.regularHits.Load())
	assert.Equal(t, int32(0), fs.postseasonHits.Load())
}

func TestScoreboardClient_FetchPostseason(t *testing.T) {
	fs := newFeedServer(t)
	c := newTestClient(fs, 0)

	scores, err := c.Fetch(context.Background(), 322)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	assert.Equal(t, "Final Overtime", scores[0].GameStatus)
	assert.Equal(t, int32(1), fs.postseasonHits.Load())
}

func TestScoreboardClient_NonOKIsEmpty(t *testing.T) {
	fs := newFeedServer(t)
	fs.status.Store(http.StatusNotFound)
	c := newTestClient(fs, 2)

	scores, err := c.Fetch(context.Background(), 211)
	require.NoError(t, err)

	assert.Empty(t, scores)
	assert.Equal(t, int32(1), fs.regularHits.Load(), "404 is not retried")
}

func TestScoreboardClient_RetriesTransientStatus(t *testing.T) {
	fs := newFeedServer(t)
	fs.status.Store(http.StatusServiceUnavailable)
	c := newTestClient(fs, 2)

	scores, err := c.Fetch(context.Background(), 211)
	require.NoError(t, err)

	assert.Empty(t, scores)
	assert.Equal(t, int32(3), fs.regularHits.Load())
}

func TestScoreboardClient_SingleRequestByDefault(t *testing.T) {
	fs := newFeedServer(t)
	fs.status.Store(http.StatusServiceUnavailable)
	c := newTestClient(fs, 0)

	_, err := c.Fetch(context.Background(), 211)
	require.NoError(t, err)

	assert.Equal(t, int32(1), fs.regularHits.Load())
}

func TestScoreboardClient_NetworkFailureIsEmpty(t *testing.T) {
	fs := newFeedServer(t)
	c := newTestClient(fs, 0)
	fs.Close()

	scores, err := c.Fetch(context.Background(), 211)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestScoreboardClient_SaveIsNoop(t *testing.T) {
	fs := newFeedServer(t)
	c := newTestClient(fs, 0)

	n, err := c.Save(context.Background(), 211, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, "source", c.Name())
	assert.Equal(t, int32(0), fs.regularHits.Load())
}
