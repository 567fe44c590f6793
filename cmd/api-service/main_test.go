package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/redditlink/internal/api/handler"
	"github.com/cuongbtq/redditlink/internal/api/router"
	"github.com/cuongbtq/redditlink/internal/job"
	"github.com/cuongbtq/redditlink/internal/media"
	"github.com/cuongbtq/redditlink/shared/logger"
)

type blockingEngine struct{}

func (blockingEngine) Fetch(ctx context.Context, req job.FetchRequest, sink job.ProgressSink) (string, error) {
	sink.Report(job.ProgressEvent{Downloaded: 10, Total: 100})
	<-ctx.Done()
	return "", ctx.Err()
}

func TestShutdown_EndsOpenProgressStreams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.Discard()
	validator := media.NewValidator(nil)

	svc := job.NewService(&job.Config{
		Logger:       log,
		Engine:       blockingEngine{},
		Validator:    validator,
		DownloadsDir: t.TempDir(),
		Concurrency:  1,
		QueueSize:    4,
		JobTimeout:   time.Minute,
		PollInterval: 5 * time.Millisecond,
	})
	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()
	svc.Start(rootCtx)

	r := router.SetupRouter(&handler.Dependencies{
		Logger:    log,
		Jobs:      svc,
		Validator: validator,
	}, &router.Options{
		ServiceName: "redditlink-api",
		CORSOrigin:  regexp.MustCompile(`^chrome-extension://.*$`),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: r}
	go srv.Serve(ln)
	base := "http://" + ln.Addr().String()

	// one running job and one still queued behind it
	var ids []string
	for _, u := range []string{"https://youtu.be/a", "https://youtu.be/b"} {
		body, _ := json.Marshal(map[string]string{"url": u})
		resp, err := http.Post(base+"/download", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		var created map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
		resp.Body.Close()
		ids = append(ids, created["job_id"])
	}

	require.Eventually(t, func() bool {
		got, _ := svc.Get(ids[0])
		return got.Status == job.StatusRunning
	}, 2*time.Second, 5*time.Millisecond)

	resp, err := http.Get(base + "/progress/" + ids[0])
	require.NoError(t, err)
	defer resp.Body.Close()
	reader := bufio.NewReader(resp.Body)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	started := time.Now()
	err = shutdown(ctx, srv, stop, svc, log)

	require.NoError(t, err)
	assert.Less(t, time.Since(started), 2*time.Second)

	rest, _ := io.ReadAll(reader)
	assert.Contains(t, string(rest), `"status":"error"`)
	assert.Contains(t, string(rest), "context canceled")

	for _, id := range ids {
		got, ok := svc.Get(id)
		require.True(t, ok)
		assert.Equal(t, job.StatusError, got.Status)
	}
}
