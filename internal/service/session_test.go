package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veilworks/faceveil/internal/audit"
	"github.com/veilworks/faceveil/internal/detect"
	detectmock "github.com/veilworks/faceveil/internal/detect/mock"
	"github.com/veilworks/faceveil/internal/domain"
	"github.com/veilworks/faceveil/internal/pipeline"
	"github.com/veilworks/faceveil/internal/ws"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, session *domain.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, message string, progress float64) error {
	return m.Called(ctx, id, status, message, progress).Error(0)
}

func (m *mockRepo) SetAnalysis(ctx context.Context, id uuid.UUID, schedule domain.Schedule) error {
	return m.Called(ctx, id, schedule).Error(0)
}

func (m *mockRepo) SetRenderPlan(ctx context.Context, id uuid.UUID, schedule domain.Schedule, strength int) error {
	return m.Called(ctx, id, schedule, strength).Error(0)
}

func (m *mockRepo) MarkCompleted(ctx context.Context, id uuid.UUID, message string) error {
	return m.Called(ctx, id, message).Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) Stats(ctx context.Context) (*domain.SessionStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionStats), args.Error(1)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(ctx context.Context, delivery *domain.WebhookDelivery) error {
	return m.Called(ctx, delivery).Error(0)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Post(ctx context.Context, url, eventType string, payload []byte) error {
	return m.Called(ctx, url, eventType, payload).Error(0)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveSource(id uuid.UUID, ext string, r io.Reader) (string, int64, error) {
	args := m.Called(id, ext, r)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func (m *mockStore) SourcePath(id uuid.UUID, ext string) string {
	return m.Called(id, ext).String(0)
}

func (m *mockStore) PreviewPath(id uuid.UUID) string {
	return m.Called(id).String(0)
}

func (m *mockStore) OutputPath(id uuid.UUID) string {
	return m.Called(id).String(0)
}

func (m *mockStore) Exists(path string) bool {
	return m.Called(path).Bool(0)
}

func (m *mockStore) Remove(id uuid.UUID) error {
	return m.Called(id).Error(0)
}

func (m *mockStore) Usage() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

type mockProber struct {
	mock.Mock
}

func (m *mockProber) Probe(ctx context.Context, path string) (*domain.Descriptor, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Descriptor), args.Error(1)
}

type mockPipeline struct {
	mock.Mock
}

func (m *mockPipeline) Analyze(ctx context.Context, detector detect.Detector, sourcePath string, onProgress pipeline.ProgressFunc) (*domain.Descriptor, domain.Schedule, error) {
	args := m.Called(ctx, detector, sourcePath, onProgress)
	var desc *domain.Descriptor
	if args.Get(0) != nil {
		desc = args.Get(0).(*domain.Descriptor)
	}
	var schedule domain.Schedule
	if args.Get(1) != nil {
		schedule = args.Get(1).(domain.Schedule)
	}
	return desc, schedule, args.Error(2)
}

func (m *mockPipeline) Render(ctx context.Context, sourcePath, outputPath string, schedule domain.Schedule, strength int, onProgress pipeline.ProgressFunc) error {
	return m.Called(ctx, sourcePath, outputPath, schedule, strength, onProgress).Error(0)
}

func (m *mockPipeline) Preview(ctx context.Context, sourcePath, outputPath string, schedule domain.Schedule, strength int, duration float64, onProgress pipeline.ProgressFunc) error {
	return m.Called(ctx, sourcePath, outputPath, schedule, strength, duration, onProgress).Error(0)
}

type recordingHub struct {
	mock.Mock
}

func (m *recordingHub) BroadcastToSession(sessionID uuid.UUID, eventType ws.EventType, data interface{}) {
	m.Called(sessionID, eventType, data)
}

type fixture struct {
	repo   *mockRepo
	queue  *mockQueue
	sender *mockSender
	store  *mockStore
	prober *mockProber
	pipe   *mockPipeline
	hub    *recordingHub
	svc    *SessionService
}

func newFixture() *fixture {
	f := &fixture{
		repo:   &mockRepo{},
		queue:  &mockQueue{},
		sender: &mockSender{},
		store:  &mockStore{},
		prober: &mockProber{},
		pipe:   &mockPipeline{},
		hub:    &recordingHub{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewSessionService(f.repo, f.queue, f.sender, f.store, f.prober, f.pipe, detectmock.New(), f.hub, &audit.NoOpLogger{}, logger)
	return f
}

func testSchedule() domain.Schedule {
	return domain.Schedule{
		0: {{X: 10, Y: 10, Width: 40, Height: 40, Confidence: 0.9}},
		5: {{X: 20, Y: 20, Width: 30, Height: 30, Confidence: 0.8}},
	}
}

func TestUpload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture()
		desc := &domain.Descriptor{FPS: 30, FrameCount: 90, Width: 640, Height: 480}

		f.store.On("SaveSource", mock.Anything, ".mp4", mock.Anything).Return("/data/x/original_video.mp4", int64(1024), nil)
		f.store.On("SourcePath", mock.Anything, ".mp4").Return("/data/x/original_video.mp4")
		f.prober.On("Probe", mock.Anything, "/data/x/original_video.mp4").Return(desc, nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		sess, err := f.svc.Upload(context.Background(), "input.mp4", "video/mp4", strings.NewReader("data"))
		require.NoError(t, err)

		assert.Equal(t, domain.StatusUploaded, sess.Status)
		assert.Equal(t, "input.mp4", sess.SourceName)
		assert.Equal(t, ".mp4", sess.SourceExt)
		assert.Equal(t, desc, sess.Descriptor)
		f.repo.AssertExpectations(t)
	})

	t.Run("rejects non-video content type", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.Upload(context.Background(), "input.txt", "text/plain", strings.NewReader("data"))
		assert.ErrorIs(t, err, domain.ErrNotVideo)
		f.store.AssertNotCalled(t, "SaveSource", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("removes files when probe fails", func(t *testing.T) {
		f := newFixture()

		f.store.On("SaveSource", mock.Anything, ".mp4", mock.Anything).Return("/data/x/original_video.mp4", int64(1024), nil)
		f.store.On("SourcePath", mock.Anything, ".mp4").Return("/data/x/original_video.mp4")
		f.prober.On("Probe", mock.Anything, mock.Anything).Return(nil, errors.New("unparseable container"))
		f.store.On("Remove", mock.Anything).Return(nil)

		_, err := f.svc.Upload(context.Background(), "input.mp4", "video/mp4", strings.NewReader("data"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedMedia)
		f.store.AssertCalled(t, "Remove", mock.Anything)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("removes files when create fails", func(t *testing.T) {
		f := newFixture()
		desc := &domain.Descriptor{FPS: 30, FrameCount: 90, Width: 640, Height: 480}

		f.store.On("SaveSource", mock.Anything, ".mp4", mock.Anything).Return("/data/x/original_video.mp4", int64(1024), nil)
		f.store.On("SourcePath", mock.Anything, ".mp4").Return("/data/x/original_video.mp4")
		f.prober.On("Probe", mock.Anything, mock.Anything).Return(desc, nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
		f.store.On("Remove", mock.Anything).Return(nil)

		_, err := f.svc.Upload(context.Background(), "input.mp4", "video/mp4", strings.NewReader("data"))
		assert.Error(t, err)
		f.store.AssertCalled(t, "Remove", mock.Anything)
	})
}

func TestStartAnalysis(t *testing.T) {
	t.Run("runs analysis to completion", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")
		schedule := testSchedule()

		done := make(chan struct{})

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.repo.On("UpdateStatus", mock.Anything, sess.ID, domain.StatusAnalyzing, "Analyzing video...", 10.0).Return(nil)
		f.repo.On("UpdateStatus", mock.Anything, sess.ID, domain.StatusAnalyzing, "Detecting faces...", 30.0).Return(nil)
		f.store.On("SourcePath", sess.ID, ".mp4").Return("/data/x/original_video.mp4")
		f.pipe.On("Analyze", mock.Anything, mock.Anything, "/data/x/original_video.mp4", mock.Anything).
			Return(&domain.Descriptor{FPS: 30, FrameCount: 90}, schedule, nil)
		f.repo.On("SetAnalysis", mock.Anything, sess.ID, schedule).Return(nil)
		f.repo.On("UpdateStatus", mock.Anything, sess.ID, domain.StatusAnalyzed, "Analysis completed", 100.0).
			Return(nil).
			Run(func(args mock.Arguments) { close(done) })
		f.hub.On("BroadcastToSession", sess.ID, mock.Anything, mock.Anything).Return()

		require.NoError(t, f.svc.StartAnalysis(context.Background(), sess.ID))

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("analysis did not finish")
		}
		f.repo.AssertExpectations(t)
	})

	t.Run("rejects illegal transition", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")
		sess.Status = domain.StatusCompleted

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)

		err := f.svc.StartAnalysis(context.Background(), sess.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("rejects concurrent operation on the same session", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")

		block := make(chan struct{})
		release := make(chan struct{})

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.repo.On("UpdateStatus", mock.Anything, sess.ID, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.store.On("SourcePath", sess.ID, ".mp4").Return("/data/x/original_video.mp4")
		f.pipe.On("Analyze", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, testSchedule(), nil).
			Run(func(args mock.Arguments) {
				close(block)
				<-release
			})
		f.repo.On("SetAnalysis", mock.Anything, sess.ID, mock.Anything).Return(nil)
		f.hub.On("BroadcastToSession", sess.ID, mock.Anything, mock.Anything).Return()

		require.NoError(t, f.svc.StartAnalysis(context.Background(), sess.ID))
		<-block

		err := f.svc.StartAnalysis(context.Background(), sess.ID)
		assert.ErrorIs(t, err, domain.ErrSessionBusy)
		close(release)
	})

	t.Run("records failure when detection fails", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")

		done := make(chan struct{})

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.repo.On("UpdateStatus", mock.Anything, sess.ID, domain.StatusAnalyzing, mock.Anything, mock.Anything).Return(nil)
		f.store.On("SourcePath", sess.ID, ".mp4").Return("/data/x/original_video.mp4")
		f.pipe.On("Analyze", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, nil, errors.New("decoder exploded"))
		f.repo.On("UpdateStatus", mock.Anything, sess.ID, domain.StatusError, mock.MatchedBy(func(msg string) bool {
			return strings.HasPrefix(msg, "Analysis failed:")
		}), 30.0).Return(nil).Run(func(args mock.Arguments) { close(done) })
		f.hub.On("BroadcastToSession", sess.ID, mock.Anything, mock.Anything).Return()

		require.NoError(t, f.svc.StartAnalysis(context.Background(), sess.ID))

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("failure was not recorded")
		}
	})
}

func TestAnalysis(t *testing.T) {
	t.Run("returns schedule once analyzed", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")
		sess.Status = domain.StatusAnalyzed
		sess.Schedule = testSchedule()

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)

		got, err := f.svc.Analysis(context.Background(), sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.Schedule, got.Schedule)
	})

	t.Run("not ready before analysis ran", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)

		_, err := f.svc.Analysis(context.Background(), sess.ID)
		assert.ErrorIs(t, err, domain.ErrAnalysisNotReady)
	})
}

func TestStartRender(t *testing.T) {
	t.Run("completes and posts webhook immediately", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")
		sess.Status = domain.StatusAnalyzed
		schedule := testSchedule()

		done := make(chan struct{})

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.repo.On("SetRenderPlan", mock.Anything, sess.ID, schedule, 15).Return(nil)
		f.repo.On("UpdateStatus", mock.Anything, sess.ID, domain.StatusProcessing, "Processing video...", 50.0).Return(nil)
		f.store.On("SourcePath", sess.ID, ".mp4").Return("/data/x/original_video.mp4")
		f.store.On("OutputPath", sess.ID).Return("/data/x/processed_video.mp4")
		f.pipe.On("Render", mock.Anything, "/data/x/original_video.mp4", "/data/x/processed_video.mp4", schedule, 15, mock.Anything).Return(nil)
		f.repo.On("MarkCompleted", mock.Anything, sess.ID, "Processing completed").Return(nil)
		f.sender.On("Post", mock.Anything, "https://example.com/hook", domain.WebhookEventCompleted, mock.Anything).
			Return(nil).
			Run(func(args mock.Arguments) { close(done) })
		f.hub.On("BroadcastToSession", sess.ID, mock.Anything, mock.Anything).Return()

		require.NoError(t, f.svc.StartRender(context.Background(), sess.ID, schedule, 15, "https://example.com/hook"))

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("render did not finish")
		}
		f.repo.AssertExpectations(t)
		f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	})

	t.Run("refused webhook lands in the retry queue", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")
		sess.Status = domain.StatusAnalyzed
		schedule := testSchedule()

		done := make(chan struct{})

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.repo.On("SetRenderPlan", mock.Anything, sess.ID, schedule, 15).Return(nil)
		f.repo.On("UpdateStatus", mock.Anything, sess.ID, domain.StatusProcessing, mock.Anything, mock.Anything).Return(nil)
		f.store.On("SourcePath", sess.ID, ".mp4").Return("/data/x/original_video.mp4")
		f.store.On("OutputPath", sess.ID).Return("/data/x/processed_video.mp4")
		f.pipe.On("Render", mock.Anything, mock.Anything, mock.Anything, schedule, 15, mock.Anything).Return(nil)
		f.repo.On("MarkCompleted", mock.Anything, sess.ID, "Processing completed").Return(nil)
		f.sender.On("Post", mock.Anything, "https://example.com/hook", domain.WebhookEventCompleted, mock.Anything).
			Return(errors.New("HTTP 503"))
		f.queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(d *domain.WebhookDelivery) bool {
			return d.URL == "https://example.com/hook" && d.SessionID == sess.ID && d.Attempts == 1
		})).Return(nil).Run(func(args mock.Arguments) { close(done) })
		f.hub.On("BroadcastToSession", sess.ID, mock.Anything, mock.Anything).Return()

		require.NoError(t, f.svc.StartRender(context.Background(), sess.ID, schedule, 15, "https://example.com/hook"))

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("refused delivery was not queued")
		}
	})

	t.Run("maps render progress into the upper half", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")
		sess.Status = domain.StatusAnalyzed
		schedule := testSchedule()

		done := make(chan struct{})
		var progressArgs []float64

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.repo.On("SetRenderPlan", mock.Anything, sess.ID, schedule, 15).Return(nil)
		f.repo.On("UpdateStatus", mock.Anything, sess.ID, domain.StatusProcessing, mock.Anything, mock.Anything).
			Return(nil).
			Run(func(args mock.Arguments) {
				progressArgs = append(progressArgs, args.Get(4).(float64))
			})
		f.store.On("SourcePath", sess.ID, ".mp4").Return("/data/x/original_video.mp4")
		f.store.On("OutputPath", sess.ID).Return("/data/x/processed_video.mp4")
		f.pipe.On("Render", mock.Anything, mock.Anything, mock.Anything, schedule, 15, mock.Anything).
			Return(nil).
			Run(func(args mock.Arguments) {
				onProgress := args.Get(5).(pipeline.ProgressFunc)
				onProgress(40)
				onProgress(100)
			})
		f.repo.On("MarkCompleted", mock.Anything, sess.ID, "Processing completed").
			Return(nil).
			Run(func(args mock.Arguments) { close(done) })
		f.hub.On("BroadcastToSession", sess.ID, mock.Anything, mock.Anything).Return()

		require.NoError(t, f.svc.StartRender(context.Background(), sess.ID, schedule, 15, ""))

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("render did not finish")
		}

		assert.Contains(t, progressArgs, 50.0)
		assert.Contains(t, progressArgs, 70.0)
		assert.Contains(t, progressArgs, 100.0)
	})

	t.Run("rejects out-of-range strength", func(t *testing.T) {
		f := newFixture()

		err := f.svc.StartRender(context.Background(), uuid.New(), testSchedule(), 51, "")
		assert.ErrorIs(t, err, domain.ErrInvalidStrength)
	})

	t.Run("rejects invalid schedule regions", func(t *testing.T) {
		f := newFixture()
		bad := domain.Schedule{0: {{X: 0, Y: 0, Width: -5, Height: 10, Confidence: 0.9}}}

		err := f.svc.StartRender(context.Background(), uuid.New(), bad, 15, "")
		assert.ErrorIs(t, err, domain.ErrInvalidSchedule)
	})

	t.Run("failure posts failed webhook", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")
		sess.Status = domain.StatusAnalyzed
		schedule := testSchedule()

		done := make(chan struct{})

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.repo.On("SetRenderPlan", mock.Anything, sess.ID, schedule, 15).Return(nil)
		f.repo.On("UpdateStatus", mock.Anything, sess.ID, domain.StatusProcessing, mock.Anything, mock.Anything).Return(nil)
		f.store.On("SourcePath", sess.ID, ".mp4").Return("/data/x/original_video.mp4")
		f.store.On("OutputPath", sess.ID).Return("/data/x/processed_video.mp4")
		f.pipe.On("Render", mock.Anything, mock.Anything, mock.Anything, schedule, 15, mock.Anything).
			Return(errors.New("encoder exploded"))
		f.repo.On("UpdateStatus", mock.Anything, sess.ID, domain.StatusError, mock.Anything, mock.Anything).Return(nil)
		f.sender.On("Post", mock.Anything, "https://example.com/hook", domain.WebhookEventFailed, mock.Anything).
			Return(nil).
			Run(func(args mock.Arguments) { close(done) })
		f.hub.On("BroadcastToSession", sess.ID, mock.Anything, mock.Anything).Return()

		require.NoError(t, f.svc.StartRender(context.Background(), sess.ID, schedule, 15, "https://example.com/hook"))

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("failure webhook was not posted")
		}
	})
}

func TestGeneratePreview(t *testing.T) {
	t.Run("renders synchronously and returns preview url", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")
		schedule := testSchedule()

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.store.On("SourcePath", sess.ID, ".mp4").Return("/data/x/original_video.mp4")
		f.store.On("Exists", "/data/x/original_video.mp4").Return(true)
		f.store.On("PreviewPath", sess.ID).Return("/data/x/preview.mp4")
		f.pipe.On("Preview", mock.Anything, "/data/x/original_video.mp4", "/data/x/preview.mp4", schedule, 20, 10.0, mock.Anything).Return(nil)
		f.hub.On("BroadcastToSession", sess.ID, ws.EventPreviewReady, mock.Anything).Return()

		url, err := f.svc.GeneratePreview(context.Background(), sess.ID, schedule, 20, 10)
		require.NoError(t, err)
		assert.Contains(t, url, sess.ID.String())
		assert.Contains(t, url, "preview-file")
		f.pipe.AssertExpectations(t)
	})

	t.Run("missing source file", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.store.On("SourcePath", sess.ID, ".mp4").Return("/data/x/original_video.mp4")
		f.store.On("Exists", "/data/x/original_video.mp4").Return(false)

		_, err := f.svc.GeneratePreview(context.Background(), sess.ID, testSchedule(), 20, 10)
		assert.ErrorIs(t, err, domain.ErrSourceNotFound)
	})

	t.Run("rejects out-of-range strength", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.GeneratePreview(context.Background(), uuid.New(), testSchedule(), 0, 10)
		assert.ErrorIs(t, err, domain.ErrInvalidStrength)
	})
}

func TestStatus(t *testing.T) {
	t.Run("completed session exposes download url", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")
		sess.Status = domain.StatusCompleted

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.store.On("PreviewPath", sess.ID).Return("/data/x/preview.mp4")
		f.store.On("Exists", "/data/x/preview.mp4").Return(true)

		result, err := f.svc.Status(context.Background(), sess.ID)
		require.NoError(t, err)
		assert.Contains(t, result.DownloadURL, "download")
		assert.Contains(t, result.PreviewURL, "preview-file")
	})

	t.Run("no urls before completion", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.store.On("PreviewPath", sess.ID).Return("/data/x/preview.mp4")
		f.store.On("Exists", "/data/x/preview.mp4").Return(false)

		result, err := f.svc.Status(context.Background(), sess.ID)
		require.NoError(t, err)
		assert.Empty(t, result.DownloadURL)
		assert.Empty(t, result.PreviewURL)
	})
}

func TestDownload(t *testing.T) {
	t.Run("serves processed file with derived name", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")
		sess.Status = domain.StatusCompleted

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.store.On("OutputPath", sess.ID).Return("/data/x/processed_video.mp4")
		f.store.On("Exists", "/data/x/processed_video.mp4").Return(true)

		path, name, err := f.svc.Download(context.Background(), sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "/data/x/processed_video.mp4", path)
		assert.Equal(t, "blurred_input.mp4", name)
	})

	t.Run("not ready before completion", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)

		_, _, err := f.svc.Download(context.Background(), sess.ID)
		assert.ErrorIs(t, err, domain.ErrOutputNotReady)
	})

	t.Run("not ready when file is gone", func(t *testing.T) {
		f := newFixture()
		sess := domain.NewSession("input.mp4", ".mp4")
		sess.Status = domain.StatusCompleted

		f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
		f.store.On("OutputPath", sess.ID).Return("/data/x/processed_video.mp4")
		f.store.On("Exists", "/data/x/processed_video.mp4").Return(false)

		_, _, err := f.svc.Download(context.Background(), sess.ID)
		assert.ErrorIs(t, err, domain.ErrOutputNotReady)
	})
}

func TestPreviewFile(t *testing.T) {
	f := newFixture()
	sess := domain.NewSession("input.mp4", ".mp4")

	f.repo.On("GetByID", mock.Anything, sess.ID).Return(sess, nil)
	f.store.On("PreviewPath", sess.ID).Return("/data/x/preview.mp4")
	f.store.On("Exists", "/data/x/preview.mp4").Return(false)

	_, err := f.svc.PreviewFile(context.Background(), sess.ID)
	assert.ErrorIs(t, err, domain.ErrPreviewNotReady)
}

func TestDelete(t *testing.T) {
	f := newFixture()
	id := uuid.New()

	f.repo.On("Delete", mock.Anything, id).Return(nil)
	f.store.On("Remove", id).Return(nil)

	require.NoError(t, f.svc.Delete(context.Background(), id))
	f.store.AssertCalled(t, "Remove", id)
}

func TestStats(t *testing.T) {
	f := newFixture()

	f.repo.On("Stats", mock.Anything).Return(&domain.SessionStats{TotalSessions: 4}, nil)
	f.store.On("Usage").Return(int64(2048), nil)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalSessions)
	assert.Equal(t, int64(2048), stats.StorageBytes)
}
