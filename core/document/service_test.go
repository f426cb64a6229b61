package document

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sanggar/tests"
)

// fakeBackend writes a dummy PDF to the job target unless told to fail.
type fakeBackend struct {
	name   string
	fail   Reason
	panics bool
	delay  time.Duration
	calls  int32
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) Convert(ctx context.Context, job Job) Outcome {
	atomic.AddInt32(&b.calls, 1)
	if b.panics {
		panic("boom")
	}
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return Failed(ReasonPrimaryTool, ctx.Err())
		}
	}
	if b.fail != "" {
		return Failed(b.fail, errors.New(b.name+" failed"))
	}
	if err := os.WriteFile(job.Target, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		return Failed(ReasonRenderFailure, err)
	}
	return Succeeded(job.Target)
}

func (b *fakeBackend) Calls() int { return int(atomic.LoadInt32(&b.calls)) }

type svcFixture struct {
	store    *testutil.CountingFS
	logger   *testutil.Logger
	primary  *fakeBackend
	fallback *fakeBackend
	svc      *Service
}

func setup(t *testing.T, opts ...Options) *svcFixture {
	fx := &svcFixture{
		store:    testutil.NewCountingFS(testutil.NewStore(t)),
		logger:   &testutil.Logger{},
		primary:  &fakeBackend{name: "primary"},
		fallback: &fakeBackend{name: "fallback"},
	}
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	fx.svc = NewService(fx.store, Chain{fx.primary, fx.fallback}, fx.logger, o)
	return fx
}

func TestService_ResolvePreviewPaths_nonWord(t *testing.T) {
	fx := setup(t)

	tests := []struct {
		name        string
		path        string
		contentType string
	}{
		{name: "image", path: "/materi/gambar/peta.png", contentType: "image/png"},
		{name: "pdf", path: "/materi/pdf/bab1.pdf", contentType: "application/pdf"},
		{name: "empty content type", path: "/materi/word/bab1.docx", contentType: ""},
		{name: "does not exist", path: "/nope/nope.png", contentType: "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fx.svc.ResolvePreviewPaths(context.Background(), tt.path, tt.contentType)
			assert.Equal(t, PreviewPaths{DisplayPath: tt.path, DownloadPath: tt.path}, got)
		})
	}
	assert.Zero(t, fx.store.Calls(), "non-Word uploads must not touch the filesystem")
	assert.Zero(t, fx.primary.Calls())
	assert.Zero(t, fx.fallback.Calls())
}

func TestService_ResolvePreviewPaths_sourceMissing(t *testing.T) {
	fx := setup(t)
	path := "/materi/word/hilang.doc"

	got := fx.svc.ResolvePreviewPaths(context.Background(), path, "application/msword")

	assert.Equal(t, PreviewPaths{DisplayPath: path, DownloadPath: path}, got)
	assert.Zero(t, fx.primary.Calls())
	assert.Zero(t, fx.fallback.Calls())
	assert.Equal(t, 1, fx.logger.Count("warn"))
	assert.Zero(t, fx.logger.Count("error"))
}

func TestService_ResolvePreviewPaths_outsideRoot(t *testing.T) {
	fx := setup(t)
	path := "../../etc/passwd.doc"

	got := fx.svc.ResolvePreviewPaths(context.Background(), path, "msword")

	assert.Equal(t, PreviewPaths{DisplayPath: path, DownloadPath: path}, got)
	assert.Zero(t, fx.primary.Calls())
}

func TestService_ResolvePreviewPaths_cacheHit(t *testing.T) {
	fx := setup(t)
	testutil.WriteDocx(t, fx.store.Store, "materi/word/bab1.docx", "Bab 1")
	testutil.WriteFile(t, fx.store.Store, "materi/pdf/bab1.pdf", []byte("%PDF-1.4 cached"))

	got := fx.svc.ResolvePreviewPaths(context.Background(), "/materi/word/bab1.docx", "word")

	assert.Equal(t, PreviewPaths{
		DisplayPath:    "/materi/pdf/bab1.pdf",
		DownloadPath:   "/materi/word/bab1.docx",
		IsPDFConverted: true,
	}, got)
	assert.Zero(t, fx.primary.Calls(), "cached pdf must not be reconverted")
	assert.Zero(t, fx.fallback.Calls())
}

func TestService_ResolvePreviewPaths_convertTwice(t *testing.T) {
	fx := setup(t)
	testutil.WriteDocx(t, fx.store.Store, "tugas/word/soal.docx", "Soal")

	first := fx.svc.ResolvePreviewPaths(context.Background(), "/tugas/word/soal.docx", "application/msword")
	second := fx.svc.ResolvePreviewPaths(context.Background(), "/tugas/word/soal.docx", "application/msword")

	want := PreviewPaths{
		DisplayPath:    "/tugas/pdf/soal.pdf",
		DownloadPath:   "/tugas/word/soal.docx",
		IsPDFConverted: true,
	}
	assert.Equal(t, want, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fx.primary.Calls(), "second call must be a cache hit")
	assert.Zero(t, fx.fallback.Calls())
	assert.FileExists(t, filepath.Join(fx.store.Root(), "tugas", "pdf", "soal.pdf"))
}

func TestService_ResolvePreviewPaths_fallbacks(t *testing.T) {
	tests := []struct {
		name          string
		primaryFail   Reason
		fallbackFail  Reason
		wantConverted bool
		wantFallback  int
		wantErrorLogs int
	}{
		{name: "primary succeeds", wantConverted: true},
		{name: "primary fails", primaryFail: ReasonPrimaryTool, wantConverted: true, wantFallback: 1},
		{name: "nothing extracted", primaryFail: ReasonPrimaryTool, fallbackFail: ReasonExtractionEmpty, wantFallback: 1, wantErrorLogs: 1},
		{name: "render fails", primaryFail: ReasonPrimaryTool, fallbackFail: ReasonRenderFailure, wantFallback: 1, wantErrorLogs: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := setup(t)
			fx.primary.fail = tt.primaryFail
			fx.fallback.fail = tt.fallbackFail
			testutil.WriteDocx(t, fx.store.Store, "word/a.docx", "A")

			got := fx.svc.ResolvePreviewPaths(context.Background(), "word/a.docx", "msword")

			assert.Equal(t, tt.wantConverted, got.IsPDFConverted)
			assert.Equal(t, "word/a.docx", got.DownloadPath)
			if tt.wantConverted {
				assert.Equal(t, "/pdf/a.pdf", got.DisplayPath)
			} else {
				assert.Equal(t, "word/a.docx", got.DisplayPath)
			}
			assert.Equal(t, 1, fx.primary.Calls())
			assert.Equal(t, tt.wantFallback, fx.fallback.Calls())
			assert.Equal(t, tt.wantErrorLogs, fx.logger.Count("error"))
		})
	}
}

func TestService_ResolvePreviewPaths_panicIsContained(t *testing.T) {
	fx := setup(t)
	fx.primary.panics = true
	testutil.WriteDocx(t, fx.store.Store, "word/a.docx", "A")

	var got PreviewPaths
	require.NotPanics(t, func() {
		got = fx.svc.ResolvePreviewPaths(context.Background(), "/word/a.docx", "msword")
	})
	assert.Equal(t, PreviewPaths{DisplayPath: "/word/a.docx", DownloadPath: "/word/a.docx"}, got)
	assert.Equal(t, 1, fx.logger.Count("error"))
}

func TestService_Convert_invalidateStale(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantCalls int
	}{
		{name: "immutable uploads", opts: Options{}, wantCalls: 0},
		{name: "stale pdf reconverted", opts: Options{InvalidateStale: true}, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := setup(t, tt.opts)
			src := testutil.WriteDocx(t, fx.store.Store, "materi/word/bab1.docx", "Bab 1 revisi")
			pdf := testutil.WriteFile(t, fx.store.Store, "materi/pdf/bab1.pdf", []byte("%PDF-1.4 old"))

			old := time.Now().Add(-time.Hour)
			require.NoError(t, os.Chtimes(pdf, old, old))
			require.NoError(t, os.Chtimes(src, time.Now(), time.Now()))

			got, err := fx.svc.Convert(context.Background(), "materi/word/bab1.docx")
			require.NoError(t, err)
			assert.Equal(t, pdf, got)
			assert.Equal(t, tt.wantCalls, fx.primary.Calls())
		})
	}
}

func TestService_Convert_concurrentRequestsShareConversion(t *testing.T) {
	fx := setup(t)
	fx.primary.delay = 50 * time.Millisecond
	testutil.WriteDocx(t, fx.store.Store, "word/rapor.docx", "Rapor")

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = fx.svc.ResolvePreviewPaths(context.Background(), "/word/rapor.docx", "msword").DisplayPath
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "/pdf/rapor.pdf", r)
	}
	assert.Equal(t, 1, fx.primary.Calls())
}

func TestService_ResolvePreviewPaths_callerCancelDoesNotFailOthers(t *testing.T) {
	fx := setup(t)
	fx.primary.delay = 200 * time.Millisecond
	testutil.WriteDocx(t, fx.store.Store, "word/a.docx", "A")

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	resA := make(chan PreviewPaths, 1)
	go func() { resA <- fx.svc.ResolvePreviewPaths(ctxA, "/word/a.docx", "msword") }()
	require.Eventually(t, func() bool { return fx.primary.Calls() == 1 }, time.Second, 5*time.Millisecond)

	resB := make(chan PreviewPaths, 1)
	go func() { resB <- fx.svc.ResolvePreviewPaths(context.Background(), "/word/a.docx", "msword") }()
	time.Sleep(20 * time.Millisecond) // let B join the running conversion
	cancelA()

	gotA := <-resA
	assert.False(t, gotA.IsPDFConverted)
	assert.Equal(t, "/word/a.docx", gotA.DisplayPath)

	gotB := <-resB
	assert.True(t, gotB.IsPDFConverted)
	assert.Equal(t, "/pdf/a.pdf", gotB.DisplayPath)

	assert.Equal(t, 1, fx.primary.Calls())
	assert.Zero(t, fx.fallback.Calls())
	assert.Zero(t, fx.logger.Count("error"))
}

func TestChain_Convert(t *testing.T) {
	dir := t.TempDir()
	job := Job{Source: filepath.Join(dir, "a.docx"), OutDir: dir, Target: filepath.Join(dir, "a.pdf")}

	t.Run("first success wins", func(t *testing.T) {
		first := &fakeBackend{name: "first", fail: ReasonPrimaryTool}
		second := &fakeBackend{name: "second"}
		third := &fakeBackend{name: "third"}

		path, failures := Chain{first, second, third}.Convert(context.Background(), job)

		assert.Equal(t, job.Target, path)
		require.Len(t, failures, 1)
		assert.Equal(t, "first", failures[0].Backend)
		assert.Equal(t, ReasonPrimaryTool, failures[0].Reason)
		assert.Zero(t, third.Calls())
	})

	t.Run("all fail", func(t *testing.T) {
		path, failures := Chain{
			&fakeBackend{name: "first", fail: ReasonPrimaryTool},
			&fakeBackend{name: "second", fail: ReasonExtractionEmpty},
		}.Convert(context.Background(), job)

		assert.Empty(t, path)
		require.Len(t, failures, 2)
		err := &ChainError{Failures: failures}
		assert.Contains(t, err.Error(), "all 2 conversion backends failed")
		assert.Contains(t, err.Error(), "second: fallback_extraction_empty")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		b := &fakeBackend{name: "first"}

		path, failures := Chain{b}.Convert(ctx, job)

		assert.Empty(t, path)
		require.Len(t, failures, 1)
		assert.Equal(t, ReasonUnexpected, failures[0].Reason)
		assert.ErrorIs(t, failures[0], context.Canceled)
		assert.Zero(t, b.Calls())
	})

	t.Run("empty chain", func(t *testing.T) {
		path, failures := Chain{}.Convert(context.Background(), job)
		assert.Empty(t, path)
		assert.Empty(t, failures)
		assert.Equal(t, "no conversion backend configured", (&ChainError{}).Error())
	})
}
