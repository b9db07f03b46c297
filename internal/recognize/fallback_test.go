package recognize_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"daicho/internal/port"
	"daicho/internal/recognize"
	"daicho/mocks"
)

func recognizedBy(provider string) []port.Observation {
	return []port.Observation{
		{FileName: "P1010001.jpg", HasBoard: true, DetectedText: provider},
	}
}

func visionBatch() []port.VisionPhoto {
	return []port.VisionPhoto{
		{FileName: "P1010001.jpg", ContentType: "image/jpeg", FileBytes: []byte("test")},
	}
}

func TestFallbackRecognizer_FirstSucceeds(t *testing.T) {
	r1 := new(mocks.MockPhotoRecognizer)
	r2 := new(mocks.MockPhotoRecognizer)
	r3 := new(mocks.MockPhotoRecognizer)

	photos := visionBatch()
	r1.On("Recognize", mock.Anything, photos, mock.Anything).Return(recognizedBy("claude"), nil)

	fr := recognize.NewFallbackRecognizer(
		[]port.PhotoRecognizer{r1, r2, r3},
		[]string{"claude", "gemini", "openai"},
	)

	result, err := fr.Recognize(context.Background(), photos, port.VisionHints{})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "claude", result[0].DetectedText)
	r2.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything, mock.Anything)
	r3.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything, mock.Anything)
}

func TestFallbackRecognizer_FirstFails_SecondSucceeds(t *testing.T) {
	r1 := new(mocks.MockPhotoRecognizer)
	r2 := new(mocks.MockPhotoRecognizer)

	photos := visionBatch()
	r1.On("Recognize", mock.Anything, photos, mock.Anything).Return(nil, errors.New("generic error"))
	r2.On("Recognize", mock.Anything, photos, mock.Anything).Return(recognizedBy("gemini"), nil)

	fr := recognize.NewFallbackRecognizer(
		[]port.PhotoRecognizer{r1, r2},
		[]string{"claude", "gemini"},
	)

	result, err := fr.Recognize(context.Background(), photos, port.VisionHints{})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "gemini", result[0].DetectedText)
}

func TestFallbackRecognizer_FirstRateLimited_SecondSucceeds(t *testing.T) {
	r1 := new(mocks.MockPhotoRecognizer)
	r2 := new(mocks.MockPhotoRecognizer)

	photos := visionBatch()
	rlErr := recognize.NewRateLimitError("claude", errors.New("429"), 60)
	r1.On("Recognize", mock.Anything, photos, mock.Anything).Return(nil, rlErr)
	r2.On("Recognize", mock.Anything, photos, mock.Anything).Return(recognizedBy("gemini"), nil)

	fr := recognize.NewFallbackRecognizer(
		[]port.PhotoRecognizer{r1, r2},
		[]string{"claude", "gemini"},
	)

	result, err := fr.Recognize(context.Background(), photos, port.VisionHints{})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "gemini", result[0].DetectedText)
}

func TestFallbackRecognizer_TwoRateLimited_ThirdSucceeds(t *testing.T) {
	r1 := new(mocks.MockPhotoRecognizer)
	r2 := new(mocks.MockPhotoRecognizer)
	r3 := new(mocks.MockPhotoRecognizer)

	photos := visionBatch()
	r1.On("Recognize", mock.Anything, photos, mock.Anything).Return(nil, recognize.NewRateLimitError("claude", errors.New("429"), 60))
	r2.On("Recognize", mock.Anything, photos, mock.Anything).Return(nil, recognize.NewRateLimitError("gemini", errors.New("429"), 30))
	r3.On("Recognize", mock.Anything, photos, mock.Anything).Return(recognizedBy("openai"), nil)

	fr := recognize.NewFallbackRecognizer(
		[]port.PhotoRecognizer{r1, r2, r3},
		[]string{"claude", "gemini", "openai"},
	)

	result, err := fr.Recognize(context.Background(), photos, port.VisionHints{})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "openai", result[0].DetectedText)
}

func TestFallbackRecognizer_AllRateLimited(t *testing.T) {
	r1 := new(mocks.MockPhotoRecognizer)
	r2 := new(mocks.MockPhotoRecognizer)

	photos := visionBatch()
	r1.On("Recognize", mock.Anything, photos, mock.Anything).Return(nil, recognize.NewRateLimitError("claude", errors.New("429"), 60))
	r2.On("Recognize", mock.Anything, photos, mock.Anything).Return(nil, recognize.NewRateLimitError("gemini", errors.New("429"), 30))

	fr := recognize.NewFallbackRecognizer(
		[]port.PhotoRecognizer{r1, r2},
		[]string{"claude", "gemini"},
	)

	result, err := fr.Recognize(context.Background(), photos, port.VisionHints{})

	assert.Nil(t, result)
	assert.Error(t, err)

	var rlErr *recognize.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "all", rlErr.Provider)
}

func TestFallbackRecognizer_AllFail_NonRateLimit(t *testing.T) {
	r1 := new(mocks.MockPhotoRecognizer)
	r2 := new(mocks.MockPhotoRecognizer)

	photos := visionBatch()
	r1.On("Recognize", mock.Anything, photos, mock.Anything).Return(nil, errors.New("error 1"))
	r2.On("Recognize", mock.Anything, photos, mock.Anything).Return(nil, errors.New("error 2"))

	fr := recognize.NewFallbackRecognizer(
		[]port.PhotoRecognizer{r1, r2},
		[]string{"claude", "gemini"},
	)

	result, err := fr.Recognize(context.Background(), photos, port.VisionHints{})

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "all recognizers failed")

	var rlErr *recognize.RateLimitError
	assert.False(t, errors.As(err, &rlErr))
}

func TestFallbackRecognizer_CircuitAutoCloses(t *testing.T) {
	r1 := new(mocks.MockPhotoRecognizer)
	r2 := new(mocks.MockPhotoRecognizer)

	photos := visionBatch()

	// First call: r1 rate limited with 1s retry, r2 succeeds
	r1.On("Recognize", mock.Anything, photos, mock.Anything).Return(nil, recognize.NewRateLimitError("claude", errors.New("429"), 1)).Once()
	r2.On("Recognize", mock.Anything, photos, mock.Anything).Return(recognizedBy("gemini"), nil).Once()

	fr := recognize.NewFallbackRecognizer(
		[]port.PhotoRecognizer{r1, r2},
		[]string{"claude", "gemini"},
	)

	result, err := fr.Recognize(context.Background(), photos, port.VisionHints{})
	assert.NoError(t, err)
	assert.Equal(t, "gemini", result[0].DetectedText)

	// Wait for circuit to auto-close
	time.Sleep(1100 * time.Millisecond)

	// Second call: r1 should be retried and succeed
	r1.On("Recognize", mock.Anything, photos, mock.Anything).Return(recognizedBy("claude"), nil).Once()

	result, err = fr.Recognize(context.Background(), photos, port.VisionHints{})
	assert.NoError(t, err)
	assert.Equal(t, "claude", result[0].DetectedText)
}

func TestFallbackRecognizer_SkipsOpenCircuit(t *testing.T) {
	r1 := new(mocks.MockPhotoRecognizer)
	r2 := new(mocks.MockPhotoRecognizer)

	photos := visionBatch()

	// First call: r1 rate limited with 60s, r2 succeeds
	r1.On("Recognize", mock.Anything, photos, mock.Anything).Return(nil, recognize.NewRateLimitError("claude", errors.New("429"), 60)).Once()
	r2.On("Recognize", mock.Anything, photos, mock.Anything).Return(recognizedBy("gemini"), nil)

	fr := recognize.NewFallbackRecognizer(
		[]port.PhotoRecognizer{r1, r2},
		[]string{"claude", "gemini"},
	)

	result, err := fr.Recognize(context.Background(), photos, port.VisionHints{})
	assert.NoError(t, err)
	assert.Equal(t, "gemini", result[0].DetectedText)

	// Second call immediately: r1 should be skipped (circuit still open)
	result, err = fr.Recognize(context.Background(), photos, port.VisionHints{})
	assert.NoError(t, err)
	assert.Equal(t, "gemini", result[0].DetectedText)

	// r1 should have been called only once total
	r1.AssertNumberOfCalls(t, "Recognize", 1)
}

func TestFallbackRecognizer_SingleRecognizer(t *testing.T) {
	r1 := new(mocks.MockPhotoRecognizer)

	photos := visionBatch()
	r1.On("Recognize", mock.Anything, photos, mock.Anything).Return(recognizedBy("claude"), nil)

	fr := recognize.NewFallbackRecognizer(
		[]port.PhotoRecognizer{r1},
		[]string{"claude"},
	)

	result, err := fr.Recognize(context.Background(), photos, port.VisionHints{})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "claude", result[0].DetectedText)
}

func TestFallbackRecognizer_ConcurrentSafety(t *testing.T) {
	r1 := new(mocks.MockPhotoRecognizer)
	r2 := new(mocks.MockPhotoRecognizer)

	photos := visionBatch()
	r1.On("Recognize", mock.Anything, photos, mock.Anything).Return(nil, recognize.NewRateLimitError("claude", errors.New("429"), 5)).Maybe()
	r2.On("Recognize", mock.Anything, photos, mock.Anything).Return(recognizedBy("gemini"), nil).Maybe()

	fr := recognize.NewFallbackRecognizer(
		[]port.PhotoRecognizer{r1, r2},
		[]string{"claude", "gemini"},
	)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := fr.Recognize(context.Background(), photos, port.VisionHints{})
			assert.NoError(t, err)
			assert.NotNil(t, result)
		}()
	}
	wg.Wait()
}
