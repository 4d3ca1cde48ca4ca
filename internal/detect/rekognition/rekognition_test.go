package rekognition

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilworks/faceveil/internal/media"
)

// mockAPI is a func-backed stand-in for the Rekognition client.
type mockAPI struct {
	detectFacesFunc func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

func (m *mockAPI) DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
	if m.detectFacesFunc != nil {
		return m.detectFacesFunc(ctx, params, optFns...)
	}
	return &rekognition.DetectFacesOutput{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFrame() *media.Frame {
	f := media.NewFrame(640, 480)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			f.Set(x, y, byte(x), byte(y), byte(x+y))
		}
	}
	return f
}

func TestDetectFacesMapsRatioBoxes(t *testing.T) {
	mock := &mockAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			require.NotEmpty(t, params.Image.Bytes, "frame must be JPEG encoded")
			return &rekognition.DetectFacesOutput{
				FaceDetails: []types.FaceDetail{
					{
						BoundingBox: &types.BoundingBox{
							Left:   aws.Float32(0.25),
							Top:    aws.Float32(0.25),
							Width:  aws.Float32(0.125),
							Height: aws.Float32(0.25),
						},
						Confidence: aws.Float32(99.9),
					},
				},
			}, nil
		},
	}
	d := New(mock, WithLogger(testLogger()))

	regions, err := d.DetectFaces(context.Background(), testFrame())
	require.NoError(t, err)
	require.Len(t, regions, 1)

	// Raw box is (160,120,80,120) in pixels; margins are 12 and 18.
	assert.Equal(t, 148, regions[0].X)
	assert.Equal(t, 102, regions[0].Y)
	assert.Equal(t, 104, regions[0].Width)
	assert.Equal(t, 156, regions[0].Height)
	assert.InDelta(t, 0.999, regions[0].Confidence, 1e-9)
}

func TestDetectFacesFiltersLowConfidence(t *testing.T) {
	mock := &mockAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			return &rekognition.DetectFacesOutput{
				FaceDetails: []types.FaceDetail{
					{
						BoundingBox: &types.BoundingBox{Left: aws.Float32(0.1), Top: aws.Float32(0.1), Width: aws.Float32(0.1), Height: aws.Float32(0.1)},
						Confidence:  aws.Float32(42),
					},
					{
						BoundingBox: &types.BoundingBox{Left: aws.Float32(0.5), Top: aws.Float32(0.5), Width: aws.Float32(0.1), Height: aws.Float32(0.1)},
						Confidence:  aws.Float32(80),
					},
				},
			}, nil
		},
	}
	d := New(mock, WithLogger(testLogger()))

	regions, err := d.DetectFaces(context.Background(), testFrame())
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.InDelta(t, 0.8, regions[0].Confidence, 1e-9)
}

func TestDetectFacesNoFaces(t *testing.T) {
	d := New(&mockAPI{}, WithLogger(testLogger()))

	regions, err := d.DetectFaces(context.Background(), testFrame())
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestDetectFacesAPIError(t *testing.T) {
	mock := &mockAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			return nil, errors.New("connection reset")
		},
	}
	d := New(mock, WithLogger(testLogger()))

	_, err := d.DetectFaces(context.Background(), testFrame())
	assert.Error(t, err)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"access denied", "AccessDeniedException", ErrInvalidCredentials},
		{"throttled", "ThrottlingException", ErrThrottled},
		{"provisioned limit", "ProvisionedThroughputExceededException", ErrThrottled},
		{"invalid image", "InvalidImageFormatException", ErrInvalidImage},
		{"too large", "ImageTooLargeException", ErrInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError(&smithy.GenericAPIError{Code: tt.code, Message: "mock failure"})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	plain := errors.New("dial tcp: timeout")
	assert.ErrorIs(t, classifyError(plain), plain)
}

func TestValidateImage(t *testing.T) {
	assert.ErrorIs(t, validateImage(make([]byte, 10)), ErrInvalidImage)
	assert.ErrorIs(t, validateImage(make([]byte, maxImageSize+1)), ErrInvalidImage)
	assert.NoError(t, validateImage(make([]byte, 2048)))
}
