package speech

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type staticSource []byte

func (s staticSource) Record(ctx context.Context) ([]byte, error) { return s, ctx.Err() }

func transcriptResponse(texts ...string) *speechpb.RecognizeResponse {
	resp := &speechpb.RecognizeResponse{}
	for _, t := range texts {
		resp.Results = append(resp.Results, &speechpb.SpeechRecognitionResult{
			Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: t, Confidence: 0.9}},
		})
	}
	return resp
}

func TestGoogleRecognizer_FirstAlternative(t *testing.T) {
	var got *speechpb.RecognizeRequest
	r := newGoogleRecognizer(staticSource("wav-bytes"), GoogleConfig{}, nil,
		func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			got = req
			return transcriptResponse(" For business ", "ignored"), nil
		})

	text, err := r.Recognize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "For business", text)

	require.NotNil(t, got)
	assert.Equal(t, "en-US", got.GetConfig().GetLanguageCode())
	assert.Equal(t, int32(16000), got.GetConfig().GetSampleRateHertz())
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, got.GetConfig().GetEncoding())
	assert.Equal(t, []byte("wav-bytes"), got.GetAudio().GetContent())
}

func TestGoogleRecognizer_NoResults(t *testing.T) {
	r := newGoogleRecognizer(staticSource("x"), GoogleConfig{}, nil,
		func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			return &speechpb.RecognizeResponse{}, nil
		})
	_, err := r.Recognize(context.Background())
	assert.ErrorIs(t, err, ErrNoSpeech)

	empty := newGoogleRecognizer(staticSource(nil), GoogleConfig{}, nil, nil)
	_, err = empty.Recognize(context.Background())
	assert.ErrorIs(t, err, ErrNoSpeech)
}

func TestGoogleRecognizer_RetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	r := newGoogleRecognizer(staticSource("x"), GoogleConfig{MaxRetries: 2}, nil,
		func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			if calls.Add(1) == 1 {
				return nil, status.Error(codes.Unavailable, "try again")
			}
			return transcriptResponse("Five days"), nil
		})
	r.backoff = time.Millisecond

	text, err := r.Recognize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Five days", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGoogleRecognizer_ErrorMapping(t *testing.T) {
	tests := []struct {
		code codes.Code
		want error
	}{
		{codes.PermissionDenied, ErrSpeechAuth},
		{codes.Unauthenticated, ErrSpeechAuth},
		{codes.DeadlineExceeded, context.DeadlineExceeded},
		{codes.Canceled, context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			r := newGoogleRecognizer(staticSource("x"), GoogleConfig{}, nil,
				func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
					return nil, status.Error(tt.code, "nope")
				})
			_, err := r.Recognize(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClientOptionsFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	assert.Empty(t, ClientOptionsFromEnv())

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/tmp/creds.json")
	assert.Len(t, ClientOptionsFromEnv(), 1)
}
