package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/abhisek/borderdrill/internal/logger"
)

// ErrSpeechAuth means Cloud Speech rejected the credentials.
var ErrSpeechAuth = errors.New("speech service rejected credentials")

// GoogleConfig controls Cloud Speech recognition.
type GoogleConfig struct {
	LanguageCode    string
	SampleRateHertz int
	MaxRetries      int
}

func (c GoogleConfig) withDefaults() GoogleConfig {
	if c.LanguageCode == "" {
		c.LanguageCode = "en-US"
	}
	if c.SampleRateHertz <= 0 {
		c.SampleRateHertz = 16000
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// GoogleRecognizer records an utterance from an AudioSource and
// transcribes it with Cloud Speech synchronous recognition.
type GoogleRecognizer struct {
	source    AudioSource
	cfg       GoogleConfig
	log       *logger.Logger
	recognize recognizeFunc
	close     func() error
	backoff   time.Duration
}

// ClientOptionsFromEnv reads GOOGLE_APPLICATION_CREDENTIALS_JSON (inline
// JSON) or GOOGLE_APPLICATION_CREDENTIALS (file path).
func ClientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

// NewGoogleRecognizer dials Cloud Speech. Extra options are appended to
// the ones read from the environment.
func NewGoogleRecognizer(ctx context.Context, source AudioSource, cfg GoogleConfig, log *logger.Logger, opts ...option.ClientOption) (*GoogleRecognizer, error) {
	client, err := gspeech.NewClient(ctx, append(ClientOptionsFromEnv(), opts...)...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	r := newGoogleRecognizer(source, cfg, log, func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return client.Recognize(ctx, req)
	})
	r.close = client.Close
	return r, nil
}

func newGoogleRecognizer(source AudioSource, cfg GoogleConfig, log *logger.Logger, fn recognizeFunc) *GoogleRecognizer {
	if log == nil {
		log = logger.Nop()
	}
	return &GoogleRecognizer{
		source:    source,
		cfg:       cfg.withDefaults(),
		log:       log.With("service", "speech.google"),
		recognize: fn,
		backoff:   500 * time.Millisecond,
	}
}

// Close releases the underlying client.
func (g *GoogleRecognizer) Close() error {
	if g.close == nil {
		return nil
	}
	return g.close()
}

// Recognize records one utterance and returns the top transcript of the
// first result.
func (g *GoogleRecognizer) Recognize(ctx context.Context) (string, error) {
	audio, err := g.source.Record(ctx)
	if err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", ErrNoSpeech
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            int32(g.cfg.SampleRateHertz),
			AudioChannelCount:          1,
			LanguageCode:               g.cfg.LanguageCode,
			EnableAutomaticPunctuation: true,
			MaxAlternatives:            1,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := g.recognizeWithRetry(ctx, req)
	if err != nil {
		return "", mapSpeechError(err)
	}

	for _, res := range resp.GetResults() {
		if alts := res.GetAlternatives(); len(alts) > 0 {
			return strings.TrimSpace(alts[0].GetTranscript()), nil
		}
	}
	return "", ErrNoSpeech
}

func (g *GoogleRecognizer) recognizeWithRetry(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	backoff := g.backoff
	var last error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := g.recognize(ctx, req)
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted {
			return nil, err
		}
		if attempt == g.cfg.MaxRetries {
			break
		}
		g.log.Debug("speech recognize retry", "attempt", attempt+1, "code", code.String())
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, last
}

func mapSpeechError(err error) error {
	switch status.Code(err) {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %v", ErrSpeechAuth, err)
	}
	return fmt.Errorf("speech recognize: %w", err)
}
