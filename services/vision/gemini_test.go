package visionsvc

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"net/http"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/vision"
	"github.com/trezcool/darasa/tests"
)

func pngImage(t *testing.T, w, h int) []byte {
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func newProvider(apiKey string) *GeminiProvider {
	conf := testutil.NewConfig()
	conf.Vision.APIKey = apiKey
	conf.Vision.BaseURL = "https://vision.test/"
	conf.Vision.Model = "flash"
	conf.Vision.MaxImageDimension = 100
	return NewGeminiProvider(conf, testutil.NewLogger())
}

func mockSend(t *testing.T, status int, body string, err error) *rest.Request {
	sent := new(rest.Request)
	sendFunc = func(_ context.Context, req rest.Request) (*rest.Response, error) {
		*sent = req
		if err != nil {
			return nil, err
		}
		return &rest.Response{StatusCode: status, Body: body}, nil
	}
	t.Cleanup(func() { sendFunc = rest.SendWithContext })
	return sent
}

func TestGeminiProvider_Generate(t *testing.T) {
	sent := mockSend(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"{\"mode\":"},{"text":"\"ROLL_NUMBER_LIST\"}"}]},"finishReason":"STOP"}]}`, nil)

	text, err := newProvider("secret").Generate(context.Background(), vision.Request{
		Image:    pngImage(t, 400, 200),
		MimeType: "image/png",
		Prompt:   "read the register",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"mode":"ROLL_NUMBER_LIST"}`, text)

	assert.Equal(t, rest.Post, sent.Method)
	assert.Equal(t, "https://vision.test/v1beta/models/flash:generateContent", sent.BaseURL)
	assert.Equal(t, "secret", sent.Headers["x-goog-api-key"])

	var body generateRequest
	require.NoError(t, sonic.Unmarshal(sent.Body, &body))
	require.Len(t, body.Contents, 1)
	require.Len(t, body.Contents[0].Parts, 2)
	assert.Equal(t, "read the register", body.Contents[0].Parts[0].Text)
	assert.Equal(t, "image/jpeg", body.Contents[0].Parts[1].InlineData.MimeType)
	assert.Equal(t, "application/json", body.GenerationConfig.ResponseMimeType)
}

func TestGeminiProvider_failures(t *testing.T) {
	img := pngImage(t, 10, 10)

	tests := []struct {
		name       string
		status     int
		body       string
		sendErr    error
		wantReason string
	}{
		{name: "transport", sendErr: errors.New("dial tcp: i/o timeout"), wantReason: "request failed"},
		{name: "non-success", status: http.StatusTooManyRequests, body: `{"error":"quota"}`, wantReason: "unexpected status 429"},
		{name: "bad envelope", status: http.StatusOK, body: `<html>`, wantReason: "malformed envelope"},
		{name: "blocked", status: http.StatusOK, body: `{"promptFeedback":{"blockReason":"SAFETY"}}`, wantReason: "request blocked"},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, wantReason: "empty response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSend(t, tt.status, tt.body, tt.sendErr)
			_, err := newProvider("secret").Generate(context.Background(), vision.Request{Image: img, Prompt: "p"})
			var pErr *vision.ProviderError
			require.True(t, errors.As(err, &pErr), "err = %v", err)
			assert.Equal(t, tt.wantReason, pErr.Reason)
		})
	}

	t.Run("missing credentials", func(t *testing.T) {
		sent := mockSend(t, http.StatusOK, "", nil)
		_, err := newProvider("").Generate(context.Background(), vision.Request{Image: img})
		require.True(t, vision.IsProviderError(err))
		assert.True(t, errors.Is(err, vision.ErrMissingCredentials))
		assert.Empty(t, sent.BaseURL, "nothing was sent")
	})

	t.Run("not an image", func(t *testing.T) {
		mockSend(t, http.StatusOK, "", nil)
		_, err := newProvider("secret").Generate(context.Background(), vision.Request{Image: []byte("plain text")})
		assert.True(t, core.IsValidationError(err))
	})
}

func TestPrepareImage(t *testing.T) {
	out, mimeType, err := PrepareImage(pngImage(t, 400, 200), 100)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	out, _, err = PrepareImage(pngImage(t, 40, 20), 100)
	require.NoError(t, err)
	img, _, err = image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx(), "small images keep their size")

	_, _, err = PrepareImage([]byte("nope"), 100)
	assert.Error(t, err)
}
