package handlers

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/checkin"
	"github.com/Freeeeeet/attendance_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTokenQR(t *testing.T) {
	payload := checkin.Encode(model.CheckInToken{
		SessionID: "sess_1",
		CourseID:  "sub_1",
		IssuedAt:  time.UnixMilli(1_700_000_000_000),
		Validity:  65 * time.Second,
	})

	data, err := RenderTokenQR(payload)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, qrImageSize, img.Bounds().Dx())
	assert.Equal(t, qrImageSize, img.Bounds().Dy())
}

func TestRenderTokenQRRejectsEmptyPayload(t *testing.T) {
	_, err := RenderTokenQR("")
	assert.Error(t, err)
}
