package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenzoDeriu/Wordle-3.0/internal/game"
)

func TestDecodeRequest_Credentials(t *testing.T) {
	frame, err := EncodeRequest(LoginRequest{Username: "mario", Password: "secret"})
	require.NoError(t, err)

	req, err := DecodeRequest(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, LoginRequest{Username: "mario", Password: "secret"}, req)
}

func TestDecodeRequest_Play(t *testing.T) {
	frame, err := EncodeRequest(PlayRequest{Guess: "strawberry"})
	require.NoError(t, err)
	assert.Len(t, frame, 4+game.WordLength)

	req, err := DecodeRequest(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, PlayRequest{Guess: "strawberry"}, req)
}

func TestEncodeRequest_RejectsWrongGuessLength(t *testing.T) {
	_, err := EncodeRequest(PlayRequest{Guess: "short"})
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestEncodeRequest_RejectsEmptyUsername(t *testing.T) {
	_, err := EncodeRequest(RegisterRequest{Username: "", Password: "pw"})
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestDecodeRequest_UnknownCode(t *testing.T) {
	frame := binary.BigEndian.AppendUint32(nil, 99)

	_, err := DecodeRequest(bytes.NewReader(frame))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestDecodeRequest_StringLengthOutOfRange(t *testing.T) {
	frame := binary.BigEndian.AppendUint32(nil, CodeRegister)
	frame = binary.BigEndian.AppendUint32(frame, maxStringLen+1)

	_, err := DecodeRequest(bytes.NewReader(frame))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestParseRequest_IncrementalDelivery(t *testing.T) {
	frame, err := EncodeRequest(RegisterRequest{Username: "mario", Password: "secret"})
	require.NoError(t, err)

	// Every strict prefix is incomplete, never malformed.
	for cut := 0; cut < len(frame); cut++ {
		_, _, err := ParseRequest(frame[:cut])
		assert.ErrorIs(t, err, ErrIncompleteFrame, "prefix of %d bytes", cut)
	}

	req, consumed, err := ParseRequest(frame)
	require.NoError(t, err)
	assert.Equal(t, len(frame), consumed)
	assert.Equal(t, RegisterRequest{Username: "mario", Password: "secret"}, req)
}

func TestParseRequest_ConsumesOnlyFirstFrame(t *testing.T) {
	first, err := EncodeRequest(RegisterRequest{Username: "mario", Password: "secret"})
	require.NoError(t, err)
	second, err := EncodeRequest(LoginRequest{Username: "mario", Password: "secret"})
	require.NoError(t, err)

	buf := append(append([]byte(nil), first...), second...)

	req, consumed, err := ParseRequest(buf)
	require.NoError(t, err)
	assert.Equal(t, len(first), consumed)
	assert.IsType(t, RegisterRequest{}, req)

	req, consumed, err = ParseRequest(buf[consumed:])
	require.NoError(t, err)
	assert.Equal(t, len(second), consumed)
	assert.IsType(t, LoginRequest{}, req)
}

func TestParseRequest_OversizedBuffer(t *testing.T) {
	_, _, err := ParseRequest(make([]byte, MaxFrameSize+1))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestDecodeLoginResponse(t *testing.T) {
	frame, err := EncodeResponse(LoginOK{Attempts: 4})
	require.NoError(t, err)

	resp, err := DecodeLoginResponse(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, LoginOK{Attempts: 4}, resp)

	frame, err = EncodeResponse(Nack{})
	require.NoError(t, err)

	resp, err = DecodeLoginResponse(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, Nack{}, resp)
}

func TestDecodePlayResponse_NonWinningCarriesNoDeadline(t *testing.T) {
	frame, err := EncodeResponse(PlayFeedback{Feedback: "X?+X?+X?+X", Won: false, Deadline: 12345})
	require.NoError(t, err)
	// Code plus the feedback only.
	assert.Len(t, frame, 4+game.WordLength)

	resp, err := DecodePlayResponse(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, PlayFeedback{Feedback: "X?+X?+X?+X"}, resp)
}

func TestDecodePlayResponse_WinningCarriesDeadline(t *testing.T) {
	frame, err := EncodeResponse(PlayFeedback{
		Feedback: game.WinningFeedback,
		Won:      true,
		Deadline: 1700000000000,
	})
	require.NoError(t, err)
	assert.Len(t, frame, 4+game.WordLength+8)

	resp, err := DecodePlayResponse(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, PlayFeedback{
		Feedback: game.WinningFeedback,
		Won:      true,
		Deadline: 1700000000000,
	}, resp)
}

func TestDecodePlayResponse_RejectionAndWordChanged(t *testing.T) {
	frame, err := EncodeResponse(PlayRejected{Deadline: 1700000000000})
	require.NoError(t, err)

	resp, err := DecodePlayResponse(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, PlayRejected{Deadline: 1700000000000}, resp)

	frame, err = EncodeResponse(WordChanged{})
	require.NoError(t, err)

	resp, err = DecodePlayResponse(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, WordChanged{}, resp)
}

func TestDecodeStatisticsResponse(t *testing.T) {
	records := []game.GameRecord{
		{Attempts: 3, Guessed: true, Word: "strawberry"},
		{Attempts: game.MaxAttempts, Guessed: false, Word: "appletrees"},
	}
	frame, err := EncodeResponse(Statistics{Records: records})
	require.NoError(t, err)

	stats, err := DecodeStatisticsResponse(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, records, stats.Records)
}

func TestDecodeStatisticsResponse_EmptyHistory(t *testing.T) {
	frame, err := EncodeResponse(Statistics{})
	require.NoError(t, err)

	stats, err := DecodeStatisticsResponse(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Empty(t, stats.Records)
}

func TestDecodeWordChanged_RejectsOtherCodes(t *testing.T) {
	frame, err := EncodeResponse(Ack{})
	require.NoError(t, err)

	err = DecodeWordChanged(bytes.NewReader(frame))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}
