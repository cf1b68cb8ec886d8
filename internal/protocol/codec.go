package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lorenzoDeriu/Wordle-3.0/internal/game"
)

// EncodeRequest serializes a request into a single wire frame.
//
// Postcondition: Returns a frame of at most MaxFrameSize bytes.
func EncodeRequest(req Request) ([]byte, error) {
	switch r := req.(type) {
	case RegisterRequest:
		return encodeCredentials(CodeRegister, r.Username, r.Password)
	case LoginRequest:
		return encodeCredentials(CodeLogin, r.Username, r.Password)
	case PlayRequest:
		if len(r.Guess) != game.WordLength {
			return nil, fmt.Errorf("%w: guess must be %d bytes, got %d", ErrMalformedFrame, game.WordLength, len(r.Guess))
		}
		buf := make([]byte, 0, 4+game.WordLength)
		buf = binary.BigEndian.AppendUint32(buf, CodePlay)
		return append(buf, r.Guess...), nil
	case ShareRequest:
		return binary.BigEndian.AppendUint32(nil, CodeShare), nil
	case LogoutRequest:
		return binary.BigEndian.AppendUint32(nil, CodeLogout), nil
	case StatisticsRequest:
		return binary.BigEndian.AppendUint32(nil, CodeSendStatistics), nil
	case WaitNextWordRequest:
		return binary.BigEndian.AppendUint32(nil, CodeWaitingNextWord), nil
	default:
		return nil, fmt.Errorf("%w: unknown request type %T", ErrMalformedFrame, req)
	}
}

func encodeCredentials(code uint32, username, password string) ([]byte, error) {
	if len(username) == 0 || len(username) > maxStringLen || len(password) > maxStringLen {
		return nil, fmt.Errorf("%w: credential length out of range", ErrMalformedFrame)
	}
	buf := make([]byte, 0, 4+4+len(username)+4+len(password))
	buf = binary.BigEndian.AppendUint32(buf, code)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(username)))
	buf = append(buf, username...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(password)))
	buf = append(buf, password...)
	return buf, nil
}

// DecodeRequest reads exactly one request frame from r, blocking until the
// frame is complete.
//
// Postcondition: Returns a Request, or an I/O error, or ErrMalformedFrame.
func DecodeRequest(r io.Reader) (Request, error) {
	code, err := readUint32(r)
	if err != nil {
		return nil, err
	}

	switch code {
	case CodeRegister, CodeLogin:
		username, err := readString(r)
		if err != nil {
			return nil, err
		}
		password, err := readString(r)
		if err != nil {
			return nil, err
		}
		if code == CodeRegister {
			return RegisterRequest{Username: username, Password: password}, nil
		}
		return LoginRequest{Username: username, Password: password}, nil
	case CodePlay:
		guess := make([]byte, game.WordLength)
		if _, err := io.ReadFull(r, guess); err != nil {
			return nil, fmt.Errorf("%w: short guess payload", ErrMalformedFrame)
		}
		return PlayRequest{Guess: string(guess)}, nil
	case CodeShare:
		return ShareRequest{}, nil
	case CodeLogout:
		return LogoutRequest{}, nil
	case CodeSendStatistics:
		return StatisticsRequest{}, nil
	case CodeWaitingNextWord:
		return WaitNextWordRequest{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown request code %d", ErrMalformedFrame, code)
	}
}

// ParseRequest decodes one request frame from the front of buf without
// blocking. It returns the request and the number of bytes consumed, or
// ErrIncompleteFrame when buf does not yet hold the full frame.
func ParseRequest(buf []byte) (Request, int, error) {
	if len(buf) > MaxFrameSize {
		return nil, 0, fmt.Errorf("%w: frame exceeds %d bytes", ErrMalformedFrame, MaxFrameSize)
	}
	if len(buf) < 4 {
		return nil, 0, ErrIncompleteFrame
	}
	code := binary.BigEndian.Uint32(buf)
	off := 4

	switch code {
	case CodeRegister, CodeLogin:
		username, n, err := parseString(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		password, n, err := parseString(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		if code == CodeRegister {
			return RegisterRequest{Username: username, Password: password}, off, nil
		}
		return LoginRequest{Username: username, Password: password}, off, nil
	case CodePlay:
		if len(buf) < off+game.WordLength {
			return nil, 0, ErrIncompleteFrame
		}
		return PlayRequest{Guess: string(buf[off : off+game.WordLength])}, off + game.WordLength, nil
	case CodeShare:
		return ShareRequest{}, off, nil
	case CodeLogout:
		return LogoutRequest{}, off, nil
	case CodeSendStatistics:
		return StatisticsRequest{}, off, nil
	case CodeWaitingNextWord:
		return WaitNextWordRequest{}, off, nil
	default:
		return nil, 0, fmt.Errorf("%w: unknown request code %d", ErrMalformedFrame, code)
	}
}

// EncodeResponse serializes a response into a single wire frame.
func EncodeResponse(resp Response) ([]byte, error) {
	switch r := resp.(type) {
	case Ack:
		return binary.BigEndian.AppendUint32(nil, CodeSuccess), nil
	case Nack:
		return binary.BigEndian.AppendUint32(nil, CodeFailure), nil
	case LoginOK:
		buf := binary.BigEndian.AppendUint32(nil, CodeSuccess)
		return binary.BigEndian.AppendUint32(buf, uint32(r.Attempts)), nil
	case PlayFeedback:
		if len(r.Feedback) != game.WordLength {
			return nil, fmt.Errorf("%w: feedback must be %d bytes", ErrMalformedFrame, game.WordLength)
		}
		buf := binary.BigEndian.AppendUint32(nil, CodeSuccess)
		buf = append(buf, r.Feedback...)
		if r.Won {
			buf = binary.BigEndian.AppendUint64(buf, uint64(r.Deadline))
		}
		return buf, nil
	case PlayRejected:
		buf := binary.BigEndian.AppendUint32(nil, CodeFailure)
		return binary.BigEndian.AppendUint64(buf, uint64(r.Deadline)), nil
	case WordChanged:
		return binary.BigEndian.AppendUint32(nil, CodeWordChanged), nil
	case Statistics:
		payload, err := json.Marshal(r.Records)
		if err != nil {
			return nil, fmt.Errorf("marshalling statistics: %w", err)
		}
		if 4+4+len(payload) > MaxFrameSize {
			return nil, fmt.Errorf("%w: statistics payload exceeds frame size", ErrMalformedFrame)
		}
		buf := binary.BigEndian.AppendUint32(nil, CodeSuccess)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(payload)))
		return append(buf, payload...), nil
	default:
		return nil, fmt.Errorf("%w: unknown response type %T", ErrMalformedFrame, resp)
	}
}

// DecodeSimpleResponse reads a bare SUCCESS/FAILURE frame (registration).
func DecodeSimpleResponse(r io.Reader) (Response, error) {
	code, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	switch code {
	case CodeSuccess:
		return Ack{}, nil
	case CodeFailure:
		return Nack{}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected response code %d", ErrMalformedFrame, code)
	}
}

// DecodeLoginResponse reads a login response: SUCCESS plus the attempt
// count, or a bare FAILURE.
func DecodeLoginResponse(r io.Reader) (Response, error) {
	code, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	switch code {
	case CodeSuccess:
		attempts, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		return LoginOK{Attempts: int32(attempts)}, nil
	case CodeFailure:
		return Nack{}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected response code %d", ErrMalformedFrame, code)
	}
}

// DecodePlayResponse reads a play response: feedback on SUCCESS (plus the
// deadline after a winning code), deadline on FAILURE, or WORD_CHANGED.
func DecodePlayResponse(r io.Reader) (Response, error) {
	code, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	switch code {
	case CodeSuccess:
		feedback := make([]byte, game.WordLength)
		if _, err := io.ReadFull(r, feedback); err != nil {
			return nil, fmt.Errorf("%w: short feedback payload", ErrMalformedFrame)
		}
		resp := PlayFeedback{Feedback: string(feedback)}
		if resp.Feedback == game.WinningFeedback {
			deadline, err := readUint64(r)
			if err != nil {
				return nil, err
			}
			resp.Won = true
			resp.Deadline = int64(deadline)
		}
		return resp, nil
	case CodeFailure:
		deadline, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		return PlayRejected{Deadline: int64(deadline)}, nil
	case CodeWordChanged:
		return WordChanged{}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected response code %d", ErrMalformedFrame, code)
	}
}

// DecodeStatisticsResponse reads a statistics response and unmarshals the
// JSON record list.
func DecodeStatisticsResponse(r io.Reader) (Statistics, error) {
	code, err := readUint32(r)
	if err != nil {
		return Statistics{}, err
	}
	if code != CodeSuccess {
		return Statistics{}, fmt.Errorf("%w: unexpected response code %d", ErrMalformedFrame, code)
	}
	length, err := readUint32(r)
	if err != nil {
		return Statistics{}, err
	}
	if length > MaxFrameSize {
		return Statistics{}, fmt.Errorf("%w: statistics payload length %d", ErrMalformedFrame, length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Statistics{}, fmt.Errorf("%w: short statistics payload", ErrMalformedFrame)
	}
	var records []game.GameRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return Statistics{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return Statistics{Records: records}, nil
}

// DecodeWordChanged reads a frame that must be WORD_CHANGED (the reply to
// WAITING_NEXT_WORD).
func DecodeWordChanged(r io.Reader) error {
	code, err := readUint32(r)
	if err != nil {
		return err
	}
	if code != CodeWordChanged {
		return fmt.Errorf("%w: unexpected response code %d", ErrMalformedFrame, code)
	}
	return nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func readString(r io.Reader) (string, error) {
	length, err := readUint32(r)
	if err != nil {
		return "", err
	}
	if length == 0 || length > maxStringLen {
		return "", fmt.Errorf("%w: string length %d out of range", ErrMalformedFrame, length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: short string payload", ErrMalformedFrame)
	}
	return string(buf), nil
}

func parseString(buf []byte) (string, int, error) {
	if len(buf) < 4 {
		return "", 0, ErrIncompleteFrame
	}
	length := binary.BigEndian.Uint32(buf)
	if length == 0 || length > maxStringLen {
		return "", 0, fmt.Errorf("%w: string length %d out of range", ErrMalformedFrame, length)
	}
	if len(buf) < 4+int(length) {
		return "", 0, ErrIncompleteFrame
	}
	return string(buf[4 : 4+length]), 4 + int(length), nil
}
