// Package codec turns a list of installed mods into a short token that can be pasted anywhere, and back.
//
// A current token is "vs1." followed by unpadded URL-safe base64 of the zstd compressed
// "id|version;id|version" text. Tokens without a prefix are read as plain standard base64
// of the same text, which is what earlier releases produced.
package codec

import (
	"encoding/base64"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/zstd"
)

const (
	// CurrentPrefix marks tokens produced by this version.
	CurrentPrefix  = "vs1."
	fieldSeparator = "|"
	entrySeparator = ";"

	maxDecodedSize = 4 << 20
)

var versionPrefixPattern = regexp.MustCompile(`^vs\d+\.`)

// EncoderData is one mod entry of a token.
type EncoderData struct {
	ModID      string
	ModVersion string
}

func Encode(items []EncoderData) (string, error) {
	if err := validate(items); err != nil {
		return "", err
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression), zstd.WithZeroFrames(true))
	if err != nil {
		return "", err
	}
	defer encoder.Close()

	compressed := encoder.EncodeAll([]byte(format(items)), nil)
	return CurrentPrefix + base64.RawURLEncoding.EncodeToString(compressed), nil
}

func Decode(token string) ([]EncoderData, error) {
	token = strings.TrimSpace(token)

	if strings.HasPrefix(token, CurrentPrefix) {
		return decodeCurrent(strings.TrimPrefix(token, CurrentPrefix))
	}
	if prefix := versionPrefixPattern.FindString(token); prefix != "" {
		return nil, &UnsupportedTokenVersionError{Prefix: strings.TrimSuffix(prefix, ".")}
	}
	return decodeLegacy(token)
}

func decodeCurrent(body string) ([]EncoderData, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(body, "="))
	if err != nil {
		return nil, &TokenEncodingError{Err: err}
	}
	if len(compressed) == 0 {
		return []EncoderData{}, nil
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize))
	if err != nil {
		return nil, &DecompressError{Err: err}
	}
	defer decoder.Close()

	payload, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, &DecompressError{Err: err}
	}
	return parse(payload)
}

func decodeLegacy(body string) ([]EncoderData, error) {
	payload, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		var rawErr error
		payload, rawErr = base64.RawStdEncoding.DecodeString(body)
		if rawErr != nil {
			return nil, &TokenEncodingError{Err: err}
		}
	}
	return parse(payload)
}

func parse(payload []byte) ([]EncoderData, error) {
	if !utf8.Valid(payload) {
		return nil, &TokenEncodingError{Err: errInvalidUTF8}
	}

	text := string(payload)
	if text == "" {
		return []EncoderData{}, nil
	}

	segments := strings.Split(text, entrySeparator)
	items := make([]EncoderData, 0, len(segments))
	for _, segment := range segments {
		parts := strings.Split(segment, fieldSeparator)
		if len(parts) != 2 || parts[0] == "" {
			return nil, &FormatError{Segment: segment}
		}
		items = append(items, EncoderData{ModID: parts[0], ModVersion: parts[1]})
	}
	return items, nil
}

func format(items []EncoderData) string {
	entries := make([]string, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.ModID+fieldSeparator+item.ModVersion)
	}
	return strings.Join(entries, entrySeparator)
}

func validate(items []EncoderData) error {
	for index, item := range items {
		if item.ModID == "" || strings.ContainsAny(item.ModID, fieldSeparator+entrySeparator) {
			return &DelimiterError{Index: index, Field: "id", Value: item.ModID}
		}
		if strings.ContainsAny(item.ModVersion, fieldSeparator+entrySeparator) {
			return &DelimiterError{Index: index, Field: "version", Value: item.ModVersion}
		}
	}
	return nil
}
