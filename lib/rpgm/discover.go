// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package rpgm

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
)

// KeyFromKnownHeader recovers the key from an obfuscated image, by XORing
// the masked header bytes [headerLength, 2*headerLength) with the
// reference image header. ok is false when buf is too short.
func KeyFromKnownHeader(buf []byte, headerLength int) (key Key, ok bool) {
	if headerLength <= 0 || len(buf) < 2*headerLength {
		return nil, false
	}

	masked := buf[headerLength : 2*headerLength]
	ref := ReferenceHeader(headerLength)

	key = make(Key, headerLength)
	for i := range key {
		key[i] = masked[i] ^ ref[i]
	}

	return key, true
}

// TextStrategy looks for a key literal in some text.
type TextStrategy func(text string) (string, bool)

// TextStrategies are tried in order by KeyFromText, first match wins.
var TextStrategies = []TextStrategy{
	keyFromJSON,
	base64Decoded(keyFromJSON),
	keyFromAssignment,
	base64Decoded(keyFromAssignment),
}

// KeyFromText finds a key in the contents of System.json, in the engine's
// core script, or in either of those base64 encoded.
func KeyFromText(text string) (string, bool) {
	for _, strategy := range TextStrategies {
		if key, ok := strategy(text); ok {
			return key, true
		}
	}

	return "", false
}

type systemJSON struct {
	EncryptionKey string `json:"encryptionKey"`
}

// Wrapping in [] lets a bare object and a bare value parse the same way.
func keyFromJSON(text string) (string, bool) {
	var elems []json.RawMessage
	err := json.Unmarshal([]byte("["+text+"]"), &elems)
	if err != nil || len(elems) == 0 {
		return "", false
	}

	var sys systemJSON
	err = json.Unmarshal(elems[0], &sys)
	if err != nil || len(sys.EncryptionKey) == 0 {
		return "", false
	}

	return sys.EncryptionKey, true
}

var assignmentRE *regexp.Regexp = regexp.MustCompile(`^.*this\._encryptionKey\s*=\s*"([^"]+)".*;.*$`)

var lineCleaner = strings.NewReplacer("\r", "", "\t", "")

func keyFromAssignment(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = lineCleaner.Replace(line)

		matches := assignmentRE.FindStringSubmatch(line)
		if len(matches) == 2 {
			return matches[1], true
		}
	}

	return "", false
}

func decodeBase64(text string) (string, bool) {
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	if len(text) == 0 {
		return "", false
	}

	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(text)
		if err != nil {
			return "", false
		}
	}

	return string(data), true
}

func base64Decoded(strategy TextStrategy) TextStrategy {
	return func(text string) (string, bool) {
		decoded, ok := decodeBase64(text)
		if !ok {
			return "", false
		}

		return strategy(decoded)
	}
}
