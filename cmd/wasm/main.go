//go:build js && wasm

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/hashio"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorProcessing
	ErrorUnhashableFrame
	ErrorLengthMismatch
	ErrorNoComparablePairs
	ErrorNoEligibleRecords
)

var hasher = fingerprint.NewPDQHasher()

func errorCode(err error) int {
	switch {
	case errors.Is(err, fingerprint.ErrUnhashableFrame):
		return ErrorUnhashableFrame
	case errors.Is(err, fingerprint.ErrLengthMismatch):
		return ErrorLengthMismatch
	case errors.Is(err, fingerprint.ErrNoComparablePairs):
		return ErrorNoComparablePairs
	case errors.Is(err, fingerprint.ErrNoEligibleRecords):
		return ErrorNoEligibleRecords
	default:
		return ErrorProcessing
	}
}

// readBytes copies a Uint8Array, Uint8ClampedArray or plain Array of numbers.
func readBytes(v js.Value) ([]byte, error) {
	if v.Type() != js.TypeObject {
		return nil, errors.New("pixel data must be an array")
	}
	n := v.Length()
	buf := make([]byte, n)
	if v.InstanceOf(js.Global().Get("Uint8Array")) {
		js.CopyBytesToGo(buf, v)
		return buf, nil
	}
	for i := 0; i < n; i++ {
		el := v.Index(i)
		if el.Type() != js.TypeNumber {
			return nil, fmt.Errorf("pixel element %d is not a number", i)
		}
		buf[i] = byte(el.Int())
	}
	return buf, nil
}

// stripAlpha converts canvas RGBA data to packed RGB.
func stripAlpha(rgba []byte) []byte {
	rgb := make([]byte, 0, len(rgba)/4*3)
	for i := 0; i+3 < len(rgba); i += 4 {
		rgb = append(rgb, rgba[i], rgba[i+1], rgba[i+2])
	}
	return rgb
}

// hashFrame hashes one frame: (pixels, width, height[, channels]).
// channels defaults to 3; 4 accepts ImageData RGBA directly.
// Returns: {error: number, data: {hash, quality} | string}
func hashFrame(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected arguments: pixels, width, height[, channels]")
	}
	if args[1].Type() != js.TypeNumber || args[2].Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "width and height must be numbers")
	}
	channels := 3
	if len(args) > 3 && args[3].Type() == js.TypeNumber {
		channels = args[3].Int()
	}
	if channels != 3 && channels != 4 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("channels must be 3 or 4, got %d", channels))
	}

	pix, err := readBytes(args[0])
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}
	width, height := args[1].Int(), args[2].Int()
	if len(pix) != width*height*channels {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("expected %d bytes for %dx%dx%d, got %d", width*height*channels, width, height, channels, len(pix)))
	}
	if channels == 4 {
		pix = stripAlpha(pix)
	}

	hash, quality, err := hasher.HashFrame(fingerprint.Frame{Width: width, Height: height, Pix: pix})
	if err != nil {
		return makeErrorResponse(errorCode(err), err.Error())
	}

	data := js.Global().Get("Object").New()
	data.Set("hash", hash.String())
	data.Set("quality", quality)
	return makeResponse(data)
}

// readSequence converts an array of {frame, quality, hash, timestamp} objects.
func readSequence(v js.Value) (fingerprint.Sequence, error) {
	if v.Type() != js.TypeObject {
		return nil, errors.New("sequence must be an array of records")
	}
	raw := js.Global().Get("JSON").Call("stringify", v).String()
	var records []hashio.JSONRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return hashio.FromJSON(records)
}

type compareInput struct {
	a, b       fingerprint.Sequence
	dTol, qTol int
}

func readCompareArgs(args []js.Value) (*compareInput, js.Value) {
	if len(args) < 4 {
		return nil, makeErrorResponse(ErrorInvalidArgs, "Expected 4 arguments: sequenceA, sequenceB, distanceTolerance, qualityTolerance")
	}
	if args[2].Type() != js.TypeNumber || args[3].Type() != js.TypeNumber {
		return nil, makeErrorResponse(ErrorInvalidArgs, "tolerances must be numbers")
	}
	a, err := readSequence(args[0])
	if err != nil {
		return nil, makeErrorResponse(ErrorInvalidArgs, "first sequence: "+err.Error())
	}
	b, err := readSequence(args[1])
	if err != nil {
		return nil, makeErrorResponse(ErrorInvalidArgs, "second sequence: "+err.Error())
	}
	return &compareInput{a: a, b: b, dTol: args[2].Int(), qTol: args[3].Int()}, js.Undefined()
}

// matchByLine returns {error, data: {percentage, matchCount, compared, skipped}}.
func matchByLine(this js.Value, args []js.Value) any {
	in, errResp := readCompareArgs(args)
	if in == nil {
		return errResp
	}
	res, err := fingerprint.MatchByLine(in.a, in.b, in.dTol, in.qTol)
	if err != nil {
		return makeErrorResponse(errorCode(err), err.Error())
	}

	data := js.Global().Get("Object").New()
	data.Set("percentage", res.Percentage)
	data.Set("matchCount", res.MatchCount)
	data.Set("compared", res.TotalCompared)
	data.Set("skipped", res.Skipped)
	return makeResponse(data)
}

// matchBrute returns {error, data: {queryPercentage, targetPercentage}}.
func matchBrute(this js.Value, args []js.Value) any {
	in, errResp := readCompareArgs(args)
	if in == nil {
		return errResp
	}
	res, err := fingerprint.MatchBrute(in.a, in.b, in.dTol, in.qTol)
	if err != nil {
		return makeErrorResponse(errorCode(err), err.Error())
	}

	data := js.Global().Get("Object").New()
	data.Set("queryPercentage", res.QueryPercentage)
	data.Set("targetPercentage", res.TargetPercentage)
	return makeResponse(data)
}

func makeResponse(data js.Value) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")

	js.Global().Set("videodnaHashFrame", js.FuncOf(hashFrame))
	js.Global().Set("videodnaMatchByLine", js.FuncOf(matchByLine))
	js.Global().Set("videodnaMatchBrute", js.FuncOf(matchBrute))

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		event := js.Global().Get("CustomEvent").New("wasmReady", js.Global().Get("Object").New())
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("error", "window object is undefined")
	}

	if !console.IsUndefined() {
		console.Call("log", "VideoDNA WASM module loaded")
	}

	select {}
}
