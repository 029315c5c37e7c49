//go:build js && wasm

package main

import (
	"bytes"
	"syscall/js"

	"github.com/voxelsplace/mole/api"
	"github.com/voxelsplace/mole/mole"
)

func bytesArg(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func toUint8Array(b []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(arr, b)
	return arr
}

func mole2glb(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing mole bytes")
	}
	out, err := api.MoleToGLB(bytesArg(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return toUint8Array(out)
}

func glb2mole(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing glb bytes")
	}
	out, err := api.GLBToMole(bytesArg(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return toUint8Array(out)
}

func moleInfo(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing mole bytes")
	}
	c, err := mole.Decode(bytesArg(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	var buf bytes.Buffer
	if err := api.Summarize(c).WriteText(&buf); err != nil {
		return js.ValueOf(err.Error())
	}
	return js.ValueOf(buf.String())
}

func main() {
	js.Global().Set("mole2glb", js.FuncOf(mole2glb))
	js.Global().Set("glb2mole", js.FuncOf(glb2mole))
	js.Global().Set("moleInfo", js.FuncOf(moleInfo))
	select {}
}
