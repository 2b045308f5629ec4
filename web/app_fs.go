package web

import _ "embed"

// indexHTML is the browser viewer. It draws the frames it receives on a canvas and sends keyboard
// and mouse input back over the websocket.
//
//go:embed static/index.html
var indexHTML []byte
