// Package server exposes the controller over HTTP.
//
// The API is JSON over gin. UI sessions send the message protocol to
// POST /api/message (or the typed shortcuts) and receive updatePopup
// pushes over the websocket at GET /api/ws. The host reports page loads to
// POST /api/navigation.
//
// Validation that belongs to the UI happens here, before the controller
// sees a request: blank rules are dropped from start and saveRules, and a
// start without any enabled rule is rejected with 400.
package server
