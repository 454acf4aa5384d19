// Package message defines the requests accepted by the controller, the
// responses it returns and the notifications it pushes to observers.
//
// Requests form a closed set: only the types in this package implement
// Request. Over HTTP they are JSON objects discriminated by an "action"
// field and turned into typed values by Decode.
package message
