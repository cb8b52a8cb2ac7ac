// Package websocket streams trigger records to operators in real time.
//
// Hub is a record sink for the plugin manager. Clients connect to
// /api/v1/trace/ws, optionally with ?events=a,b to filter, and receive
// one JSON record per text frame.
package websocket
