// Package dispatch
// Author: momentics <momentics@gmail.com>
//
// Routes parsed HTTP requests and WebSocket text commands to the device
// collaborators and builds the replies.
//
// Failures never escape: HTTP requests degrade to a 500 response and
// commands to an "error" reply, so the connection loop only ever sees bytes
// to send back.
package dispatch
