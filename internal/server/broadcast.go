// Package server provides an HTTP and WebSocket live-status feed for a single
// local repository. No pygit subcommand starts it.
package server

const broadcastChannelSize = 256

// All broadcast methods (handleBroadcast, sendToAllClients, broadcastUpdate)
// have been moved to RepoSession in session.go.
