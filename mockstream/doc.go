// Package mockstream replays a recorded newline-delimited JSON stream over
// HTTP the way the streaming API delivers it: records terminated by "\r\n",
// blank heartbeat lines between them, and a body cut into chunks of random
// size that ignore record boundaries.
//
// It backs the stream driver's integration tests and the CLI's replay
// command.
package mockstream
