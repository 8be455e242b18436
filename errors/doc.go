// Package errors defines the structured error type returned by tweetkit's
// configuration, validation and decoding layers.
package errors
