// Package command exposes go-command compatible command handlers that log
// and delete activity records. Commands are wired by the service layer and
// can be invoked by any transport.
package command
