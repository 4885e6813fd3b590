// Package tui is the interactive cups client.
//
// The screen has four panes: the contact list on the left and, on the
// right, a name bar, the conversation feed and the input line. Every
// Update first advances the refresh scheduler and only then handles the
// event, so keyboard input always acts on the freshest data. A timer keeps
// the scheduler ticking while the keyboard is idle.
package tui
