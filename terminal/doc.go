// @focus: #sys { term }
// Package terminal provides portable terminal control over terminfo
// capabilities and the Windows console.
//
// Features:
//   - Capability resolution from the terminfo database with a built-in
//     ANSI fallback for unknown terminal types
//   - Nested raw mode with exact restoration of the original settings
//   - Input decoding: keys with modifiers, SGR mouse, bracketed paste,
//     escape sequences split across reads, legacy charsets
//   - Line editing with history and a remappable keymap
//   - Signals as events (resize, interrupt, suspend, continue)
//   - Clean terminal restoration on exit, fatal signal or panic
//
// One Terminal may be open per device. Full-screen drawing lives in the
// screen package.
package terminal
