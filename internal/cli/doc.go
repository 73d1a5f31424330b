// Package cli provides the interactive clipsync command-line client.
//
// It wires configuration, the local encrypted store, the Firestore-backed
// remote store and an interactive REPL that supports guest and signed-in
// operation. Typical flow: start in guest mode working purely locally, sign
// in with a Firebase ID token to reconcile and sync, and execute user
// commands against whichever backend is active.
//
// Key features:
//   - Guest mode: items and categories live only in the local store
//   - Login / Logout (login reconciles local data with the remote account,
//     logout wipes the local mirror)
//   - Add, list, show, search, delete items and templates
//   - Custom category management with an in-use guard on deletion
//   - Manual sync plus opportunistic pulls when connectivity returns
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher and Root for details.
package cli
