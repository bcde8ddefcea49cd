// Package cli is the ttychat terminal.
//
// It starts as a plain-looking guest shell. "sudo connect" asks for a
// password: the real one opens the encrypted chat with the paired peer,
// the duress one opens a decoy shell that never touches the chat.
//
// In chat, lines starting with "/" are commands:
//   - /logout, /clear (also clear, qc, /qc), /urgent, /panic
//   - /img <path> sends a file over the direct peer link
//   - /files lists received files
//   - /pair [token] saves and shows the pairing token as a QR code
//   - /connect retries the peer link, /status shows server and peer state
//
// Everything else is encrypted and sent. App.Run blocks until stdin ends.
package cli
