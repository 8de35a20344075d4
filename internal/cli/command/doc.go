// Package command defines the gatekeep-cli commands on urfave/cli/v2.
//
//   - token issue / token verify: mint and inspect session tokens offline
//   - password hash: produce an argon2id hash for a configured password
//   - session check: ask a running server whether a cookie is signed in
package command
