// Package handler implements gatekeep's HTTP endpoints.
//
// Nordlys endpoints answer JSON and are guarded by the "nla" cookie. The
// vault renders HTML and is guarded by the "__Host-vault" cookie, with a
// separate JSON password check for the front end. The contact endpoint
// forwards form messages by email.
//
// Handlers are registered without method patterns so that unsupported
// methods get the JSON 405 body instead of the mux's plain-text reply.
package handler
